package main

import (
	"fmt"
	"os"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/latestat/bootstrap"
	"github.com/fulldump/latestat/configuration"
)

var banner = `
 _       _            _        _
| | __ _| |_ ___  ___| |_ __ _| |_
| |/ _` + "`" + ` | __/ _ \/ __| __/ _` + "`" + ` | __|
| | (_| | ||  __/\__ \ || (_| | |_
|_|\__,_|\__\___||___/\__\__,_|\__|
                 version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	fmt.Println(banner)

	if c.ShowConfig {
		json.MarshalWrite(os.Stdout, c, jsontext.WithIndent("    "))
		fmt.Println()
	}

	start, stop := bootstrap.Bootstrap(&c)
	defer stop()
	start()
}
