package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/fulldump/goconfig"
)

type Config struct {
	Test     string `usage:"name of the test: ALL | INSERT | QUERY"`
	Base     string `usage:"base URL, empty to start an embedded server"`
	N        int64  `usage:"number of rows to insert or queries to run"`
	Workers  int    `usage:"number of workers"`
	Entities int    `usage:"number of entities to spread the rows on"`
	Batch    int    `usage:"rows per insert request"`
}

func main() {

	c := Config{
		Test:     "all",
		Base:     "",
		N:        100_000,
		Workers:  16,
		Entities: 64,
		Batch:    100,
	}
	goconfig.Read(&c)

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	var err error
	switch strings.ToUpper(c.Test) {
	case "ALL":
		err = TestInsert(c)
		if err == nil {
			err = TestQuery(c)
		}
	case "INSERT":
		err = TestInsert(c)
	case "QUERY":
		err = TestQuery(c)
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}
	if err != nil {
		fmt.Println("ERROR:", err.Error())
	}
}
