package utils

import (
	"github.com/go-json-experiment/json"
)

// Remarshal converts input into output by going through its JSON encoding.
func Remarshal(input interface{}, output interface{}) (err error) {
	b, err := json.Marshal(input)
	if nil != err {
		return
	}
	return json.Unmarshal(b, output)
}
