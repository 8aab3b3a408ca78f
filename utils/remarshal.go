package utils

import (
	"github.com/go-json-experiment/json"
)

// Remarshal converts input into output through its JSON form, so numbers end
// up as float64 and structs as maps when output is generic.
func Remarshal(input any, output any) error {
	b, err := json.Marshal(input, json.Deterministic(true))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, output)
}
