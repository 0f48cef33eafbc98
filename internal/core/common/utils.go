package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON cleans and unmarshals a JSON document into a type T.
// It tolerates text around the document, such as markdown fences from an LLM
// or HTML comment markers inside a script tag. Both objects and arrays are
// accepted; whichever opens first wins.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.IndexAny(response, "{[")
	if start == -1 {
		return zero, fmt.Errorf("no JSON document found (missing '{' or '[')")
	}
	closer := byte('}')
	if response[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(response, closer)
	if end < start {
		return zero, fmt.Errorf("unterminated JSON document")
	}
	jsonStr := response[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}
