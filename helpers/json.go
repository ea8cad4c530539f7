package helpers

import (
	"encoding/json"

	"github.com/stretchr/testify/assert"
)

// AsJSON is just a shortcut for calling json.Marshal and taking only the first result.
func AsJSON(value interface{}) []byte {
	ret, _ := json.Marshal(value)
	return ret
}

// AsJSONString calls json.Marshal and returns the result as a string.
func AsJSONString(value interface{}) string { return string(AsJSON(value)) }

// AssertJSONEqual asserts that two JSON values are deeply equal, and, if they're not,
// prints a helpful diff.
func AssertJSONEqual(t assert.TestingT, expectedJSONString, actualJSONString string) bool {
	return assert.JSONEq(t, expectedJSONString, actualJSONString)
}
