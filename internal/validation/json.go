// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/json"

	validation "github.com/jellydator/validation"
)

// JSON validates that a byte slice holds a well-formed JSON document. Used
// for the free-form user metadata blobs, which the application stores but
// never interprets.
var JSON = validation.By(func(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return validation.NewError("validation_json_type", "must be a JSON document")
	}
	if len(raw) == 0 {
		return nil // Let Required handle empty values
	}
	if !json.Valid(raw) {
		return validation.NewError("validation_json", "must be a valid JSON document")
	}
	return nil
})
