// Package validation binds and validates request payloads.
//
// Struct payloads are checked with go-playground/validator tags;
// payloads that carry free-form JSON implement Binder and report their
// own field errors. Failures are turned into 400 responses.
package validation

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	return validate.Struct(v)
}
