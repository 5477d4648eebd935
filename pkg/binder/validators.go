package binder

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// durationValidator ensures the value parses with time.ParseDuration and is
// not negative. The empty string is allowed so it can be combined with
// `required` when the value must be set.
func durationValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return false
	}
	return d >= 0
}
