// Package validation turns raw request input into typed, checked values.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"lens-catalog/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match the request
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("lenstype", func(fl validator.FieldLevel) bool {
		return domain.LensType(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
}

// FieldError describes why a single input field was rejected
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field errors. It is returned as an error value
// whenever input fails validation.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsErrors extracts validation errors from err
func AsErrors(err error) (Errors, bool) {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// structErrors runs the tag rules on v and returns one message per failing field
func structErrors(v interface{}) (map[string]string, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	messages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		if _, seen := messages[e.Field()]; seen {
			continue
		}
		messages[e.Field()] = ruleMessage(e)
	}
	return messages, nil
}

func ruleMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "min":
		return "This field " + e.Field() + " cannot be empty."
	case "gte":
		return "The field " + e.Field() + " must be at least " + e.Param() + "."
	case "lenstype":
		return "Please select a valid lens type."
	default:
		return "Invalid value"
	}
}
