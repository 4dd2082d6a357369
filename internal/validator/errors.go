package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single failed rule on a field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

// ValidationErrors aggregates field errors so callers can report them
// all at once
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts go-playground validator errors into our
// error type
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "",
			Message: err.Error(),
			Rule:    "unknown",
		}}
	}

	errors := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}

	return errors
}

// messageFor maps a failed rule to a human readable message
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "note_title":
		return "must be between 3 and 200 characters"
	case "study_year":
		return "must be between 1 and 4"
	case "study_semester":
		return "must be between 1 and 8"
	case "user_role":
		return "must be one of student, staff, admin"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
