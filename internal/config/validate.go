package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes an out-of-range or missing setting.
type ValidationError struct {
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config key %q %s", e.Key, e.Message)
}

var validate = validator.New()

func validateSettings(raw *rawSettings) error {
	err := validate.Struct(raw)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Key:     keyForField(fe.StructField()),
			Message: formatFieldError(fe),
		}
	}
	return fmt.Errorf("validating config: %w", err)
}

// keyForField maps a rawSettings field name back to its config key.
func keyForField(field string) string {
	switch field {
	case "Timeout":
		return KeyTimeout
	case "HeadTimeout":
		return KeyHeadTimeout
	case "MaxRetries":
		return KeyMaxRetries
	case "Repo":
		return KeyRepo
	case "Branch":
		return KeyBranch
	case "RawBaseURL":
		return KeyRawBaseURL
	case "APIBaseURL":
		return KeyAPIBaseURL
	default:
		return field
	}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be an absolute URL"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
