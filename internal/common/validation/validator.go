// Package validation wraps go-playground/validator with the gateway's custom
// tags and error formatting. Field names in messages follow JSON tags.
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"integration-gateway/internal/common/errors"
)

// CentralizedValidator provides unified validation using go-playground/validator
type CentralizedValidator struct {
	validator *validator.Validate
}

// FieldError represents a single validation error with context
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// NewCentralizedValidator creates a new centralized validator instance
func NewCentralizedValidator() *CentralizedValidator {
	v := validator.New()

	registerCustomValidators(v)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &CentralizedValidator{
		validator: v,
	}
}

// Engine returns the underlying validator for registering struct level rules
func (cv *CentralizedValidator) Engine() *validator.Validate {
	return cv.validator
}

// ValidateStruct validates a struct using struct tags
func (cv *CentralizedValidator) ValidateStruct(s interface{}) error {
	if err := cv.validator.Struct(s); err != nil {
		return cv.formatValidationErrors(err)
	}
	return nil
}

// ValidateVar validates a single variable with validation rules
func (cv *CentralizedValidator) ValidateVar(field interface{}, tag string) error {
	if err := cv.validator.Var(field, tag); err != nil {
		return cv.formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts go-playground/validator errors to internal errors
func (cv *CentralizedValidator) formatValidationErrors(err error) error {
	fieldErrors := extractFieldErrors(err)
	if len(fieldErrors) == 1 {
		return errors.ValidationError(fieldErrors[0].Message)
	}

	messages := make([]string, len(fieldErrors))
	for i, e := range fieldErrors {
		messages[i] = e.Message
	}

	return errors.ValidationError(fmt.Sprintf("validation failed: %s", strings.Join(messages, "; ")))
}

func extractFieldErrors(err error) []FieldError {
	var result []FieldError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrs {
			result = append(result, FieldError{
				Field:   fieldError.Namespace(),
				Tag:     fieldError.Tag(),
				Message: formatFieldError(fieldError),
				Param:   fieldError.Param(),
			})
		}
		return result
	}

	return []FieldError{{Field: "unknown", Tag: "error", Message: err.Error()}}
}

// fieldPath drops the root struct name from the namespace
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func formatFieldError(err validator.FieldError) string {
	field := fieldPath(err)
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "url", "http_url":
		return fmt.Sprintf("field '%s' must be a valid http or https URL", field)
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", field, err.Param())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, err.Param())
	case "broker_type":
		return fmt.Sprintf("field '%s' must be a valid broker type (kafka, rabbitmq, redis, aws, gcp)", field)
	case "amqp_url":
		return fmt.Sprintf("field '%s' must be an amqp or amqps URL", field)
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", field, err.Tag())
	}
}

func registerCustomValidators(v *validator.Validate) {
	v.RegisterValidation("broker_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "kafka", "rabbitmq", "redis", "aws", "gcp":
			return true
		}
		return false
	})

	v.RegisterValidation("amqp_url", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil || u.Host == "" {
			return false
		}
		return u.Scheme == "amqp" || u.Scheme == "amqps"
	})
}

var globalValidator = NewCentralizedValidator()

// ValidateStruct validates a struct using the global validator instance
func ValidateStruct(s interface{}) error {
	return globalValidator.ValidateStruct(s)
}

// ValidateVar validates a variable using the global validator instance
func ValidateVar(field interface{}, tag string) error {
	return globalValidator.ValidateVar(field, tag)
}
