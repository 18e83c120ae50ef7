package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kickpool/kickpool-go/internal/apperror"
)

// validateInput turns validator failures into the taxonomy's
// validation kind with field-level details, matching the shape the
// backend uses for 422s.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Unexpected(err, "could not validate input")
	}

	details := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		details[field] = append(details[field], describeRule(fe))
	}

	return apperror.Validation("invalid input", details)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "lte":
		return fmt.Sprintf("must be %s or less", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
