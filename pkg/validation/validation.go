// Package validation provides struct validation and text sanitization
package validation

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	eventAttrPattern  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	jsURLPattern      = regexp.MustCompile(`(?i)javascript:\s*[^"'\s>]*`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t\f\v]+`)
	indexSuffix       = regexp.MustCompile(`\[\d+\]$`)
)

// Validator validates command structs and reports failures as field errors
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that names fields by their json tag and knows the
// no_markup rule
func New() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("no_markup", validateNoMarkup)
	_ = validate.RegisterValidation("notblank", validateNotBlank)

	return &Validator{validate: validate}
}

// Struct validates s. A failure is returned as a single validation AppError
// carrying one entry per offending field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInternalError("validation failed").WithCause(err)
	}

	fields := make([]errors.ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := indexSuffix.ReplaceAllString(e.Field(), "")
		fields = append(fields, errors.ValidationError{Field: field, Message: message(field, e)})
	}
	return errors.NewValidationErrors(fields)
}

func message(field string, e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	case "no_markup":
		return fmt.Sprintf("%s must not contain markup", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateNoMarkup(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return !tagPattern.MatchString(value) && !jsURLPattern.MatchString(value)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// StripMarkup removes script blocks, event handlers, javascript: URLs and
// any remaining tags, then decodes entities and collapses runs of spaces.
// Line breaks are kept.
func StripMarkup(input string) string {
	result := scriptPattern.ReplaceAllString(input, "")
	result = eventAttrPattern.ReplaceAllString(result, "")
	result = jsURLPattern.ReplaceAllString(result, "")
	result = tagPattern.ReplaceAllString(result, "")
	result = html.UnescapeString(result)
	result = whitespacePattern.ReplaceAllString(result, " ")

	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
