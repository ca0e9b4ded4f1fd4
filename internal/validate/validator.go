// Package validate holds the single validator instance used by handlers
// (through echo's Validator hook) and by services. Phone and email rules
// live here and nowhere else.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/spacehire/internal/apperr"
)

// phonePattern accepts E.164 numbers: a leading '+', a non-zero country
// code digit and 8 to 15 digits in total.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// phoneSeparators are stripped before matching so "+256 700-000 000" passes.
var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

var (
	once     sync.Once
	instance *validator.Validate
)

// Instance returns the shared validator, building it on first use.
func Instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return Phone(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// NormalizePhone strips common separators from a phone number.
func NormalizePhone(raw string) string {
	return phoneSeparators.Replace(strings.TrimSpace(raw))
}

// Phone reports whether raw is a phone number including its country code.
func Phone(raw string) bool {
	return phonePattern.MatchString(NormalizePhone(raw))
}

// Email reports whether raw is a syntactically valid email address.
func Email(raw string) bool {
	return Instance().Var(raw, "required,email") == nil
}

// Struct validates s and converts the first failure into an
// apperr.ValidationError with a readable reason.
func Struct(s any) error {
	err := Instance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Validation("%s", describe(fieldErrs[0]))
	}
	return apperr.Validation("invalid request: %v", err)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number including the country code (e.g. +256700000000)", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// EchoValidator adapts the shared validator to echo.Validator.
type EchoValidator struct{}

// Validate implements echo.Validator.
func (EchoValidator) Validate(i interface{}) error { return Struct(i) }
