package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// These should never fail in normal operation
	if err := Validate.RegisterValidation("limiter_rate", validateLimiterRate); err != nil {
		panic(fmt.Sprintf("failed to register limiter_rate validator: %v", err))
	}
	if err := Validate.RegisterValidation("argv", validateArgv); err != nil {
		panic(fmt.Sprintf("failed to register argv validator: %v", err))
	}
}

// validateLimiterRate validates a rate in ulule/limiter notation, e.g. "50-S" or "1000-H"
func validateLimiterRate(fl validator.FieldLevel) bool {
	_, err := limiter.NewRateFromFormatted(fl.Field().String())
	return err == nil
}

// validateArgv validates a command line: at least one element and a non-blank program name
func validateArgv(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice || field.Len() == 0 {
		return false
	}
	return strings.TrimSpace(field.Index(0).String()) != ""
}

// Struct validates s and flattens validator errors into a single readable error.
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
