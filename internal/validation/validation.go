// Package validation contains the logic for validating
// request data.
//
// It uses the `validator` library to enforce rules (like
// required fields or email formats) defined in struct tags
// and extracts validation errors into a format the client can
// understand
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// mailboxRegex requires local@domain with a dot in the domain and no whitespace.
var mailboxRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator returns the shared validator instance.
//
// Field errors are reported with the external (json) field name, so clients
// see "firstName" rather than "FirstName".
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(externalName)

		if err := validate.RegisterValidation("mailbox", isMailbox); err != nil {
			panic(err)
		}
	})
	return validate
}

func externalName(field reflect.StructField) string {
	for _, key := range []string{"json", "query", "param"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

func isMailbox(fl validator.FieldLevel) bool {
	return mailboxRegex.MatchString(fl.Field().String())
}
