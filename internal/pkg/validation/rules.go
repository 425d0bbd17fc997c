package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Person names: letters and spaces only
	NamePattern = `^[\p{L} ]+$`

	// University seat number, stored upper case
	USNPattern = `^[A-Z0-9]+$`

	// Password min length
	PasswordMinLength = 6

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 50
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Name *regexp.Regexp
	USN  *regexp.Regexp
}{
	Name: regexp.MustCompile(NamePattern),
	USN:  regexp.MustCompile(USNPattern),
}

// IsStrongPassword reports whether password has the minimum length and at
// least one lower case letter, one upper case letter and one digit.
func IsStrongPassword(password string) bool {
	if len(password) < PasswordMinLength {
		return false
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// IsValidName reports whether name is a 2-50 character name of letters and spaces.
func IsValidName(name string) bool {
	n := len([]rune(strings.TrimSpace(name)))
	return n >= NameMinLength && n <= NameMaxLength && CompiledPatterns.Name.MatchString(name)
}

// IsValidUSN reports whether usn is a 5-20 character upper case alphanumeric code.
func IsValidUSN(usn string) bool {
	return len(usn) >= 5 && len(usn) <= 20 && CompiledPatterns.USN.MatchString(usn)
}

// Register teaches v the portal's conventions: JSON or form field names in
// errors and the custom tags personname, usn and strongpassword.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return IsValidName(fl.Field().String())
	})
	_ = v.RegisterValidation("usn", func(fl validator.FieldLevel) bool {
		return IsValidUSN(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
}

// NewValidator returns a validator configured with Register.
func NewValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

// Default is a standalone validator using the "validate" struct tag.
var Default = NewValidator()

// MessageFor renders a human readable message for a failed rule.
func MessageFor(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if e.Kind() == reflect.String {
			return field + " must be at least " + e.Param() + " characters"
		}
		return field + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return field + " must be at most " + e.Param() + " characters"
		}
		return field + " must be at most " + e.Param()
	case "gte":
		return field + " must be greater than or equal to " + e.Param()
	case "lte":
		return field + " must be less than or equal to " + e.Param()
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "personname":
		return field + " must be 2-50 characters of letters and spaces"
	case "usn":
		return field + " must be 5-20 upper case letters or digits"
	case "strongpassword":
		return field + " must be at least 6 characters with a lower case letter, an upper case letter and a digit"
	default:
		return field + " validation failed: " + e.Tag()
	}
}

// FieldMessages flattens a validator error into field -> message pairs.
// It returns nil when err is not a validation error.
func FieldMessages(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, exists := out[e.Field()]; !exists {
			out[e.Field()] = MessageFor(e)
		}
	}
	return out
}
