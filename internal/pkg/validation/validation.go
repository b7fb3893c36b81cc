package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used to parse phone numbers written without a country code.
const DefaultRegion = "IR"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidPhone(s)
	})
	_ = v.RegisterValidation("national", func(fl validator.FieldLevel) bool {
		return IsValidNationalNumber(fl.Field().String())
	})
	return v
}

// Struct validates a request body by its `validate` tags. On failure it
// returns a field -> failed tag map suitable for error details.
func Struct(s interface{}) (map[string]string, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, err
	}
	details := make(map[string]string, len(ves))
	for _, ve := range ves {
		details[ve.Field()] = ve.Tag()
	}
	return details, err
}

var nationalRe = regexp.MustCompile(`^[0-9]{8,15}$`)

// IsValidNationalNumber accepts 8 to 15 digits.
func IsValidNationalNumber(s string) bool {
	return nationalRe.MatchString(strings.TrimSpace(s))
}

// IsValidPhone reports whether s parses as a valid number, local numbers
// being read in DefaultRegion.
func IsValidPhone(s string) bool {
	p, err := libphonenumber.Parse(s, DefaultRegion)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(p)
}

// NormalizePhone formats a valid phone number as E.164; invalid input is
// returned trimmed and unchanged.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	p, err := libphonenumber.Parse(s, DefaultRegion)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return s
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

// IsValidPassword requires at least 8 characters with a letter, a digit and
// a special character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
