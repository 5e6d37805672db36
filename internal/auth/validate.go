package auth

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

// Registration validation errors. Handlers map all three to 400 responses.
var (
	ErrMissingField = errors.New("all fields are required")
	ErrInvalidPhone = errors.New("phone must be 10 digits (numbers only)")
	ErrWeakPassword = errors.New("password must be at least 8 characters and include upper, lower, number, and special character")
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether s is exactly 10 ASCII digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// RegistrationInput is the raw payload checked by ValidateRegistration.
type RegistrationInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// ValidateRegistration checks a registration payload before any account is
// created. It is a pure function: no normalization, no side effects.
func ValidateRegistration(in RegistrationInput) error {
	if in.Username == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return ErrMissingField
	}
	if !phonePattern.MatchString(in.Phone) {
		return ErrInvalidPhone
	}
	if !strongPassword(in.Password) {
		return ErrWeakPassword
	}
	return nil
}

// strongPassword reports whether the password is at least 8 characters and
// contains an upper-case letter, a lower-case letter, a digit, and a
// character outside A-Z, a-z, 0-9. Classification is ASCII-only: any other
// rune, accented letters included, counts as the special character. Length
// is counted in characters, not bytes. Which rule failed is deliberately
// not reported.
func strongPassword(password string) bool {
	if utf8.RuneCountInString(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
