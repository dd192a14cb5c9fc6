package phonebook

import (
	"errors"
	"regexp"
)

var (
	// ErrInvalidPhone rejects a phone number not shaped (###) ###-####.
	ErrInvalidPhone = errors.New("invalid phone number format, expected (###) ###-####")
	// ErrInvalidEmail rejects a non-empty email not shaped local@domain.tld.
	ErrInvalidEmail = errors.New("invalid email address")
)

var (
	phonePattern = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
	emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
)

// ValidatePhone accepts exactly "(###) ###-####".
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidateEmail accepts an empty string (no email given) or local@domain.tld.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// IsValidation reports whether err is a phone or email format rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPhone) || errors.Is(err, ErrInvalidEmail)
}
