package validator

import (
	"errors"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits and an optional leading +")

	// ErrInvalidLength indicates phone number is not 7 to 15 digits
	ErrInvalidLength = errors.New("phone number must have between 7 and 15 digits")

	// ErrEmptyEmail indicates email is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates email is malformed
	ErrInvalidEmail = errors.New("email address is invalid")
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

var (
	digitsRegex = regexp.MustCompile(`^\d+$`)
	fields      = playground.New()
)

// ContactValidator validates customer contact details on bookings.
// Customers book from several countries, so phone numbers are checked
// against the E.164 length limits rather than one operator's prefixes.
type ContactValidator struct{}

// NewContactValidator creates a new contact validator instance
func NewContactValidator() *ContactValidator {
	return &ContactValidator{}
}

// ValidatePhone returns the sanitized number: digits only, with a leading +
// kept when the caller supplied one
// Accepts: +94 77 123 4567, 077-123-4567, (01) 4412345
func (v *ContactValidator) ValidatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrEmptyPhone
	}

	international := strings.HasPrefix(phone, "+")
	digits := v.Sanitize(phone)

	if !digitsRegex.MatchString(digits) {
		return "", ErrInvalidFormat
	}
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return "", ErrInvalidLength
	}

	if international {
		return "+" + digits, nil
	}
	return digits, nil
}

// Sanitize removes common separators and the leading +
func (v *ContactValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "+", "")
	return replacer.Replace(phone)
}

// ValidateEmail returns the trimmed, lower-cased email
func (v *ContactValidator) ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	if len(email) > 254 || fields.Var(email, "email") != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// IsValidPhone is a convenience method that returns true if phone is valid
func (v *ContactValidator) IsValidPhone(phone string) bool {
	_, err := v.ValidatePhone(phone)
	return err == nil
}
