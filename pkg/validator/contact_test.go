package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone_ValidNumbers(t *testing.T) {
	validator := NewContactValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"0771234567", "0771234567", "Sri Lanka local"},
		{"+94 77 123 4567", "+94771234567", "Sri Lanka international"},
		{"077-123-4567", "0771234567", "With dashes"},
		{"(01) 4412345", "014412345", "With parentheses"},
		{"+977 980-1234567", "+9779801234567", "Nepal"},
		{"+880.1712.345678", "+8801712345678", "Bangladesh with dots"},
		{"  +91 98765 43210  ", "+919876543210", "India with padding"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.ValidatePhone(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidatePhone_InvalidNumbers(t *testing.T) {
	validator := NewContactValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"   ", ErrEmptyPhone, "Whitespace"},
		{"12345", ErrInvalidLength, "Too short"},
		{"+1234567890123456", ErrInvalidLength, "Too long"},
		{"077123456a", ErrInvalidFormat, "Contains letters"},
		{"077#1234567", ErrInvalidFormat, "Contains symbols"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.ValidatePhone(tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}

	assert.False(t, validator.IsValidPhone("abc"))
	assert.True(t, validator.IsValidPhone("0771234567"))
}

func TestValidateEmail(t *testing.T) {
	validator := NewContactValidator()

	email, err := validator.ValidateEmail("  Nimal.Perera@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "nimal.perera@example.com", email)

	_, err = validator.ValidateEmail("")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	for _, bad := range []string{"nimal", "nimal@", "@example.com", "ni mal@example.com",
		"x@a..co", "x@-bad-.com", ".x@a.co", "x..y@example.com"} {
		_, err := validator.ValidateEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
}
