package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Input length limits.
const (
	MaxEmailLength = 320 // RFC 5321
	MaxPhoneLength = 32  // E.164 plus formatting
	MaxURLLength   = 2048
	minPhoneDigits = 6
)

// ValidateEmail checks that s is a single bare address such as
// name@example.com. Display names are rejected.
func ValidateEmail(s string) error {
	if s == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if n := utf8.RuneCountInString(s); n > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters (got %d)", MaxEmailLength, n)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if addr.Name != "" || addr.Address != s {
		return fmt.Errorf("invalid email format: expected a bare address")
	}
	return nil
}

// ValidatePhone checks that s looks like a phone number: an optional leading
// +, then digits with space, dash, dot or parenthesis separators.
func ValidatePhone(s string) error {
	if s == "" {
		return fmt.Errorf("phone number cannot be empty")
	}
	if n := utf8.RuneCountInString(s); n > MaxPhoneLength {
		return fmt.Errorf("phone number exceeds maximum length of %d characters (got %d)", MaxPhoneLength, n)
	}
	digits := 0
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" -.()", r):
		default:
			return fmt.Errorf("invalid phone format: contains invalid character '%c'", r)
		}
	}
	if digits < minPhoneDigits {
		return fmt.Errorf("invalid phone format: need at least %d digits", minPhoneDigits)
	}
	return nil
}
