package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern is a pragmatic check, not a full RFC 5322 parser.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	// MinPasswordLen is the minimum password length
	MinPasswordLen = 8
	// MaxPasswordLen is the maximum password length
	MaxPasswordLen = 100
	// MaxSlugLen is the maximum slug length
	MaxSlugLen = 255
)

// ValidateEmail checks that email is non-blank and plausibly formed.
// Callers are expected to normalize (trim + lowercase) before validating.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !emailPattern.MatchString(email) {
		return fmt.Errorf("email is not a valid address")
	}

	return nil
}

// ValidatePassword checks the password policy:
// 8-100 characters with at least one uppercase letter, one lowercase letter,
// one digit and one special character.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLen)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(`!@#$%^&*()_+-=[]{};':"\|,.<>/?`, r):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf(
			"password must contain at least one uppercase letter, one lowercase letter, one digit, and one special character")
	}

	return nil
}

// NormalizeEmail trims whitespace and lowercases the address.
// Every email comparison and cache key in the system goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
