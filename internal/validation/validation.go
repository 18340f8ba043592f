package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 5

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex   = regexp.MustCompile(`^[a-z0-9._\-]{3,30}$`)
	hexTokenPattern = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
)

// ValidationError represents a request-shape validation failure on one field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks the username shape. Usernames are stored lowercase;
// the caller normalizes before persisting.
func ValidateUsername(username string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username must be 3-30 characters: letters, digits, '.', '_' or '-'"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// ValidateFullName checks if a full name is valid
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "fullName", Message: "full name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "fullName", Message: "full name must be at least 2 characters"}
	}
	return nil
}

// ValidateIdentifier accepts either a username or an email for login
func ValidateIdentifier(identifier string) error {
	if strings.TrimSpace(identifier) == "" {
		return ValidationError{Field: "identifier", Message: "username or email is required"}
	}
	return nil
}

// ValidateActionToken checks the shape of a verification/reset token before
// any digest work happens: 40 hex characters, matching what the server issues.
func ValidateActionToken(token string) error {
	if token == "" {
		return ValidationError{Field: "token", Message: "token is required"}
	}
	if !hexTokenPattern.MatchString(token) {
		return ValidationError{Field: "token", Message: "malformed token"}
	}
	return nil
}
