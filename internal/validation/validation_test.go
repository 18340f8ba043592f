package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "test@example.com", false},
		{"valid with plus", "user+tag@example.co.uk", false},
		{"empty", "", true},
		{"missing at", "testexample.com", true},
		{"missing domain", "test@", true},
		{"missing tld", "test@example", true},
		{"spaces around valid", "  test@example.com  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "maria_88", false},
		{"uppercase is normalized", "Maria", false},
		{"with dots and dashes", "m.a-r", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 31), true},
		{"empty", "", true},
		{"illegal characters", "maria!", true},
		{"spaces", "ma ria", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "pw12345", false},
		{"exactly minimum", "12345", false},
		{"too short", "1234", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFullName(t *testing.T) {
	if err := ValidateFullName("Maria Jones"); err != nil {
		t.Errorf("ValidateFullName() error = %v for a valid name", err)
	}
	if err := ValidateFullName(""); err == nil {
		t.Error("ValidateFullName() accepted an empty name")
	}
	if err := ValidateFullName("   "); err == nil {
		t.Error("ValidateFullName() accepted whitespace")
	}
	if err := ValidateFullName("X"); err == nil {
		t.Error("ValidateFullName() accepted a single character")
	}
}

func TestValidateActionToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid lowercase hex", strings.Repeat("ab", 20), false},
		{"valid mixed case", strings.Repeat("Ab", 20), false},
		{"empty", "", true},
		{"too short", strings.Repeat("a", 39), true},
		{"too long", strings.Repeat("a", 41), true},
		{"non-hex characters", strings.Repeat("zz", 20), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateActionToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateActionToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Field: "email", Message: "email is required"}
	if err.Error() != "email: email is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
