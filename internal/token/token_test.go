package token

import (
	"strings"
	"testing"
	"time"

	"courseforge/internal/models"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "courseforge-test",
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return codec
}

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "maria",
		Email:    "maria@example.com",
		Role:     models.RoleInstructor,
	}
}

func TestNewCodecValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty secrets", Config{AccessTTL: time.Minute, RefreshTTL: time.Hour}},
		{"same secrets", Config{AccessSecret: "s", RefreshSecret: "s", AccessTTL: time.Minute, RefreshTTL: time.Hour}},
		{"zero access TTL", Config{AccessSecret: "a", RefreshSecret: "b", RefreshTTL: time.Hour}},
		{"zero refresh TTL", Config{AccessSecret: "a", RefreshSecret: "b", AccessTTL: time.Minute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCodec(tt.cfg); err == nil {
				t.Error("NewCodec() accepted an invalid config")
			}
		})
	}
}

func TestIssueAndParseAccess(t *testing.T) {
	codec := testCodec(t)

	signed, expiresAt, err := codec.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Error("access token expired at issue")
	}

	claims, err := codec.ParseAccess(signed)
	if err != nil {
		t.Fatalf("ParseAccess() error = %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("subject = %q, want 42", claims.Subject)
	}
	if claims.Username != "maria" || claims.Email != "maria@example.com" || claims.Role != "instructor" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestIssueAndParseRefresh(t *testing.T) {
	codec := testCodec(t)

	signed, _, err := codec.IssueRefresh(42)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	userID, err := codec.ParseRefresh(signed)
	if err != nil {
		t.Fatalf("ParseRefresh() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

func TestRefreshTokensAreDistinct(t *testing.T) {
	codec := testCodec(t)

	a, _, err := codec.IssueRefresh(1)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}
	b, _, err := codec.IssueRefresh(1)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}
	if a == b {
		t.Error("two refresh tokens issued for the same account must differ")
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	codec := testCodec(t)

	access, _, err := codec.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	refresh, _, err := codec.IssueRefresh(42)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	if _, err := codec.ParseRefresh(access); err == nil {
		t.Error("access token accepted as a refresh token")
	}
	if _, err := codec.ParseAccess(refresh); err == nil {
		t.Error("refresh token accepted as an access token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	codec := testCodec(t)

	inputs := []string{"", "not-a-token", "aaa.bbb.ccc"}
	for _, input := range inputs {
		if _, err := codec.ParseAccess(input); err == nil {
			t.Errorf("ParseAccess(%q) accepted garbage", input)
		}
		if _, err := codec.ParseRefresh(input); err == nil {
			t.Errorf("ParseRefresh(%q) accepted garbage", input)
		}
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	codec := testCodec(t)

	signed, _, err := codec.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	// Corrupt the signature segment
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d segments", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := codec.ParseAccess(tampered); err == nil {
		t.Error("ParseAccess() accepted a tampered signature")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	codec, err := NewCodec(Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     time.Nanosecond,
		RefreshTTL:    time.Nanosecond,
		Issuer:        "courseforge-test",
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}

	signed, _, err := codec.IssueAccess(testUser())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := codec.ParseAccess(signed); err == nil {
		t.Error("ParseAccess() accepted an expired token")
	}
}
