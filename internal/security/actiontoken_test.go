package security

import (
	"regexp"
	"testing"
	"time"
)

func TestNewActionToken(t *testing.T) {
	at, err := NewActionToken(5 * time.Minute)
	if err != nil {
		t.Fatalf("NewActionToken() error = %v", err)
	}

	if !regexp.MustCompile(`^[a-f0-9]{40}$`).MatchString(at.ClientValue) {
		t.Errorf("client value %q is not 40 hex characters", at.ClientValue)
	}
	if len(at.Digest) != 64 {
		t.Errorf("digest length = %d, want 64", len(at.Digest))
	}
	if at.Digest == at.ClientValue {
		t.Error("digest must not equal the client value")
	}
	if at.Digest != ActionTokenDigest(at.ClientValue) {
		t.Error("digest does not re-derive from the client value")
	}
	if !at.ExpiresAt.After(time.Now()) {
		t.Error("token already expired at issue")
	}
}

func TestNewActionTokenUnique(t *testing.T) {
	a, err := NewActionToken(time.Minute)
	if err != nil {
		t.Fatalf("NewActionToken() error = %v", err)
	}
	b, err := NewActionToken(time.Minute)
	if err != nil {
		t.Fatalf("NewActionToken() error = %v", err)
	}
	if a.ClientValue == b.ClientValue {
		t.Error("two tokens should never collide")
	}
}

func TestVerifyActionToken(t *testing.T) {
	at, err := NewActionToken(5 * time.Minute)
	if err != nil {
		t.Fatalf("NewActionToken() error = %v", err)
	}

	tests := []struct {
		name        string
		clientValue string
		digest      string
		expiresAt   time.Time
		want        bool
	}{
		{"valid", at.ClientValue, at.Digest, at.ExpiresAt, true},
		{"wrong value", "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", at.Digest, at.ExpiresAt, false},
		{"expired", at.ClientValue, at.Digest, time.Now().Add(-time.Second), false},
		{"empty value", "", at.Digest, at.ExpiresAt, false},
		{"empty digest", at.ClientValue, "", at.ExpiresAt, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyActionToken(tt.clientValue, tt.digest, tt.expiresAt); got != tt.want {
				t.Errorf("VerifyActionToken() = %v, want %v", got, tt.want)
			}
		})
	}
}
