package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// actionTokenBytes is the entropy of a single-use action token. 20 bytes
// yields a 40-character hex value handed to the client.
const actionTokenBytes = 20

// ActionToken is a single-use, time-boxed credential for email verification
// and password reset. ClientValue goes out through the mail channel; only
// Digest and ExpiresAt are stored server-side.
type ActionToken struct {
	ClientValue string
	Digest      string
	ExpiresAt   time.Time
}

// NewActionToken generates a fresh action token valid for ttl
func NewActionToken(ttl time.Duration) (*ActionToken, error) {
	buf := make([]byte, actionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	clientValue := hex.EncodeToString(buf)
	return &ActionToken{
		ClientValue: clientValue,
		Digest:      ActionTokenDigest(clientValue),
		ExpiresAt:   time.Now().Add(ttl),
	}, nil
}

// ActionTokenDigest re-derives the stored digest from a presented client value
func ActionTokenDigest(clientValue string) string {
	sum := sha256.Sum256([]byte(clientValue))
	return hex.EncodeToString(sum[:])
}

// VerifyActionToken reports whether clientValue matches storedDigest and the
// token has not expired. The digest comparison is constant-time.
func VerifyActionToken(clientValue, storedDigest string, expiresAt time.Time) bool {
	if clientValue == "" || storedDigest == "" {
		return false
	}
	if !time.Now().Before(expiresAt) {
		return false
	}
	derived := ActionTokenDigest(clientValue)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(storedDigest)) == 1
}
