package security

import (
	"net/http"
	"time"
)

// Cookie names for the token pair. Both are HttpOnly; the JSON body echoes
// the same values for non-cookie clients.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// NewTokenCookie creates an HttpOnly cookie carrying a signed token. The
// Secure flag follows the environment, not the individual request, so a
// misconfigured proxy header cannot downgrade it in production.
func NewTokenCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewDeleteCookie creates a cookie that clears the named cookie
func NewDeleteCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
