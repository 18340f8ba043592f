package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/security"
	"courseforge/internal/token"
)

// contextKey is unexported so no other package can collide with our keys
type contextKey int

const userContextKey contextKey = iota

// Middleware holds dependencies for middleware functions
type Middleware struct {
	codec    *token.Codec
	userRepo *repository.UserRepository
	limiter  *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(codec *token.Codec, userRepo *repository.UserRepository, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		codec:    codec,
		userRepo: userRepo,
		limiter:  limiter,
	}
}

// accessTokenFrom extracts the presented access token: cookie first, then the
// Authorization header for non-browser clients.
func accessTokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(security.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireAuth verifies the access token and attaches the account to the
// request context. Every failure collapses to the same 401; the specific
// reason is only logged.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deny := func(reason string) {
			log.Printf("Auth rejected: %s (%s %s)", reason, r.Method, r.URL.Path)
			respondWithError(w, http.StatusUnauthorized, "Invalid access token", "", nil)
		}

		presented := accessTokenFrom(r)
		if presented == "" {
			deny("no token presented")
			return
		}

		claims, err := m.codec.ParseAccess(presented)
		if err != nil {
			deny("token verification failed")
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			deny("malformed subject claim")
			return
		}

		user, err := m.userRepo.GetByID(userID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Internal server error", "Error loading account", err)
			return
		}
		if user == nil {
			deny("account no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole gates a handler behind a role, after RequireAuth
func (m *Middleware) RequireRole(role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r)
		if user == nil || user.Role != role {
			respondWithError(w, http.StatusForbidden, "Forbidden", "", nil)
			return
		}
		next(w, r)
	})
}

// RateLimit applies the IP-keyed limiter to credential endpoints
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.ClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, try again later", "", nil)
			return
		}
		next(w, r)
	}
}

// UserFromContext returns the authenticated account, or nil outside RequireAuth
func UserFromContext(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
