package handlers

import (
	"net/http"
	"strconv"

	"courseforge/internal/security"
	"courseforge/internal/service"
)

// AuthHandler exposes the session lifecycle endpoints
type AuthHandler struct {
	authService   *service.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// setTokenCookies installs the pair as HttpOnly cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, security.NewTokenCookie(security.AccessTokenCookie, pair.AccessToken, pair.AccessExpires, h.secureCookies))
	http.SetCookie(w, security.NewTokenCookie(security.RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpires, h.secureCookies))
}

// clearTokenCookies removes both cookies
func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, security.NewDeleteCookie(security.AccessTokenCookie, h.secureCookies))
	http.SetCookie(w, security.NewDeleteCookie(security.RefreshTokenCookie, h.secureCookies))
}

// sessionPayload is the body echoed alongside the cookies so non-browser
// clients can carry the tokens themselves
type sessionPayload struct {
	User         interface{} `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.FullName, req.Password, req.Role)
	if err != nil {
		respondServiceError(w, err, "Error registering account")
		return
	}

	respondOK(w, http.StatusCreated, user.Sanitized(), "Account created, check your email to verify it")
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		identifier = req.Email
	}

	user, pair, err := h.authService.Login(identifier, req.Password)
	if err != nil {
		respondServiceError(w, err, "Error logging in")
		return
	}

	h.setTokenCookies(w, pair)
	respondOK(w, http.StatusOK, sessionPayload{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Logged in")
}

// Logout handles POST /api/v1/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if err := h.authService.Logout(user.ID); err != nil {
		respondServiceError(w, err, "Error logging out")
		return
	}

	h.clearTokenCookies(w)
	respondOK(w, http.StatusOK, nil, "Logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The presented token
// comes from the cookie or, for non-browser clients, the body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(security.RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(r, &req); err == nil {
			presented = req.RefreshToken
		}
	}

	user, pair, err := h.authService.Refresh(presented)
	if err != nil {
		h.clearTokenCookies(w)
		respondServiceError(w, err, "Error refreshing session")
		return
	}

	h.setTokenCookies(w, pair)
	respondOK(w, http.StatusOK, sessionPayload{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Session refreshed")
}

// VerifyEmail handles GET /api/v1/users/verify-email/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.VerifyEmail(r.PathValue("token"))
	if err != nil {
		respondServiceError(w, err, "Error verifying email")
		return
	}
	respondOK(w, http.StatusOK, user.Sanitized(), "Email verified")
}

// ResendEmailVerification handles POST /api/v1/users/resend-email-verification
func (h *AuthHandler) ResendEmailVerification(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if err := h.authService.ResendEmailVerification(r.Context(), user.ID); err != nil {
		respondServiceError(w, err, "Error resending verification email")
		return
	}
	respondOK(w, http.StatusOK, nil, "Verification email sent")
}

// ChangePassword handles POST /api/v1/users/change-password. On success the
// refresh token is gone server-side; the client must log in again.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	user := UserFromContext(r)
	if err := h.authService.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(w, err, "Error changing password")
		return
	}
	respondOK(w, http.StatusOK, nil, "Password changed, please log in again")
}

// AssignRole handles POST /api/v1/users/assign-role/{userId} (admin only)
func (h *AuthHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user id", "", nil)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	user, err := h.authService.AssignRole(userID, req.Role)
	if err != nil {
		respondServiceError(w, err, "Error assigning role")
		return
	}
	respondOK(w, http.StatusOK, user.Sanitized(), "Role updated")
}

// ForgotPassword handles POST /api/v1/users/forgot-password. The response is
// identical whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondServiceError(w, err, "Error requesting password reset")
		return
	}
	respondOK(w, http.StatusOK, nil, "If the email exists, a reset link has been sent")
}

// ResetPassword handles POST /api/v1/users/forgot-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	if err := h.authService.ResetPassword(r.PathValue("token"), req.Password); err != nil {
		respondServiceError(w, err, "Error resetting password")
		return
	}
	respondOK(w, http.StatusOK, nil, "Password reset, please log in")
}
