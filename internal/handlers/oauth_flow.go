package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"courseforge/internal/models"
	"courseforge/internal/security"
	"courseforge/internal/service"
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	LoginType   models.LoginType
	Config      *oauth2.Config
	UserInfoURL string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// OAuthHandler runs the social login flow for Google and GitHub
type OAuthHandler struct {
	authService   *service.AuthService
	providers     map[string]OAuthProvider
	redirectBase  string
	appBaseURL    string
	secureCookies bool
}

// OAuthConfig carries the provider credentials from the environment
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	RedirectBase       string
	AppBaseURL         string
}

// NewOAuthHandler creates a new OAuth handler. Providers without credentials
// stay unregistered and their routes answer 400.
func NewOAuthHandler(authService *service.AuthService, cfg OAuthConfig, secureCookies bool) *OAuthHandler {
	providers := make(map[string]OAuthProvider)

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers["google"] = OAuthProvider{
			LoginType: models.LoginTypeGoogle,
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		}
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		providers["github"] = OAuthProvider{
			LoginType: models.LoginTypeGitHub,
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				Endpoint:     github.Endpoint,
				Scopes:       []string{"read:user", "user:email"},
			},
			UserInfoURL: "https://api.github.com/user",
		}
	}

	return &OAuthHandler{
		authService:   authService,
		providers:     providers,
		redirectBase:  strings.TrimRight(cfg.RedirectBase, "/"),
		appBaseURL:    cfg.AppBaseURL,
		secureCookies: secureCookies,
	}
}

// Start handles GET /api/v1/users/oauth/{provider}/start
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.providers[providerKey]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := uuid.New().String()
	h.setTempCookie(w, "oauth_state", state, 10*time.Minute)
	h.setTempCookie(w, "oauth_provider", providerKey, 10*time.Minute)

	config := *provider.Config
	config.RedirectURL = h.callbackURL(r, providerKey)

	http.Redirect(w, r, config.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// Callback handles GET /api/v1/users/oauth/{provider}/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.providers[providerKey]
	if !ok {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	if providerCookie, err := r.Cookie("oauth_provider"); err == nil && providerCookie.Value != providerKey {
		respondWithError(w, http.StatusBadRequest, "OAuth provider mismatch", "", nil)
		return
	}

	h.clearTempCookie(w, "oauth_state")
	h.clearTempCookie(w, "oauth_provider")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.callbackURL(r, providerKey)

	exchanged, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	userInfo, err := h.fetchUserInfo(ctx, providerKey, provider, exchanged)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to fetch provider profile", "OAuth user info failed", err)
		return
	}

	user, pair, err := h.authService.OAuthLogin(provider.LoginType, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		respondServiceError(w, err, "Error completing OAuth login")
		return
	}

	http.SetCookie(w, security.NewTokenCookie(security.AccessTokenCookie, pair.AccessToken, pair.AccessExpires, h.secureCookies))
	http.SetCookie(w, security.NewTokenCookie(security.RefreshTokenCookie, pair.RefreshToken, pair.RefreshExpires, h.secureCookies))

	if h.appBaseURL != "" {
		http.Redirect(w, r, h.appBaseURL, http.StatusSeeOther)
		return
	}
	respondOK(w, http.StatusOK, sessionPayload{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Logged in")
}

func (h *OAuthHandler) fetchUserInfo(ctx context.Context, providerKey string, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	switch providerKey {
	case "google":
		return h.fetchGoogleUser(ctx, provider, token)
	case "github":
		return h.fetchGitHubUser(ctx, provider, token)
	default:
		return oauthUserInfo{}, errors.New("unsupported OAuth provider")
	}
}

func (h *OAuthHandler) fetchGoogleUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, errors.New("failed to fetch Google user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, errors.New("failed to fetch Google user info")
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, errors.New("failed to parse Google user info")
	}
	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *OAuthHandler) fetchGitHubUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, errors.New("failed to fetch GitHub user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, errors.New("failed to fetch GitHub user info")
	}

	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, errors.New("failed to parse GitHub user info")
	}

	email := payload.Email
	if email == "" {
		// Many GitHub profiles hide the public email; ask the emails API.
		email, _ = h.fetchGitHubPrimaryEmail(ctx, client)
	}

	name := payload.Name
	if name == "" {
		name = payload.Login
	}
	return oauthUserInfo{Subject: fmt.Sprintf("%d", payload.ID), Email: email, Name: name}, nil
}

func (h *OAuthHandler) fetchGitHubPrimaryEmail(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.github.com/user/emails", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("failed to fetch GitHub emails")
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func (h *OAuthHandler) callbackURL(r *http.Request, providerKey string) string {
	base := h.redirectBase
	if base == "" {
		scheme := "http"
		if r.TLS != nil || h.secureCookies {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/api/v1/users/oauth/%s/callback", base, providerKey)
}

func (h *OAuthHandler) setTempCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *OAuthHandler) clearTempCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
