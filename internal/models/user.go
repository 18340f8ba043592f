package models

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. It is fixed at creation and only
// changed through the admin-gated assign-role operation.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// ParseRole validates a role string against the closed enum
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStudent, RoleInstructor:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// LoginType identifies which credential path an account was created through.
// It is immutable after the first successful authentication via that path.
type LoginType string

const (
	LoginTypeEmailPassword LoginType = "email_password"
	LoginTypeGoogle        LoginType = "google"
	LoginTypeGitHub        LoginType = "github"
)

// ParseLoginType validates a login type string
func ParseLoginType(s string) (LoginType, error) {
	switch LoginType(s) {
	case LoginTypeEmailPassword, LoginTypeGoogle, LoginTypeGitHub:
		return LoginType(s), nil
	}
	return "", fmt.Errorf("invalid login type: %q", s)
}

// User represents an account: identity plus credential material. The token
// hash fields hold sha256 digests of single-use action tokens, never the
// values handed to the client.
type User struct {
	ID              int64
	Username        string
	Email           string
	FullName        string
	Role            Role
	PasswordHash    string
	LoginType       LoginType
	OAuthSubject    string
	IsEmailVerified bool

	EmailVerifyTokenHash   string
	EmailVerifyExpiry      *time.Time
	PasswordResetTokenHash string
	PasswordResetExpiry    *time.Time

	// RefreshToken is the single currently-valid refresh token for the
	// account. Overwritten on every login and refresh, cleared on logout.
	RefreshToken string

	Bio       string
	Gender    string
	Instagram string
	Twitter   string
	LinkedIn  string
	AvatarURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the sanitized account view returned by the API. Password
// hashes, token digests and expiries never leave the core.
type PublicUser struct {
	ID              int64       `json:"id"`
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	FullName        string      `json:"fullName"`
	Role            Role        `json:"role"`
	LoginType       LoginType   `json:"loginType"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	Bio             string      `json:"bio,omitempty"`
	Gender          string      `json:"gender,omitempty"`
	SocialLinks     SocialLinks `json:"socialLinks"`
	AvatarURL       string      `json:"avatarUrl,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// SocialLinks groups the optional profile links
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// Sanitized returns the public view of the account
func (u *User) Sanitized() *PublicUser {
	return &PublicUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		Role:            u.Role,
		LoginType:       u.LoginType,
		IsEmailVerified: u.IsEmailVerified,
		Bio:             u.Bio,
		Gender:          u.Gender,
		SocialLinks: SocialLinks{
			Instagram: u.Instagram,
			Twitter:   u.Twitter,
			LinkedIn:  u.LinkedIn,
		},
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
