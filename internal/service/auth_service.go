package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/security"
	"courseforge/internal/token"
	"courseforge/internal/validation"
)

var (
	// ErrIdentityTaken maps to 409 at the HTTP layer
	ErrIdentityTaken = errors.New("username or email already in use")
	// ErrUnknownAccount maps to 404: login with an identifier nobody owns
	ErrUnknownAccount = errors.New("account not found")
	// ErrWrongLoginType maps to 400: the account was created through a
	// different provider and holds no usable password
	ErrWrongLoginType = errors.New("account uses a different sign-in method")
	// ErrInvalidCredentials maps to 401: known identifier, wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized maps to 401: refresh or access token rejected. All
	// refresh failures collapse here so a replayed token learns nothing.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenInvalidOrExpired maps to 400: action token unknown, expired or
	// already consumed
	ErrTokenInvalidOrExpired = errors.New("token is invalid or has expired")
	// ErrAlreadyVerified maps to 409 on resend-verification
	ErrAlreadyVerified = errors.New("email is already verified")
	// ErrProviderMismatch maps to 409: email already bound to another provider
	ErrProviderMismatch = errors.New("email is linked to a different sign-in method")
	// ErrAccountNotFound maps to 404 on operations addressing an account by id
	ErrAccountNotFound = errors.New("account not found")
)

// TokenPair is the signed pair handed out on login, refresh and OAuth
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// AuthService owns the session lifecycle: registration, the token pair,
// rotation, and the single-use email verification and password reset flows.
type AuthService struct {
	userRepo       *repository.UserRepository
	codec          *token.Codec
	email          *EmailService
	actionTokenTTL time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, codec *token.Codec, email *EmailService, actionTokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		codec:          codec,
		email:          email,
		actionTokenTTL: actionTokenTTL,
	}
}

// Register creates a new account and dispatches the verification email.
// The public endpoint never creates admins: the role must parse through the
// closed enum and admin is rejected outright.
func (s *AuthService) Register(ctx context.Context, username, email, fullName, password, role string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	accountRole := models.RoleStudent
	if role != "" {
		parsed, err := models.ParseRole(role)
		if err != nil || parsed == models.RoleAdmin {
			return nil, validation.ValidationError{Field: "role", Message: "role must be student or instructor"}
		}
		accountRole = parsed
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Role:         accountRole,
		PasswordHash: passwordHash,
		LoginType:    models.LoginTypeEmailPassword,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			return nil, ErrIdentityTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// Mail dispatch never rolls back the account; a failed send is logged
	// and the client can use resend-email-verification.
	if err := s.issueVerification(ctx, user); err != nil {
		log.Printf("Failed to issue verification token for user %d: %v", user.ID, err)
	}

	return user, nil
}

// Login authenticates a password credential and issues a fresh token pair.
// The stored refresh token is overwritten, ending any previous session.
func (s *AuthService) Login(identifier, password string) (*models.User, *TokenPair, error) {
	if err := validation.ValidateIdentifier(identifier); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByIdentifier(identifier)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUnknownAccount
	}
	if user.LoginType != models.LoginTypeEmailPassword {
		return nil, nil, fmt.Errorf("%w: sign in with %s", ErrWrongLoginType, user.LoginType)
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.SetRefreshToken(user.ID, pair.RefreshToken); err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a presented refresh token and rotates it. The presented
// value must be the account's current stored token, and the swap to the next
// value is a conditional update, so of two concurrent refreshes carrying the
// same token exactly one wins. Every failure collapses to ErrUnauthorized.
func (s *AuthService) Refresh(presented string) (*models.User, *TokenPair, error) {
	if presented == "" {
		return nil, nil, ErrUnauthorized
	}

	userID, err := s.codec.ParseRefresh(presented)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil || user.RefreshToken == "" || user.RefreshToken != presented {
		return nil, nil, ErrUnauthorized
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	rotated, err := s.userRepo.RotateRefreshToken(user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, nil, err
	}
	if !rotated {
		// Lost the race to a concurrent refresh or a logout.
		return nil, nil, ErrUnauthorized
	}
	return user, pair, nil
}

// Logout ends the session by clearing the stored refresh token. Idempotent:
// logging out twice is not an error.
func (s *AuthService) Logout(userID int64) error {
	return s.userRepo.ClearRefreshToken(userID)
}

// ChangePassword verifies the old password and installs the new one. The
// stored refresh token is cleared with it, so the session cannot be extended
// with the old credential; the client logs in again.
func (s *AuthService) ChangePassword(userID int64, oldPassword, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return ErrAccountNotFound
	}
	if !security.CheckPassword(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(userID, newHash)
}

// VerifyEmail consumes a verification token. The conditional update in the
// repository makes the token single-use under concurrency.
func (s *AuthService) VerifyEmail(clientToken string) (*models.User, error) {
	if err := validation.ValidateActionToken(clientToken); err != nil {
		return nil, ErrTokenInvalidOrExpired
	}

	digest := security.ActionTokenDigest(clientToken)
	user, err := s.userRepo.ConsumeEmailVerifyToken(digest, time.Now())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrTokenInvalidOrExpired
	}
	return user, nil
}

// ResendEmailVerification re-issues the verification token for an account
// that has not verified yet. Re-issuing invalidates any earlier token.
func (s *AuthService) ResendEmailVerification(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return ErrAccountNotFound
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	return s.issueVerification(ctx, user)
}

// RequestPasswordReset issues a reset token when the email belongs to an
// account. The caller always gets a uniform acknowledgement; whether mail was
// actually sent is never revealed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		log.Printf("Password reset requested for unknown email")
		return nil
	}

	at, err := security.NewActionToken(s.actionTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.userRepo.SetPasswordResetToken(user.ID, at.Digest, at.ExpiresAt); err != nil {
		return err
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.FullName, at.ClientValue); err != nil {
		log.Printf("Failed to send password reset email to user %d: %v", user.ID, err)
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// consume also clears the stored refresh token, ending the active session.
func (s *AuthService) ResetPassword(clientToken, newPassword string) error {
	if err := validation.ValidateActionToken(clientToken); err != nil {
		return ErrTokenInvalidOrExpired
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	digest := security.ActionTokenDigest(clientToken)
	user, err := s.userRepo.ConsumePasswordResetToken(digest, newHash, time.Now())
	if err != nil {
		return err
	}
	if user == nil {
		return ErrTokenInvalidOrExpired
	}
	return nil
}

// AssignRole changes an account's role. Admin gating happens in the handler
// middleware; this is the mutation only.
func (s *AuthService) AssignRole(userID int64, role string) (*models.User, error) {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, validation.ValidationError{Field: "role", Message: "role must be admin, student or instructor"}
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	if err := s.userRepo.UpdateRole(userID, parsed); err != nil {
		return nil, err
	}
	user.Role = parsed
	return user, nil
}

// OAuthLogin signs in or provisions an account from a verified provider
// identity. An existing email bound to a different provider is rejected;
// login type is immutable once set.
func (s *AuthService) OAuthLogin(provider models.LoginType, subject, email, fullName string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}

	if user == nil && email != "" {
		existing, err := s.userRepo.GetByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get account: %w", err)
		}
		if existing != nil {
			if existing.LoginType != provider {
				return nil, nil, ErrProviderMismatch
			}
			user = existing
		}
	}

	if user == nil {
		// Provision a fresh account. The password hash is random filler; a
		// provider-backed account never authenticates with a password.
		filler, err := security.HashPassword(uuid.New().String())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user = &models.User{
			Username:        oauthUsername(email, subject),
			Email:           email,
			FullName:        fullName,
			Role:            models.RoleStudent,
			PasswordHash:    filler,
			LoginType:       provider,
			OAuthSubject:    subject,
			IsEmailVerified: true,
		}
		if err := s.userRepo.Create(user); err != nil {
			if errors.Is(err, repository.ErrDuplicateIdentity) {
				return nil, nil, ErrIdentityTaken
			}
			return nil, nil, fmt.Errorf("failed to create account: %w", err)
		}
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.SetRefreshToken(user.ID, pair.RefreshToken); err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// issuePair signs a fresh access/refresh pair for the account
func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, accessExp, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

// issueVerification stores a fresh verification token and sends the mail
func (s *AuthService) issueVerification(ctx context.Context, user *models.User) error {
	at, err := security.NewActionToken(s.actionTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}
	if err := s.userRepo.SetEmailVerifyToken(user.ID, at.Digest, at.ExpiresAt); err != nil {
		return err
	}
	if err := s.email.SendVerificationEmail(ctx, user.Email, user.FullName, at.ClientValue); err != nil {
		log.Printf("Failed to send verification email to user %d: %v", user.ID, err)
	}
	return nil
}

// oauthUsername derives a username from the provider identity. Collisions are
// caught by the unique index and surface as ErrIdentityTaken.
func oauthUsername(email, subject string) string {
	if email != "" {
		for i, c := range email {
			if c == '@' {
				base := email[:i]
				if len(base) >= 3 {
					return base
				}
				break
			}
		}
	}
	return "user-" + subject
}
