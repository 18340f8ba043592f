package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"courseforge/internal/database"
	"courseforge/internal/models"
)

// ErrDuplicateIdentity signals a unique-constraint collision on username or
// email. The service layer maps it to a Conflict response.
var ErrDuplicateIdentity = errors.New("username or email already in use")

const userColumns = `id, username, email, full_name, role, password_hash, login_type,
		COALESCE(oauth_subject, ''), is_email_verified,
		COALESCE(email_verify_token_hash, ''), email_verify_expiry,
		COALESCE(password_reset_token_hash, ''), password_reset_expiry,
		COALESCE(refresh_token, ''),
		COALESCE(bio, ''), COALESCE(gender, ''), COALESCE(instagram, ''),
		COALESCE(twitter, ''), COALESCE(linkedin, ''), COALESCE(avatar_url, ''),
		created_at, updated_at`

// UserRepository handles database operations for accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. Username and email are stored lowercase; the
// unique indexes are the backstop against concurrent duplicate registration.
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (username, email, full_name, role, password_hash, login_type, oauth_subject, is_email_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		strings.ToLower(user.Username),
		strings.ToLower(user.Email),
		user.FullName,
		string(user.Role),
		user.PasswordHash,
		string(user.LoginType),
		nullable(user.OAuthSubject),
		user.IsEmailVerified,
	)
	if err != nil {
		if r.db.IsUniqueViolation(err) {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return nil
}

// GetByID retrieves an account by ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByIdentifier retrieves an account by username or email
func (r *UserRepository) GetByIdentifier(identifier string) (*models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	query := "SELECT " + userColumns + " FROM users WHERE username = ? OR email = ?"
	return r.scanOne(r.db.QueryRow(query, identifier, identifier))
}

// GetByEmail retrieves an account by email address
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanOne(r.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email))))
}

// GetByOAuth retrieves an account by provider login type and subject
func (r *UserRepository) GetByOAuth(loginType models.LoginType, subject string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE login_type = ? AND oauth_subject = ?"
	return r.scanOne(r.db.QueryRow(query, string(loginType), subject))
}

// SetRefreshToken overwrites the account's current refresh token. This is the
// rotation point at login: whatever token was stored before is now invalid.
func (r *UserRepository) SetRefreshToken(userID int64, token string) error {
	query := "UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, token, userID)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken atomically replaces the stored refresh token, but only
// if it still equals previous. Returns false when another request rotated (or
// cleared) it first; the caller must treat that as an unauthorized replay.
func (r *UserRepository) RotateRefreshToken(userID int64, previous, next string) (bool, error) {
	query := `
		UPDATE users SET refresh_token = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND refresh_token = ?
	`
	result, err := r.db.Exec(query, next, userID, previous)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return affected == 1, nil
}

// ClearRefreshToken removes the stored refresh token. Idempotent.
func (r *UserRepository) ClearRefreshToken(userID int64) error {
	query := "UPDATE users SET refresh_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// SetEmailVerifyToken stores the digest and expiry of a pending verification token
func (r *UserRepository) SetEmailVerifyToken(userID int64, digest string, expiresAt time.Time) error {
	query := `
		UPDATE users SET email_verify_token_hash = ?, email_verify_expiry = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, digest, expiresAt, userID); err != nil {
		return fmt.Errorf("failed to set email verify token: %w", err)
	}
	return nil
}

// ConsumeEmailVerifyToken marks the matching account verified and clears the
// token pair in a single conditional update. Returns nil when no live token
// matches the digest, including when a concurrent request consumed it first.
func (r *UserRepository) ConsumeEmailVerifyToken(digest string, now time.Time) (*models.User, error) {
	user, err := r.scanOne(r.db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE email_verify_token_hash = ?", digest))
	if err != nil || user == nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET is_email_verified = ?, email_verify_token_hash = NULL, email_verify_expiry = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND email_verify_token_hash = ? AND email_verify_expiry > ?
	`
	result, err := r.db.Exec(query, true, user.ID, digest, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume email verify token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to consume email verify token: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	user.IsEmailVerified = true
	user.EmailVerifyTokenHash = ""
	user.EmailVerifyExpiry = nil
	return user, nil
}

// SetPasswordResetToken stores the digest and expiry of a pending reset token
func (r *UserRepository) SetPasswordResetToken(userID int64, digest string, expiresAt time.Time) error {
	query := `
		UPDATE users SET password_reset_token_hash = ?, password_reset_expiry = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, digest, expiresAt, userID); err != nil {
		return fmt.Errorf("failed to set password reset token: %w", err)
	}
	return nil
}

// ConsumePasswordResetToken installs the new password hash and clears the
// reset pair plus the current refresh token in one conditional update, so a
// reset both is single-use and ends the active session. Returns nil when no
// live token matches.
func (r *UserRepository) ConsumePasswordResetToken(digest, newPasswordHash string, now time.Time) (*models.User, error) {
	user, err := r.scanOne(r.db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE password_reset_token_hash = ?", digest))
	if err != nil || user == nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET password_hash = ?, password_reset_token_hash = NULL, password_reset_expiry = NULL,
			refresh_token = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND password_reset_token_hash = ? AND password_reset_expiry > ?
	`
	result, err := r.db.Exec(query, newPasswordHash, user.ID, digest, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume password reset token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to consume password reset token: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	user.PasswordHash = newPasswordHash
	user.PasswordResetTokenHash = ""
	user.PasswordResetExpiry = nil
	user.RefreshToken = ""
	return user, nil
}

// UpdatePassword replaces the password hash and clears the current refresh
// token, forcing a fresh login before the session can be extended.
func (r *UserRepository) UpdatePassword(userID int64, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = ?, refresh_token = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, passwordHash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateRole changes the account role. Authorization is the caller's concern.
func (r *UserRepository) UpdateRole(userID int64, role models.Role) error {
	query := "UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, string(role), userID); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// UpdateProfile updates the mutable profile fields
func (r *UserRepository) UpdateProfile(userID int64, fullName, bio, gender, instagram, twitter, linkedin string) error {
	query := `
		UPDATE users
		SET full_name = ?, bio = ?, gender = ?, instagram = ?, twitter = ?, linkedin = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, fullName, bio, gender, instagram, twitter, linkedin, userID); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// UpdateAvatar stores the public URL of the uploaded avatar
func (r *UserRepository) UpdateAvatar(userID int64, avatarURL string) error {
	query := "UPDATE users SET avatar_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, avatarURL, userID); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// scanOne scans a single user row, returning nil, nil when no row matched
func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role, loginType string
	var verifyExpiry, resetExpiry sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&role,
		&user.PasswordHash,
		&loginType,
		&user.OAuthSubject,
		&user.IsEmailVerified,
		&user.EmailVerifyTokenHash,
		&verifyExpiry,
		&user.PasswordResetTokenHash,
		&resetExpiry,
		&user.RefreshToken,
		&user.Bio,
		&user.Gender,
		&user.Instagram,
		&user.Twitter,
		&user.LinkedIn,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = models.Role(role)
	user.LoginType = models.LoginType(loginType)
	if verifyExpiry.Valid {
		user.EmailVerifyExpiry = &verifyExpiry.Time
	}
	if resetExpiry.Valid {
		user.PasswordResetExpiry = &resetExpiry.Time
	}
	return user, nil
}

// nullable converts an empty string to NULL for optional columns
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
