package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"courseforge/internal/database"
)

// BackupData represents the complete database backup structure. Live session
// state (refresh tokens, action token digests and expiries) is deliberately
// not part of a backup; restored accounts start logged out.
type BackupData struct {
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"exported_at"`
	DatabaseType string         `json:"database_type"`
	Users        []UserBackup   `json:"users"`
	Courses      []CourseBackup `json:"courses"`
	Modules      []ModuleBackup `json:"modules"`
}

// UserBackup represents an account record for backup
type UserBackup struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Role            string    `json:"role"`
	PasswordHash    string    `json:"password_hash"`
	LoginType       string    `json:"login_type"`
	OAuthSubject    string    `json:"oauth_subject"`
	IsEmailVerified bool      `json:"is_email_verified"`
	Bio             string    `json:"bio"`
	Gender          string    `json:"gender"`
	Instagram       string    `json:"instagram"`
	Twitter         string    `json:"twitter"`
	LinkedIn        string    `json:"linkedin"`
	AvatarURL       string    `json:"avatar_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CourseBackup represents a course record for backup
type CourseBackup struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID int64     `json:"instructor_id"`
	Price        float64   `json:"price"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	Duration     string    `json:"duration"`
	Language     string    `json:"language"`
	Requirements string    `json:"requirements"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Rating       float64   `json:"rating"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ModuleBackup represents a module record for backup
type ModuleBackup struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BackupService exports and imports the database as portable JSON
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return s.ExportToWriter(file)
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportCourses(backup); err != nil {
		return fmt.Errorf("failed to export courses: %w", err)
	}
	if err := s.exportModules(backup); err != nil {
		return fmt.Errorf("failed to export modules: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d courses, %d modules",
		len(backup.Users), len(backup.Courses), len(backup.Modules))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// A single transaction so a half-imported backup never survives.
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	// Import in dependency order: users before courses before modules.
	if err := s.importUsers(tx, backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importCourses(tx, backup.Courses); err != nil {
		return fmt.Errorf("failed to import courses: %w", err)
	}
	if err := s.importModules(tx, backup.Modules); err != nil {
		return fmt.Errorf("failed to import modules: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := `SELECT id, username, email, full_name, role, password_hash, login_type,
		COALESCE(oauth_subject, ''), is_email_verified,
		COALESCE(bio, ''), COALESCE(gender, ''), COALESCE(instagram, ''),
		COALESCE(twitter, ''), COALESCE(linkedin, ''), COALESCE(avatar_url, ''),
		created_at, updated_at FROM users ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role,
			&u.PasswordHash, &u.LoginType, &u.OAuthSubject, &u.IsEmailVerified,
			&u.Bio, &u.Gender, &u.Instagram, &u.Twitter, &u.LinkedIn, &u.AvatarURL,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportCourses(backup *BackupData) error {
	query := `SELECT id, title, COALESCE(description, ''), instructor_id, price,
		COALESCE(category, ''), COALESCE(level, ''), COALESCE(duration, ''),
		COALESCE(language, ''), COALESCE(requirements, ''), COALESCE(thumbnail_url, ''),
		rating, is_published, created_at, updated_at FROM courses ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c CourseBackup
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.Price,
			&c.Category, &c.Level, &c.Duration, &c.Language, &c.Requirements,
			&c.ThumbnailURL, &c.Rating, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		backup.Courses = append(backup.Courses, c)
	}
	return rows.Err()
}

func (s *BackupService) exportModules(backup *BackupData) error {
	query := `SELECT id, course_id, title, COALESCE(description, ''), position,
		created_at, updated_at FROM modules ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m ModuleBackup
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return err
		}
		backup.Modules = append(backup.Modules, m)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(tx database.DBTX, users []UserBackup) error {
	query := `INSERT INTO users (id, username, email, full_name, role, password_hash, login_type,
		oauth_subject, is_email_verified, bio, gender, instagram, twitter, linkedin, avatar_url,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range users {
		_, err := tx.Exec(query, u.ID, u.Username, u.Email, u.FullName, u.Role,
			u.PasswordHash, u.LoginType, nullIfEmpty(u.OAuthSubject), u.IsEmailVerified,
			nullIfEmpty(u.Bio), nullIfEmpty(u.Gender), nullIfEmpty(u.Instagram),
			nullIfEmpty(u.Twitter), nullIfEmpty(u.LinkedIn), nullIfEmpty(u.AvatarURL),
			u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	log.Printf("Imported %d users", len(users))
	return nil
}

func (s *BackupService) importCourses(tx database.DBTX, courses []CourseBackup) error {
	query := `INSERT INTO courses (id, title, description, instructor_id, price, category, level,
		duration, language, requirements, thumbnail_url, rating, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range courses {
		_, err := tx.Exec(query, c.ID, c.Title, nullIfEmpty(c.Description), c.InstructorID,
			c.Price, nullIfEmpty(c.Category), nullIfEmpty(c.Level), nullIfEmpty(c.Duration),
			nullIfEmpty(c.Language), nullIfEmpty(c.Requirements), nullIfEmpty(c.ThumbnailURL),
			c.Rating, c.IsPublished, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("course %d: %w", c.ID, err)
		}
	}
	log.Printf("Imported %d courses", len(courses))
	return nil
}

func (s *BackupService) importModules(tx database.DBTX, modules []ModuleBackup) error {
	query := `INSERT INTO modules (id, course_id, title, description, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, m := range modules {
		_, err := tx.Exec(query, m.ID, m.CourseID, m.Title, nullIfEmpty(m.Description),
			m.Position, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("module %d: %w", m.ID, err)
		}
	}
	log.Printf("Imported %d modules", len(modules))
	return nil
}

// nullIfEmpty converts an empty string to NULL for optional columns
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
