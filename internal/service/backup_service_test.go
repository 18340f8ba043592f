package service

import (
	"bytes"
	"testing"

	"courseforge/internal/models"
	"courseforge/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	source := newTestDB(t)
	userRepo := repository.NewUserRepository(source)
	courseRepo := repository.NewCourseRepository(source)
	moduleRepo := repository.NewModuleRepository(source)

	instructor := &models.User{
		Username: "alice", Email: "alice@example.com", FullName: "Alice",
		Role: models.RoleInstructor, PasswordHash: "hash", LoginType: models.LoginTypeEmailPassword,
	}
	if err := userRepo.Create(instructor); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := userRepo.SetRefreshToken(instructor.ID, "live-session"); err != nil {
		t.Fatalf("SetRefreshToken() error = %v", err)
	}

	course := &models.Course{Title: "Go Basics", InstructorID: instructor.ID, Level: models.LevelBeginner}
	if err := courseRepo.Create(course); err != nil {
		t.Fatalf("course Create() error = %v", err)
	}
	if err := moduleRepo.Create(&models.Module{CourseID: course.ID, Title: "Intro"}); err != nil {
		t.Fatalf("module Create() error = %v", err)
	}

	var buf bytes.Buffer
	if err := NewBackupService(source).ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	target := newTestDB(t)
	if err := NewBackupService(target).ImportFromReader(&buf); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	restoredUsers := repository.NewUserRepository(target)
	restored, err := restoredUsers.GetByIdentifier("alice")
	if err != nil || restored == nil {
		t.Fatalf("restored account lookup failed: %v", err)
	}
	if restored.PasswordHash != "hash" {
		t.Errorf("password hash = %q, want hash", restored.PasswordHash)
	}
	if restored.RefreshToken != "" {
		t.Error("restored account must start logged out")
	}

	restoredCourse, err := repository.NewCourseRepository(target).GetByID(course.ID)
	if err != nil || restoredCourse == nil {
		t.Fatalf("restored course lookup failed: %v", err)
	}
	modules, err := repository.NewModuleRepository(target).ListByCourse(course.ID)
	if err != nil || len(modules) != 1 {
		t.Fatalf("restored modules = %v, %v", modules, err)
	}
}

func TestBackupImportRollsBackOnFailure(t *testing.T) {
	target := newTestDB(t)

	// A course pointing at a missing account fails the FK; the users that
	// preceded it in the file must not survive.
	payload := []byte(`{
		"version": "1.0",
		"database_type": "universal",
		"users": [{
			"id": 1, "username": "alice", "email": "alice@example.com",
			"full_name": "Alice", "role": "instructor",
			"password_hash": "hash", "login_type": "email_password",
			"created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-01T00:00:00Z"
		}],
		"courses": [{
			"id": 1, "title": "Orphan", "instructor_id": 999,
			"created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-01T00:00:00Z"
		}],
		"modules": []
	}`)

	if err := NewBackupService(target).ImportFromReader(bytes.NewReader(payload)); err == nil {
		t.Fatal("import with a broken reference should fail")
	}

	leftover, err := repository.NewUserRepository(target).GetByIdentifier("alice")
	if err != nil {
		t.Fatalf("GetByIdentifier() error = %v", err)
	}
	if leftover != nil {
		t.Error("failed import left a partial restore behind")
	}
}
