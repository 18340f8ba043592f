package repository

import (
	"testing"

	"courseforge/internal/database"
	"courseforge/internal/models"
)

func newInstructor(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	repo := NewUserRepository(db)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Instructor " + username,
		Role:         models.RoleInstructor,
		PasswordHash: "hash",
		LoginType:    models.LoginTypeEmailPassword,
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return user
}

func newTestCourse(t *testing.T, repo *CourseRepository, instructorID int64, title string) *models.Course {
	t.Helper()

	course := &models.Course{
		Title:        title,
		Description:  "a course",
		InstructorID: instructorID,
		Price:        19.99,
		Category:     "engineering",
		Level:        models.LevelBeginner,
	}
	if err := repo.Create(course); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return course
}

func TestCourseCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	instructor := newInstructor(t, db, "alice")
	repo := NewCourseRepository(db)

	created := newTestCourse(t, repo, instructor.ID, "Go Basics")
	if created.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	got, err := repo.GetByID(created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil || got.Title != "Go Basics" {
		t.Fatalf("GetByID() = %+v", got)
	}
	if got.IsPublished {
		t.Error("new course should start unpublished")
	}
	if got.Instructor == nil || got.Instructor.ID != instructor.ID {
		t.Errorf("instructor summary not joined: %+v", got.Instructor)
	}

	missing, err := repo.GetByID(9999)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID() = %+v for unknown id, want nil", missing)
	}
}

func TestCourseListPublishedOnly(t *testing.T) {
	db := newTestDB(t)
	instructor := newInstructor(t, db, "alice")
	repo := NewCourseRepository(db)

	published := newTestCourse(t, repo, instructor.ID, "Published Course")
	newTestCourse(t, repo, instructor.ID, "Draft Course")
	if err := repo.SetPublished(published.ID, true); err != nil {
		t.Fatalf("SetPublished() error = %v", err)
	}

	courses, total, err := repo.List(ListFilter{PublishedOnly: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(courses) != 1 {
		t.Fatalf("List() total = %d, len = %d, want 1, 1", total, len(courses))
	}
	if courses[0].Title != "Published Course" {
		t.Errorf("listed %q, want the published course", courses[0].Title)
	}
}

func TestCourseListSearchAndPagination(t *testing.T) {
	db := newTestDB(t)
	instructor := newInstructor(t, db, "alice")
	repo := NewCourseRepository(db)

	titles := []string{"Go Basics", "Go Advanced", "Rust Basics"}
	for _, title := range titles {
		course := newTestCourse(t, repo, instructor.ID, title)
		if err := repo.SetPublished(course.ID, true); err != nil {
			t.Fatalf("SetPublished() error = %v", err)
		}
	}

	courses, total, err := repo.List(ListFilter{PublishedOnly: true, Search: "Go", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 {
		t.Errorf("search total = %d, want 2", total)
	}
	for _, c := range courses {
		if c.Title == "Rust Basics" {
			t.Error("search leaked a non-matching course")
		}
	}

	// Page past the data is empty but keeps the true total
	courses, total, err = repo.List(ListFilter{PublishedOnly: true, Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(courses) != 0 {
		t.Errorf("page 2: total = %d, len = %d, want 3, 0", total, len(courses))
	}
}

func TestCourseUpdateAndDeleteCascade(t *testing.T) {
	db := newTestDB(t)
	instructor := newInstructor(t, db, "alice")
	courseRepo := NewCourseRepository(db)
	moduleRepo := NewModuleRepository(db)

	course := newTestCourse(t, courseRepo, instructor.ID, "Go Basics")
	course.Title = "Go Fundamentals"
	course.Price = 29.99
	if err := courseRepo.Update(course); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := courseRepo.GetByID(course.ID)
	if got.Title != "Go Fundamentals" || got.Price != 29.99 {
		t.Errorf("update not persisted: %+v", got)
	}

	module := &models.Module{CourseID: course.ID, Title: "Intro"}
	if err := moduleRepo.Create(module); err != nil {
		t.Fatalf("module Create() error = %v", err)
	}

	if err := courseRepo.Delete(course.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	gone, _ := courseRepo.GetByID(course.ID)
	if gone != nil {
		t.Error("course still present after delete")
	}
	orphan, _ := moduleRepo.GetByID(module.ID)
	if orphan != nil {
		t.Error("module survived the course delete cascade")
	}
}

func TestModulePositionsAndOrdering(t *testing.T) {
	db := newTestDB(t)
	instructor := newInstructor(t, db, "alice")
	courseRepo := NewCourseRepository(db)
	moduleRepo := NewModuleRepository(db)

	course := newTestCourse(t, courseRepo, instructor.ID, "Go Basics")

	for _, title := range []string{"Intro", "Variables", "Functions"} {
		if err := moduleRepo.Create(&models.Module{CourseID: course.ID, Title: title}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	modules, err := moduleRepo.ListByCourse(course.ID)
	if err != nil {
		t.Fatalf("ListByCourse() error = %v", err)
	}
	if len(modules) != 3 {
		t.Fatalf("len = %d, want 3", len(modules))
	}
	for i, m := range modules {
		if m.Position != i+1 {
			t.Errorf("module %q position = %d, want %d", m.Title, m.Position, i+1)
		}
	}

	// Update keeps position
	modules[1].Title = "Variables and Types"
	if err := moduleRepo.Update(modules[1]); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, _ := moduleRepo.ListByCourse(course.ID)
	if again[1].Title != "Variables and Types" || again[1].Position != 2 {
		t.Errorf("update broke ordering: %+v", again[1])
	}

	if err := moduleRepo.Delete(modules[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	rest, _ := moduleRepo.ListByCourse(course.ID)
	if len(rest) != 2 {
		t.Errorf("len = %d after delete, want 2", len(rest))
	}
}
