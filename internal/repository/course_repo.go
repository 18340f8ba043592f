package repository

import (
	"database/sql"
	"fmt"
	"time"

	"courseforge/internal/database"
	"courseforge/internal/models"
)

const courseColumns = `c.id, c.title, COALESCE(c.description, ''), c.instructor_id, c.price,
		COALESCE(c.category, ''), COALESCE(c.level, ''), COALESCE(c.duration, ''),
		COALESCE(c.language, ''), COALESCE(c.requirements, ''), COALESCE(c.thumbnail_url, ''),
		c.rating, c.is_published, c.created_at, c.updated_at,
		u.id, u.full_name, u.email, COALESCE(u.avatar_url, '')`

const courseFrom = " FROM courses c JOIN users u ON u.id = c.instructor_id"

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *database.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *database.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course owned by the given instructor
func (r *CourseRepository) Create(course *models.Course) error {
	query := `
		INSERT INTO courses (title, description, instructor_id, price, category, level, duration, language, requirements)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		course.Title,
		course.Description,
		course.InstructorID,
		course.Price,
		course.Category,
		string(course.Level),
		course.Duration,
		course.Language,
		course.Requirements,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	course.ID = id
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	return nil
}

// GetByID retrieves a course with its instructor summary
func (r *CourseRepository) GetByID(id int64) (*models.Course, error) {
	query := "SELECT " + courseColumns + courseFrom + " WHERE c.id = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTitleAndInstructor looks up a course by exact title under one
// instructor, used to reject duplicate titles per owner.
func (r *CourseRepository) GetByTitleAndInstructor(title string, instructorID int64) (*models.Course, error) {
	query := "SELECT " + courseColumns + courseFrom + " WHERE c.title = ? AND c.instructor_id = ?"
	return r.scanOne(r.db.QueryRow(query, title, instructorID))
}

// ListFilter narrows and pages the public course listing
type ListFilter struct {
	Search        string
	Category      string
	Level         string
	InstructorID  int64
	PublishedOnly bool
	Page          int
	Limit         int
}

// List returns a page of courses matching the filter plus the total count
func (r *CourseRepository) List(filter ListFilter) ([]*models.Course, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.PublishedOnly {
		where += " AND c.is_published = ?"
		args = append(args, true)
	}
	if filter.Search != "" {
		where += " AND c.title LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		where += " AND c.category = ?"
		args = append(args, filter.Category)
	}
	if filter.Level != "" {
		where += " AND c.level = ?"
		args = append(args, filter.Level)
	}
	if filter.InstructorID != 0 {
		where += " AND c.instructor_id = ?"
		args = append(args, filter.InstructorID)
	}

	var total int
	countQuery := "SELECT COUNT(*)" + courseFrom + where
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := "SELECT " + courseColumns + courseFrom + where +
		" ORDER BY c.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

// Update persists the mutable course fields
func (r *CourseRepository) Update(course *models.Course) error {
	query := `
		UPDATE courses
		SET title = ?, description = ?, price = ?, category = ?, level = ?,
			duration = ?, language = ?, requirements = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		course.Title,
		course.Description,
		course.Price,
		course.Category,
		string(course.Level),
		course.Duration,
		course.Language,
		course.Requirements,
		course.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

// SetPublished flips the publish flag
func (r *CourseRepository) SetPublished(courseID int64, published bool) error {
	query := "UPDATE courses SET is_published = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, published, courseID); err != nil {
		return fmt.Errorf("failed to set course published: %w", err)
	}
	return nil
}

// SetThumbnail stores the public URL of the uploaded thumbnail
func (r *CourseRepository) SetThumbnail(courseID int64, url string) error {
	query := "UPDATE courses SET thumbnail_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, url, courseID); err != nil {
		return fmt.Errorf("failed to set course thumbnail: %w", err)
	}
	return nil
}

// Delete removes a course. Modules go with it via the cascade.
func (r *CourseRepository) Delete(courseID int64) error {
	if _, err := r.db.Exec("DELETE FROM courses WHERE id = ?", courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *CourseRepository) scanOne(row *sql.Row) (*models.Course, error) {
	course, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return course, err
}

func (r *CourseRepository) scanRow(row rowScanner) (*models.Course, error) {
	course := &models.Course{Instructor: &models.InstructorSummary{}}
	var level string

	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.InstructorID,
		&course.Price,
		&course.Category,
		&level,
		&course.Duration,
		&course.Language,
		&course.Requirements,
		&course.ThumbnailURL,
		&course.Rating,
		&course.IsPublished,
		&course.CreatedAt,
		&course.UpdatedAt,
		&course.Instructor.ID,
		&course.Instructor.FullName,
		&course.Instructor.Email,
		&course.Instructor.Avatar,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	course.Level = models.CourseLevel(level)
	return course, nil
}
