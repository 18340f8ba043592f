package models

import "time"

// CourseLevel is the difficulty label for a course
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// Course represents a course owned by an instructor account
type Course struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	InstructorID int64       `json:"instructorId"`
	Price        float64     `json:"price"`
	Category     string      `json:"category,omitempty"`
	Level        CourseLevel `json:"level,omitempty"`
	Duration     string      `json:"duration,omitempty"`
	Language     string      `json:"language,omitempty"`
	Requirements string      `json:"requirements,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	Rating       float64     `json:"rating"`
	IsPublished  bool        `json:"isPublished"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	// Instructor summary, populated on reads that join the owning account
	Instructor *InstructorSummary `json:"instructor,omitempty"`
}

// InstructorSummary is the minimal owner view embedded in course reads
type InstructorSummary struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatarUrl,omitempty"`
}

// Module is a content unit inside a course
type Module struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CoursePage is a paginated course listing
type CoursePage struct {
	Courses    []*Course  `json:"courses"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page window of a listing
type Pagination struct {
	TotalCourses int `json:"totalCourses"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	Limit        int `json:"limit"`
}
