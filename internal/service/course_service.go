package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/validation"
)

var (
	// ErrCourseNotFound maps to 404
	ErrCourseNotFound = errors.New("course not found")
	// ErrNotCourseOwner maps to 403: the caller does not own the course
	ErrNotCourseOwner = errors.New("not the course owner")
	// ErrNotInstructor maps to 403: only instructors create courses
	ErrNotInstructor = errors.New("only instructors can create courses")
	// ErrDuplicateCourseTitle maps to 409: the instructor already has a
	// course with this title
	ErrDuplicateCourseTitle = errors.New("a course with this title already exists")
)

// CourseService handles course business logic including the ownership
// predicate every mutation goes through.
type CourseService struct {
	courseRepo *repository.CourseRepository
	storage    *StorageService
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo *repository.CourseRepository, storage *StorageService) *CourseService {
	return &CourseService{courseRepo: courseRepo, storage: storage}
}

// CourseInput carries the writable course fields. Price is a pointer so a
// partial update can tell "leave it" apart from "make it free".
type CourseInput struct {
	Title        string
	Description  string
	Price        *float64
	Category     string
	Level        string
	Duration     string
	Language     string
	Requirements string
}

// Create makes a new unpublished course owned by the caller. Only the
// instructor role creates courses; admins manage accounts, not content.
func (s *CourseService) Create(identity *models.User, input CourseInput) (*models.Course, error) {
	if identity.Role != models.RoleInstructor {
		return nil, ErrNotInstructor
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, validation.ValidationError{Field: "title", Message: "title is required"}
	}
	level, err := parseLevel(input.Level)
	if err != nil {
		return nil, err
	}
	price := 0.0
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, validation.ValidationError{Field: "price", Message: "price cannot be negative"}
		}
		price = *input.Price
	}

	existing, err := s.courseRepo.GetByTitleAndInstructor(input.Title, identity.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateCourseTitle
	}

	course := &models.Course{
		Title:        input.Title,
		Description:  input.Description,
		InstructorID: identity.ID,
		Price:        price,
		Category:     input.Category,
		Level:        level,
		Duration:     input.Duration,
		Language:     input.Language,
		Requirements: input.Requirements,
	}
	if err := s.courseRepo.Create(course); err != nil {
		return nil, err
	}
	course.Instructor = &models.InstructorSummary{
		ID:       identity.ID,
		FullName: identity.FullName,
		Email:    identity.Email,
		Avatar:   identity.AvatarURL,
	}
	return course, nil
}

// GetByID returns a course with its instructor summary
func (s *CourseService) GetByID(courseID int64) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

// List returns a page of published courses matching the filter
func (s *CourseService) List(filter repository.ListFilter) (*models.CoursePage, error) {
	filter.PublishedOnly = true
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	courses, total, err := s.courseRepo.List(filter)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*models.Course{}
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &models.CoursePage{
		Courses: courses,
		Pagination: models.Pagination{
			TotalCourses: total,
			TotalPages:   totalPages,
			CurrentPage:  filter.Page,
			Limit:        filter.Limit,
		},
	}, nil
}

// loadOwned loads a course and checks the caller owns it. Every mutation
// funnels through here before touching the row.
func (s *CourseService) loadOwned(courseID int64, identity *models.User) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.InstructorID != identity.ID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

// Update applies a partial update to an owned course
func (s *CourseService) Update(identity *models.User, courseID int64, input CourseInput) (*models.Course, error) {
	course, err := s.loadOwned(courseID, identity)
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(input.Title); t != "" {
		course.Title = t
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, validation.ValidationError{Field: "price", Message: "price cannot be negative"}
		}
		course.Price = *input.Price
	}
	if input.Category != "" {
		course.Category = input.Category
	}
	if input.Level != "" {
		level, err := parseLevel(input.Level)
		if err != nil {
			return nil, err
		}
		course.Level = level
	}
	if input.Duration != "" {
		course.Duration = input.Duration
	}
	if input.Language != "" {
		course.Language = input.Language
	}
	if input.Requirements != "" {
		course.Requirements = input.Requirements
	}

	if err := s.courseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

// Delete removes an owned course and its modules
func (s *CourseService) Delete(identity *models.User, courseID int64) error {
	if _, err := s.loadOwned(courseID, identity); err != nil {
		return err
	}
	return s.courseRepo.Delete(courseID)
}

// TogglePublish flips the publish flag on an owned course
func (s *CourseService) TogglePublish(identity *models.User, courseID int64) (*models.Course, error) {
	course, err := s.loadOwned(courseID, identity)
	if err != nil {
		return nil, err
	}

	course.IsPublished = !course.IsPublished
	if err := s.courseRepo.SetPublished(courseID, course.IsPublished); err != nil {
		return nil, err
	}
	return course, nil
}

// UpdateThumbnail uploads a new thumbnail for an owned course. The old object
// is deleted best-effort after the switch.
func (s *CourseService) UpdateThumbnail(ctx context.Context, identity *models.User, courseID int64, filename, contentType string, body io.Reader) (*models.Course, error) {
	course, err := s.loadOwned(courseID, identity)
	if err != nil {
		return nil, err
	}

	key := ObjectKey("thumbnails", filename)
	url, err := s.storage.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	if err := s.courseRepo.SetThumbnail(courseID, url); err != nil {
		return nil, err
	}

	if old := s.storage.KeyFromURL(course.ThumbnailURL); old != "" {
		if err := s.storage.Delete(ctx, old); err != nil {
			log.Printf("Failed to delete old thumbnail %s: %v", old, err)
		}
	}

	course.ThumbnailURL = url
	return course, nil
}

// parseLevel validates the level enum, allowing empty
func parseLevel(level string) (models.CourseLevel, error) {
	switch models.CourseLevel(level) {
	case "", models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
		return models.CourseLevel(level), nil
	}
	return "", validation.ValidationError{Field: "level", Message: "level must be beginner, intermediate or advanced"}
}
