package service

import (
	"errors"
	"strings"

	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/validation"
)

// ErrModuleNotFound maps to 404
var ErrModuleNotFound = errors.New("module not found")

// ModuleService handles module business logic. Every mutation checks course
// ownership first; modules have no owner of their own.
type ModuleService struct {
	moduleRepo *repository.ModuleRepository
	courseRepo *repository.CourseRepository
}

// NewModuleService creates a new module service
func NewModuleService(moduleRepo *repository.ModuleRepository, courseRepo *repository.CourseRepository) *ModuleService {
	return &ModuleService{moduleRepo: moduleRepo, courseRepo: courseRepo}
}

// ownedCourse loads the course and checks the caller owns it
func (s *ModuleService) ownedCourse(courseID int64, identity *models.User) (*models.Course, error) {
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

// Add appends a module to an owned course
func (s *ModuleService) Add(identity *models.User, courseID int64, title, description string) (*models.Module, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validation.ValidationError{Field: "title", Message: "title is required"}
	}

	if _, err := s.ownedCourse(courseID, identity); err != nil {
		return nil, err
	}

	module := &models.Module{
		CourseID:    courseID,
		Title:       title,
		Description: description,
	}
	if err := s.moduleRepo.Create(module); err != nil {
		return nil, err
	}
	return module, nil
}

// ListByCourse returns a course's modules in position order. Reads are not
// ownership-gated; the course itself must exist.
func (s *ModuleService) ListByCourse(courseID int64) ([]*models.Module, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	modules, err := s.moduleRepo.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if modules == nil {
		modules = []*models.Module{}
	}
	return modules, nil
}

// load fetches a module under a course, checking it actually belongs there
func (s *ModuleService) load(courseID, moduleID int64) (*models.Module, error) {
	module, err := s.moduleRepo.GetByID(moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil || module.CourseID != courseID {
		return nil, ErrModuleNotFound
	}
	return module, nil
}

// Update edits a module on an owned course
func (s *ModuleService) Update(identity *models.User, courseID, moduleID int64, title, description string) (*models.Module, error) {
	if _, err := s.ownedCourse(courseID, identity); err != nil {
		return nil, err
	}

	module, err := s.load(courseID, moduleID)
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(title); t != "" {
		module.Title = t
	}
	if description != "" {
		module.Description = description
	}

	if err := s.moduleRepo.Update(module); err != nil {
		return nil, err
	}
	return module, nil
}

// Delete removes a module from an owned course
func (s *ModuleService) Delete(identity *models.User, courseID, moduleID int64) error {
	if _, err := s.ownedCourse(courseID, identity); err != nil {
		return err
	}

	module, err := s.load(courseID, moduleID)
	if err != nil {
		return err
	}
	return s.moduleRepo.Delete(module.ID)
}
