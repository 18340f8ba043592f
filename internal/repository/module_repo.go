package repository

import (
	"database/sql"
	"fmt"
	"time"

	"courseforge/internal/database"
	"courseforge/internal/models"
)

const moduleColumns = "id, course_id, title, COALESCE(description, ''), position, created_at, updated_at"

// ModuleRepository handles database operations for course modules
type ModuleRepository struct {
	db *database.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *database.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// Create inserts a module at the end of the course's module list
func (r *ModuleRepository) Create(module *models.Module) error {
	var maxPos sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(position) FROM modules WHERE course_id = ?", module.CourseID).Scan(&maxPos)
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	module.Position = int(maxPos.Int64) + 1

	query := "INSERT INTO modules (course_id, title, description, position) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, module.CourseID, module.Title, module.Description, module.Position)
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}

	module.ID = id
	module.CreatedAt = time.Now()
	module.UpdatedAt = module.CreatedAt
	return nil
}

// GetByID retrieves a module by ID
func (r *ModuleRepository) GetByID(id int64) (*models.Module, error) {
	query := "SELECT " + moduleColumns + " FROM modules WHERE id = ?"
	module := &models.Module{}
	err := r.db.QueryRow(query, id).Scan(
		&module.ID,
		&module.CourseID,
		&module.Title,
		&module.Description,
		&module.Position,
		&module.CreatedAt,
		&module.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}

// ListByCourse returns a course's modules in position order
func (r *ModuleRepository) ListByCourse(courseID int64) ([]*models.Module, error) {
	query := "SELECT " + moduleColumns + " FROM modules WHERE course_id = ? ORDER BY position ASC"
	rows, err := r.db.Query(query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []*models.Module
	for rows.Next() {
		module := &models.Module{}
		err := rows.Scan(
			&module.ID,
			&module.CourseID,
			&module.Title,
			&module.Description,
			&module.Position,
			&module.CreatedAt,
			&module.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list modules: %w", err)
		}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

// Update persists the mutable module fields
func (r *ModuleRepository) Update(module *models.Module) error {
	query := `
		UPDATE modules SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, module.Title, module.Description, module.ID); err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	return nil
}

// Delete removes a module
func (r *ModuleRepository) Delete(moduleID int64) error {
	if _, err := r.db.Exec("DELETE FROM modules WHERE id = ?", moduleID); err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return nil
}
