package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

// DirectoryRepository handles the department/section reference tables.
// These are read-heavy; the service layer caches list results.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// ListDepartments returns all departments ordered by name.
func (r *DirectoryRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const q = `SELECT id, name, created_at, updated_at FROM departments ORDER BY name`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, q); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// GetDepartment retrieves one department.
func (r *DirectoryRepository) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	const q = `SELECT id, name, created_at, updated_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, q, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// CreateDepartment inserts a department. Name uniqueness is a storage
// constraint.
func (r *DirectoryRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if department.CreatedAt.IsZero() {
		department.CreatedAt = now
	}
	department.UpdatedAt = department.CreatedAt

	const q = `INSERT INTO departments (id, name, created_at, updated_at)
	VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, department); err != nil {
		return err
	}
	return nil
}

// UpdateDepartment renames a department.
func (r *DirectoryRepository) UpdateDepartment(ctx context.Context, id, name string, updatedAt time.Time) error {
	const q = `UPDATE departments SET name = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, name, updatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check department update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDepartment removes a department.
func (r *DirectoryRepository) DeleteDepartment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check department delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSections returns all sections with department names.
func (r *DirectoryRepository) ListSections(ctx context.Context) ([]models.Section, error) {
	const q = `SELECT s.id, s.name, s.department_id, s.created_at, s.updated_at,
	       d.name AS department_name
	FROM sections s
	LEFT JOIN departments d ON s.department_id = d.id
	ORDER BY d.name, s.name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, q); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListSectionsByDepartment returns a department's sections ordered by name.
func (r *DirectoryRepository) ListSectionsByDepartment(ctx context.Context, departmentID string) ([]models.Section, error) {
	const q = `SELECT id, name, department_id, created_at, updated_at
	FROM sections WHERE department_id = $1 ORDER BY name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, q, departmentID); err != nil {
		return nil, fmt.Errorf("list sections by department: %w", err)
	}
	return sections, nil
}

// GetSection retrieves one section.
func (r *DirectoryRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	const q = `SELECT id, name, department_id, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, q, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateSection inserts a section. (name, department_id) uniqueness is a
// storage constraint.
func (r *DirectoryRepository) CreateSection(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = section.CreatedAt

	const q = `INSERT INTO sections (id, name, department_id, created_at, updated_at)
	VALUES (:id, :name, :department_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, section); err != nil {
		return err
	}
	return nil
}
