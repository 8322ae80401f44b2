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

// UserRepository handles user persistence.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `u.id, u.username, u.password_hash, u.full_name, u.role,
       u.department_id, u.section_id, u.created_at, u.updated_at,
       d.name AS department_name, s.name AS section_name`

const userJoins = `
	FROM users u
	LEFT JOIN departments d ON u.department_id = d.id
	LEFT JOIN sections s ON u.section_id = s.id`

// FindByUsername loads a user by unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	q := `SELECT ` + userColumns + userJoins + ` WHERE u.username = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, q, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user with joined affiliation names.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT ` + userColumns + userJoins + ` WHERE u.id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, q, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	q := `SELECT ` + userColumns + userJoins + ` ORDER BY u.created_at DESC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a new user. Username uniqueness is enforced by the storage
// constraint.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	const q = `INSERT INTO users (id, username, password_hash, full_name, role, department_id, section_id, created_at, updated_at)
	VALUES (:id, :username, :password_hash, :full_name, :role, :department_id, :section_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, user); err != nil {
		return err
	}
	return nil
}

// Update rewrites the mutable user fields. An empty password hash keeps the
// stored one.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	q := `UPDATE users SET username = :username, full_name = :full_name, role = :role,
	       department_id = :department_id, section_id = :section_id, updated_at = :updated_at`
	if user.PasswordHash != "" {
		q += `, password_hash = :password_hash`
	}
	q += ` WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, q, user)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check user update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check user delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
