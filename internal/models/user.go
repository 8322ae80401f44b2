package models

import "time"

// Role is the closed set of principal roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleHead    Role = "head"
)

// Valid reports whether the role is one of the known constants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleHead:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	Role         Role      `db:"role" json:"role"`
	DepartmentID *string   `db:"department_id" json:"departmentId,omitempty"`
	SectionID    *string   `db:"section_id" json:"sectionId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	DepartmentName *string `db:"department_name" json:"-"`
	SectionName    *string `db:"section_name" json:"-"`
}

// Meta contains pagination metadata returned in list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewMeta computes pagination metadata from a total row count.
func NewMeta(page, limit, total int) *Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
