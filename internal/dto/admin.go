package dto

import (
	"time"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

// CreateDepartmentRequest registers a new department.
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

// UpdateDepartmentRequest renames a department.
type UpdateDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

// CreateSectionRequest registers a section under a department.
type CreateSectionRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	DepartmentID string `json:"departmentId" validate:"required,uuid"`
}

// CreateUserRequest registers an account. Affiliation requirements depend on
// the role and are checked in the service.
type CreateUserRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"fullName" validate:"required,min=2,max=255"`
	Role         string `json:"role" validate:"required,oneof=admin manager head"`
	DepartmentID string `json:"departmentId" validate:"omitempty,uuid"`
	SectionID    string `json:"sectionId" validate:"omitempty,uuid"`
}

// UpdateUserRequest rewrites an account. An empty password keeps the current
// one.
type UpdateUserRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Password     string `json:"password" validate:"omitempty,min=6"`
	FullName     string `json:"fullName" validate:"required,min=2,max=255"`
	Role         string `json:"role" validate:"required,oneof=admin manager head"`
	DepartmentID string `json:"departmentId" validate:"omitempty,uuid"`
	SectionID    string `json:"sectionId" validate:"omitempty,uuid"`
}

// DepartmentResponse is the wire shape of a department.
type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDepartmentResponse converts a department row.
func NewDepartmentResponse(department *models.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        department.ID,
		Name:      department.Name,
		CreatedAt: department.CreatedAt,
		UpdatedAt: department.UpdatedAt,
	}
}

// NewDepartmentResponses converts department rows.
func NewDepartmentResponses(departments []models.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(departments))
	for i := range departments {
		out = append(out, NewDepartmentResponse(&departments[i]))
	}
	return out
}

// SectionResponse is the wire shape of a section.
type SectionResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DepartmentID   string    `json:"departmentId"`
	DepartmentName *string   `json:"departmentName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewSectionResponse converts a section row.
func NewSectionResponse(section *models.Section) SectionResponse {
	return SectionResponse{
		ID:             section.ID,
		Name:           section.Name,
		DepartmentID:   section.DepartmentID,
		DepartmentName: section.DepartmentName,
		CreatedAt:      section.CreatedAt,
		UpdatedAt:      section.UpdatedAt,
	}
}

// NewSectionResponses converts section rows.
func NewSectionResponses(sections []models.Section) []SectionResponse {
	out := make([]SectionResponse, 0, len(sections))
	for i := range sections {
		out = append(out, NewSectionResponse(&sections[i]))
	}
	return out
}

// UserResponse is the wire shape of an account. The password hash never
// leaves the service layer.
type UserResponse struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	FullName       string      `json:"fullName"`
	Role           models.Role `json:"role"`
	DepartmentID   *string     `json:"departmentId"`
	SectionID      *string     `json:"sectionId"`
	DepartmentName *string     `json:"departmentName,omitempty"`
	SectionName    *string     `json:"sectionName,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// NewUserResponse converts a user row.
func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		FullName:       user.FullName,
		Role:           user.Role,
		DepartmentID:   user.DepartmentID,
		SectionID:      user.SectionID,
		DepartmentName: user.DepartmentName,
		SectionName:    user.SectionName,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// NewUserResponses converts user rows.
func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
