package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	FullName     string  `json:"fullName"`
	Role         Role    `json:"role"`
	DepartmentID *string `json:"departmentId,omitempty"`
	SectionID    *string `json:"sectionId,omitempty"`
	Department   *NameRef `json:"department,omitempty"`
	Section      *NameRef `json:"section,omitempty"`
}

// NameRef is a minimal reference carrying only a display name.
type NameRef struct {
	Name string `json:"name"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID       string  `json:"user_id"`
	Role         Role    `json:"role"`
	FullName     string  `json:"full_name"`
	DepartmentID *string `json:"department_id,omitempty"`
	SectionID    *string `json:"section_id,omitempty"`
	jwt.RegisteredClaims
}
