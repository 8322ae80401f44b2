package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/dto"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
	"github.com/noah-isme/mailtrack-api/pkg/response"
)

// DirectoryService is the surface for department/section endpoints.
type DirectoryService interface {
	ListDepartments(ctx context.Context) ([]dto.DepartmentResponse, error)
	CreateDepartment(ctx context.Context, req dto.CreateDepartmentRequest) (*dto.DepartmentResponse, error)
	UpdateDepartment(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*dto.DepartmentResponse, error)
	DeleteDepartment(ctx context.Context, id string) error
	ListSections(ctx context.Context) ([]dto.SectionResponse, error)
	ListSectionsByDepartment(ctx context.Context, departmentID string) ([]dto.SectionResponse, error)
	CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*dto.SectionResponse, error)
}

// UserAdminService is the surface for account administration endpoints.
type UserAdminService interface {
	List(ctx context.Context) ([]dto.UserResponse, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, p access.Principal, id string) error
}

// AdminHandler exposes the directory and account administration endpoints.
// Directory reads are open to any authenticated role; writes are mounted
// behind admin-only RBAC.
type AdminHandler struct {
	directory DirectoryService
	users     UserAdminService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(directory DirectoryService, users UserAdminService) *AdminHandler {
	return &AdminHandler{directory: directory, users: users}
}

// ListDepartments returns all departments.
func (h *AdminHandler) ListDepartments(c *gin.Context) {
	departments, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "departments", departments)
}

// CreateDepartment registers a department.
func (h *AdminHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	department, err := h.directory.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "department created", department)
}

// UpdateDepartment renames a department.
func (h *AdminHandler) UpdateDepartment(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	department, err := h.directory.UpdateDepartment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "department updated", department)
}

// DeleteDepartment removes a department.
func (h *AdminHandler) DeleteDepartment(c *gin.Context) {
	if err := h.directory.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "department deleted", nil)
}

// ListSections returns all sections.
func (h *AdminHandler) ListSections(c *gin.Context) {
	sections, err := h.directory.ListSections(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "sections", sections)
}

// ListSectionsByDepartment returns one department's sections.
func (h *AdminHandler) ListSectionsByDepartment(c *gin.Context) {
	sections, err := h.directory.ListSectionsByDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "sections", sections)
}

// CreateSection registers a section.
func (h *AdminHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	section, err := h.directory.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "section created", section)
}

// ListUsers returns all accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "users", users)
}

// CreateUser registers an account.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "user created", user)
}

// UpdateUser rewrites an account.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user updated", user)
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user deleted", nil)
}
