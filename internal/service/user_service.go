package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/repository"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

// UserRepository is the persistence surface for account administration.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserService implements admin-only account management. Route-level RBAC
// already restricts these operations to admins.
type UserService struct {
	users    UserRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(users UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validate: validator.New(), logger: logger}
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return dto.NewUserResponses(users), nil
}

// Create registers an account. The role decides which affiliation is
// mandatory: managers need a department, heads need a section.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := checkAffiliation(models.Role(req.Role), req.DepartmentID, req.SectionID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.Role(req.Role),
	}
	if req.DepartmentID != "" {
		user.DepartmentID = &req.DepartmentID
	}
	if req.SectionID != "" {
		user.SectionID = &req.SectionID
	}

	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Validationf("affiliation: unknown department or section")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Update rewrites an account. An empty password keeps the stored hash.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := checkAffiliation(models.Role(req.Role), req.DepartmentID, req.SectionID); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.Username = req.Username
	user.FullName = req.FullName
	user.Role = models.Role(req.Role)
	user.DepartmentID = nil
	user.SectionID = nil
	if req.DepartmentID != "" {
		user.DepartmentID = &req.DepartmentID
	}
	if req.SectionID != "" {
		user.SectionID = &req.SectionID
	}

	user.PasswordHash = ""
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Validationf("affiliation: unknown department or section")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID))
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, p access.Principal, id string) error {
	if p.ID == id {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "user is still referenced")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// checkAffiliation enforces the role/affiliation invariants at account
// creation time so issued tokens always satisfy them.
func checkAffiliation(role models.Role, departmentID, sectionID string) error {
	switch role {
	case models.RoleManager:
		if departmentID == "" {
			return appErrors.Validationf("departmentId: required for managers")
		}
	case models.RoleHead:
		if sectionID == "" {
			return appErrors.Validationf("sectionId: required for heads")
		}
	}
	return nil
}
