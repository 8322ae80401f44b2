package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/repository"
	"github.com/noah-isme/mailtrack-api/pkg/config"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

const (
	cacheKeyDepartments    = "directory:departments"
	cacheKeySections       = "directory:sections"
	cacheKeySectionsByDept = "directory:sections:"
	cacheInvalidatePattern = "directory:*"
)

// DirectoryRepository is the persistence surface for reference data.
type DirectoryRepository interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	UpdateDepartment(ctx context.Context, id, name string, updatedAt time.Time) error
	DeleteDepartment(ctx context.Context, id string) error
	ListSections(ctx context.Context) ([]models.Section, error)
	ListSectionsByDepartment(ctx context.Context, departmentID string) ([]models.Section, error)
	GetSection(ctx context.Context, id string) (*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
}

// DirectoryCache caches serialized reference-data listings.
type DirectoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DirectoryService serves the department/section directory. Listings are
// cached; every write invalidates the whole directory namespace.
type DirectoryService struct {
	directory DirectoryRepository
	cache     DirectoryCache
	cacheCfg  config.CacheConfig
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewDirectoryService constructs the directory service.
func NewDirectoryService(directory DirectoryRepository, cache DirectoryCache, cacheCfg config.CacheConfig, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		directory: directory,
		cache:     cache,
		cacheCfg:  cacheCfg,
		validate:  validator.New(),
		logger:    logger,
	}
}

// ListDepartments returns all departments ordered by name.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]dto.DepartmentResponse, error) {
	var cached []dto.DepartmentResponse
	if s.cacheGet(ctx, cacheKeyDepartments, &cached) {
		return cached, nil
	}

	departments, err := s.directory.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}

	out := dto.NewDepartmentResponses(departments)
	s.cacheSet(ctx, cacheKeyDepartments, out)
	return out, nil
}

// CreateDepartment registers a new department.
func (s *DirectoryService) CreateDepartment(ctx context.Context, req dto.CreateDepartmentRequest) (*dto.DepartmentResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	department := &models.Department{Name: req.Name}
	if err := s.directory.CreateDepartment(ctx, department); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}

	s.invalidate(ctx)
	resp := dto.NewDepartmentResponse(department)
	return &resp, nil
}

// UpdateDepartment renames a department.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*dto.DepartmentResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	now := time.Now().UTC()
	if err := s.directory.UpdateDepartment(ctx, id, req.Name, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}

	s.invalidate(ctx)

	department, err := s.directory.GetDepartment(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	resp := dto.NewDepartmentResponse(department)
	return &resp, nil
}

// DeleteDepartment removes a department. Departments still referenced by
// sections, users or mail cannot be deleted.
func (s *DirectoryService) DeleteDepartment(ctx context.Context, id string) error {
	if err := s.directory.DeleteDepartment(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "department is still referenced")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}

	s.invalidate(ctx)
	return nil
}

// ListSections returns all sections with their department names.
func (s *DirectoryService) ListSections(ctx context.Context) ([]dto.SectionResponse, error) {
	var cached []dto.SectionResponse
	if s.cacheGet(ctx, cacheKeySections, &cached) {
		return cached, nil
	}

	sections, err := s.directory.ListSections(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	out := dto.NewSectionResponses(sections)
	s.cacheSet(ctx, cacheKeySections, out)
	return out, nil
}

// ListSectionsByDepartment returns one department's sections.
func (s *DirectoryService) ListSectionsByDepartment(ctx context.Context, departmentID string) ([]dto.SectionResponse, error) {
	key := cacheKeySectionsByDept + departmentID
	var cached []dto.SectionResponse
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	if _, err := s.directory.GetDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	sections, err := s.directory.ListSectionsByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	out := dto.NewSectionResponses(sections)
	s.cacheSet(ctx, key, out)
	return out, nil
}

// CreateSection registers a section under an existing department.
func (s *DirectoryService) CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.directory.GetDepartment(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	section := &models.Section{Name: req.Name, DepartmentID: req.DepartmentID}
	if err := s.directory.CreateSection(ctx, section); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "section name already exists in this department")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}

	s.invalidate(ctx)
	resp := dto.NewSectionResponse(section)
	return &resp, nil
}

func (s *DirectoryService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if !s.cacheCfg.Enabled || s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *DirectoryService) cacheSet(ctx context.Context, key string, value interface{}) {
	if !s.cacheCfg.Enabled || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheCfg.DirectoryTTL); err != nil {
		s.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DirectoryService) invalidate(ctx context.Context) {
	if !s.cacheCfg.Enabled || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cacheInvalidatePattern); err != nil {
		s.logger.Warn("directory cache invalidation failed", zap.Error(err))
	}
}
