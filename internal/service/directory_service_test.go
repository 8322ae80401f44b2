package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/pkg/config"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

type directoryRepoStub struct {
	departments map[string]*models.Department
	sections    map[string]*models.Section
	listCalls   int
	createErr   error
}

func newDirectoryRepoStub() *directoryRepoStub {
	return &directoryRepoStub{
		departments: make(map[string]*models.Department),
		sections:    make(map[string]*models.Section),
	}
}

func (s *directoryRepoStub) ListDepartments(ctx context.Context) ([]models.Department, error) {
	s.listCalls++
	var out []models.Department
	for _, d := range s.departments {
		out = append(out, *d)
	}
	return out, nil
}

func (s *directoryRepoStub) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := s.departments[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (s *directoryRepoStub) CreateDepartment(ctx context.Context, department *models.Department) error {
	if s.createErr != nil {
		return s.createErr
	}
	if department.ID == "" {
		department.ID = "dept-new"
	}
	s.departments[department.ID] = department
	return nil
}

func (s *directoryRepoStub) UpdateDepartment(ctx context.Context, id, name string, updatedAt time.Time) error {
	d, ok := s.departments[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Name = name
	d.UpdatedAt = updatedAt
	return nil
}

func (s *directoryRepoStub) DeleteDepartment(ctx context.Context, id string) error {
	if _, ok := s.departments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.departments, id)
	return nil
}

func (s *directoryRepoStub) ListSections(ctx context.Context) ([]models.Section, error) {
	s.listCalls++
	var out []models.Section
	for _, sec := range s.sections {
		out = append(out, *sec)
	}
	return out, nil
}

func (s *directoryRepoStub) ListSectionsByDepartment(ctx context.Context, departmentID string) ([]models.Section, error) {
	var out []models.Section
	for _, sec := range s.sections {
		if sec.DepartmentID == departmentID {
			out = append(out, *sec)
		}
	}
	return out, nil
}

func (s *directoryRepoStub) GetSection(ctx context.Context, id string) (*models.Section, error) {
	if sec, ok := s.sections[id]; ok {
		return sec, nil
	}
	return nil, sql.ErrNoRows
}

func (s *directoryRepoStub) CreateSection(ctx context.Context, section *models.Section) error {
	if s.createErr != nil {
		return s.createErr
	}
	if section.ID == "" {
		section.ID = "sec-new"
	}
	s.sections[section.ID] = section
	return nil
}

type directoryCacheStub struct {
	entries map[string][]byte
	flushes int
}

func newDirectoryCacheStub() *directoryCacheStub {
	return &directoryCacheStub{entries: make(map[string][]byte)}
}

func (s *directoryCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *directoryCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *directoryCacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.flushes++
	s.entries = make(map[string][]byte)
	return nil
}

func TestDirectoryListDepartmentsUsesCache(t *testing.T) {
	repo := newDirectoryRepoStub()
	repo.departments["dept-1"] = &models.Department{ID: "dept-1", Name: "Finance"}
	cache := newDirectoryCacheStub()
	svc := NewDirectoryService(repo, cache, config.CacheConfig{Enabled: true, DirectoryTTL: time.Minute}, nil)

	first, err := svc.ListDepartments(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.ListDepartments(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.listCalls)
}

func TestDirectoryWritesInvalidateCache(t *testing.T) {
	repo := newDirectoryRepoStub()
	cache := newDirectoryCacheStub()
	svc := NewDirectoryService(repo, cache, config.CacheConfig{Enabled: true, DirectoryTTL: time.Minute}, nil)

	_, err := svc.ListDepartments(context.Background())
	require.NoError(t, err)

	_, err = svc.CreateDepartment(context.Background(), dto.CreateDepartmentRequest{Name: "Finance"})
	require.NoError(t, err)
	require.Equal(t, 1, cache.flushes)
	require.Empty(t, cache.entries)
}

func TestDirectoryDuplicateDepartmentIsConflict(t *testing.T) {
	repo := newDirectoryRepoStub()
	repo.createErr = &pq.Error{Code: "23505"}
	svc := NewDirectoryService(repo, nil, config.CacheConfig{}, nil)

	_, err := svc.CreateDepartment(context.Background(), dto.CreateDepartmentRequest{Name: "Finance"})
	require.Equal(t, http.StatusConflict, errStatus(t, err))
}

func TestDirectoryCreateSectionNeedsExistingDepartment(t *testing.T) {
	repo := newDirectoryRepoStub()
	svc := NewDirectoryService(repo, nil, config.CacheConfig{}, nil)

	_, err := svc.CreateSection(context.Background(), dto.CreateSectionRequest{
		Name:         "Payroll",
		DepartmentID: "11111111-1111-1111-1111-111111111111",
	})
	require.Equal(t, http.StatusNotFound, errStatus(t, err))

	repo.departments["11111111-1111-1111-1111-111111111111"] = &models.Department{ID: "11111111-1111-1111-1111-111111111111", Name: "Finance"}
	section, err := svc.CreateSection(context.Background(), dto.CreateSectionRequest{
		Name:         "Payroll",
		DepartmentID: "11111111-1111-1111-1111-111111111111",
	})
	require.NoError(t, err)
	require.Equal(t, "Payroll", section.Name)
}
