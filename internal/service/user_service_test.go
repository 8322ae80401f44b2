package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
)

type userRepoStub struct {
	users     map[string]*models.User
	createErr error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*models.User)}
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if user.ID == "" {
		user.ID = "user-new"
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	stored, ok := s.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if user.PasswordHash == "" {
		user.PasswordHash = stored.PasswordHash
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.users, id)
	return nil
}

func TestUserCreateEnforcesRoleAffiliation(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Username: "mgr1",
		Password: "secret123",
		FullName: "New Manager",
		Role:     "manager",
	})
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))

	_, err = svc.Create(context.Background(), dto.CreateUserRequest{
		Username: "head1",
		Password: "secret123",
		FullName: "New Head",
		Role:     "head",
	})
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Username: "admin2",
		Password: "secret123",
		FullName: "Second Admin",
		Role:     "admin",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, user.Role)
}

func TestUserCreateHashesPassword(t *testing.T) {
	repo := newUserRepoStub()
	svc := NewUserService(repo, nil)

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Username:     "head1",
		Password:     "secret123",
		FullName:     "New Head",
		Role:         "head",
		SectionID:    "22222222-2222-2222-2222-222222222222",
		DepartmentID: "11111111-1111-1111-1111-111111111111",
	})
	require.NoError(t, err)

	stored := repo.users[user.ID]
	require.NotEqual(t, "secret123", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
}

func TestUserCreateDuplicateUsernameIsConflict(t *testing.T) {
	repo := newUserRepoStub()
	repo.createErr = &pq.Error{Code: "23505"}
	svc := NewUserService(repo, nil)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Username: "admin2",
		Password: "secret123",
		FullName: "Second Admin",
		Role:     "admin",
	})
	require.Equal(t, http.StatusConflict, errStatus(t, err))
}

func TestUserUpdateKeepsPasswordWhenOmitted(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["user-1"] = &models.User{ID: "user-1", Username: "jdoe", PasswordHash: "old-hash", FullName: "Jane Doe", Role: models.RoleAdmin}
	svc := NewUserService(repo, nil)

	_, err := svc.Update(context.Background(), "user-1", dto.UpdateUserRequest{
		Username: "jdoe",
		FullName: "Jane D.",
		Role:     "admin",
	})
	require.NoError(t, err)
	require.Equal(t, "old-hash", repo.users["user-1"].PasswordHash)
	require.Equal(t, "Jane D.", repo.users["user-1"].FullName)
}

func TestUserDeleteRefusesSelf(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["u-admin"] = &models.User{ID: "u-admin", Role: models.RoleAdmin}
	repo.users["user-2"] = &models.User{ID: "user-2", Role: models.RoleHead}
	svc := NewUserService(repo, nil)

	err := svc.Delete(context.Background(), adminPrincipal(), "u-admin")
	require.Equal(t, http.StatusConflict, errStatus(t, err))

	require.NoError(t, svc.Delete(context.Background(), adminPrincipal(), "user-2"))

	err = svc.Delete(context.Background(), adminPrincipal(), "user-missing")
	require.Equal(t, http.StatusNotFound, errStatus(t, err))
}
