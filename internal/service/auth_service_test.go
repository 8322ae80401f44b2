package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/pkg/config"
)

type authUserRepoStub struct {
	users map[string]*models.User
}

func (s *authUserRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthService(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	dept := "dept-1"
	user := &models.User{
		ID:           "user-1",
		Username:     "jdoe",
		PasswordHash: string(hash),
		FullName:     "Jane Doe",
		Role:         models.RoleManager,
		DepartmentID: &dept,
	}
	repo := &authUserRepoStub{users: map[string]*models.User{user.ID: user}}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "mailtrack-api"}
	return NewAuthService(repo, cfg, nil), user
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, user := newAuthService(t)

	result, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)

	claims, err := svc.ValidateToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, models.RoleManager, claims.Role)
	require.NotNil(t, claims.DepartmentID)
	require.Equal(t, "dept-1", *claims.DepartmentID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "wrongpass"})
	require.Equal(t, http.StatusUnauthorized, errStatus(t, err))

	// Unknown usernames are indistinguishable from wrong passwords.
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "secret123"})
	require.Equal(t, http.StatusUnauthorized, errStatus(t, err))
}

func TestLoginValidatesRequest(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "j", Password: "x"})
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Equal(t, http.StatusUnauthorized, errStatus(t, err))
}
