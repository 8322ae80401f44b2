package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mailtrack-api/internal/models"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

type tokenValidatorStub struct {
	claims *models.JWTClaims
	err    error
}

func (s *tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newTestRouter(validator TokenValidator, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("")
	group.Use(JWT(validator))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/probe", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestJWTRejectsMissingAndBadTokens(t *testing.T) {
	r := newTestRouter(&tokenValidatorStub{err: appErrors.ErrUnauthorized})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesFiltersByRole(t *testing.T) {
	validator := &tokenValidatorStub{claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleHead}}
	r := newTestRouter(validator, models.RoleAdmin, models.RoleManager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	validator.claims.Role = models.RoleManager
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}
