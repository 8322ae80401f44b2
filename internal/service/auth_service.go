package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/pkg/config"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

// AuthUserRepository is the persistence surface the auth service needs.
type AuthUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService authenticates users and issues/validates access tokens.
type AuthService struct {
	users    AuthUserRepository
	jwt      config.JWTConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(users AuthUserRepository, jwtCfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, jwt: jwtCfg, validate: validator.New(), logger: logger}
}

// Login verifies credentials and returns a signed token with the user info.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return &models.LoginResponse{Token: token, User: userInfo(user)}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and verifies a signed token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.jwt.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := models.JWTClaims{
		UserID:       user.ID,
		Role:         user.Role,
		FullName:     user.FullName,
		DepartmentID: user.DepartmentID,
		SectionID:    user.SectionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.jwt.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwt.Secret))
}

func userInfo(user *models.User) models.UserInfo {
	info := models.UserInfo{
		ID:           user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		SectionID:    user.SectionID,
	}
	if user.DepartmentName != nil {
		info.Department = &models.NameRef{Name: *user.DepartmentName}
	}
	if user.SectionName != nil {
		info.Section = &models.NameRef{Name: *user.SectionName}
	}
	return info
}
