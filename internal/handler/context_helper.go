package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/middleware"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
	"github.com/noah-isme/mailtrack-api/pkg/response"
)

// principalFromContext resolves the authenticated principal for a request.
// When absent it writes the 401 response itself and reports false.
func principalFromContext(c *gin.Context) (access.Principal, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return access.Principal{}, false
	}
	return access.FromClaims(claims), true
}

// parsePagination reads the page/limit query parameters; zero values mean
// "use the defaults" downstream.
func parsePagination(c *gin.Context) (int, int, error) {
	page, limit := 0, 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, appErrors.Validationf("page: must be a number")
		}
		page = parsed
	}
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, appErrors.Validationf("limit: must be a number")
		}
		limit = parsed
	}
	return page, limit, nil
}
