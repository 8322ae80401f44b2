package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
	"github.com/noah-isme/mailtrack-api/pkg/response"
)

// readiness timeout for backing-store pings.
const readyTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db    *sqlx.DB
	redis *redis.Client
}

// NewHealthHandler constructs the handler. The redis client may be nil when
// caching is disabled.
func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Health reports process liveness.
func (h *HealthHandler) Health(c *gin.Context) {
	response.OK(c, "ok", gin.H{"status": "up"})
}

// Ready reports whether the backing stores answer.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		response.Error(c, appErrors.Wrap(err, "NOT_READY", http.StatusServiceUnavailable, "database unreachable"))
		return
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			response.Error(c, appErrors.Wrap(err, "NOT_READY", http.StatusServiceUnavailable, "redis unreachable"))
			return
		}
	}

	response.OK(c, "ready", gin.H{"status": "ready"})
}
