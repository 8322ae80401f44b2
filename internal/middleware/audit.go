package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit logs every mutating request with the acting user after completion.
// Reads are intentionally not audited.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		}
		if claims, ok := ClaimsFromContext(c); ok {
			fields = append(fields,
				zap.String("user_id", claims.UserID),
				zap.String("role", string(claims.Role)),
			)
		}

		logger.Info("audit", fields...)
	}
}
