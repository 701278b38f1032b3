package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"diagnosis-api/internal/common/errors"
)

const requestIDKey = "requestID"

// requestID tags every request with a correlation id, echoed back in the
// X-Request-ID header. The id is the only request-scoped value that may
// appear in log fields.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// rateLimit guards the consult endpoint against repeated submissions per
// client IP. With no Redis configured the limiter is disabled and the
// middleware passes through.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		allowed, err := s.limiter.Allow(c.Request.Context(), "ratelimit:consult:"+c.ClientIP())
		if err != nil {
			// Limiter trouble must not block leads; fail open.
			s.logger.Warn("rate limiter unavailable", map[string]interface{}{
				"error": err.Error(),
			})
			c.Next()
			return
		}
		if !allowed {
			stdErr := errors.NewRateLimitedError("送信回数が上限に達しました。しばらくしてからお試しください。")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": stdErr.Message,
			})
			return
		}
		c.Next()
	}
}
