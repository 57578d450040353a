package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine serving the session API under /api.
func NewRouter(log *slog.Logger, handler *SessionHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	handler.Register(r.Group("/api"))

	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.DebugContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
