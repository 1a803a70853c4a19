package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/pkg/logger"
)

// DatabaseInfo reports database liveness and version.
type DatabaseInfo interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// HealthHandler serves the service banner and health check.
type HealthHandler struct {
	db      DatabaseInfo
	service string
	log     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(db DatabaseInfo, service string, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, service: service, log: log}
}

// Index handles GET /
func (h *HealthHandler) Index(c *gin.Context) {
	version, err := h.db.Version(c.Request.Context())
	if err != nil {
		logger.WithContext(c.Request.Context(), h.log).Error("failed to read database version", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Hello from " + h.service + "!",
		"postgres_version": version,
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": h.service,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}
