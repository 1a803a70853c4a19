package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/pkg/logger"
)

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

// SetupRouter configures the gin engine with all routes and middleware and
// wraps it so that /users and /users/ route identically. rateLimiter may be nil.
func SetupRouter(h Handlers, rateLimiter *middleware.RateLimiter, log *zap.Logger) http.Handler {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	if rateLimiter != nil {
		router.Use(rateLimiter.Handler())
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	router.GET("/", h.Health.Index)
	router.GET("/health", h.Health.Health)

	users := router.Group("/users")
	{
		users.GET("", h.User.ListUsers)
		users.POST("", h.User.CreateUser)

		byID := users.Group("/:id", middleware.IDParam("id"))
		byID.GET("", h.User.GetUser)
		byID.PUT("", h.User.UpdateUser)
		byID.DELETE("", h.User.DeleteUser)
	}

	return stripTrailingSlash(router)
}

// stripTrailingSlash removes one trailing slash from every path except "/".
func stripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			u := *r.URL
			u.Path = strings.TrimSuffix(p, "/")
			u.RawPath = strings.TrimSuffix(u.RawPath, "/")
			r = r.WithContext(r.Context())
			r.URL = &u
		}
		next.ServeHTTP(w, r)
	})
}
