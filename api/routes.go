package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/diagram-annotator/api/admin"
	"github.com/killallgit/diagram-annotator/api/annotations"
	"github.com/killallgit/diagram-annotator/api/auth"
	"github.com/killallgit/diagram-annotator/api/dataset"
	"github.com/killallgit/diagram-annotator/api/health"
	"github.com/killallgit/diagram-annotator/api/types"
	"github.com/killallgit/diagram-annotator/api/version"
	_ "github.com/killallgit/diagram-annotator/docs/swagger"
	"github.com/killallgit/diagram-annotator/internal/models"
	annotationsService "github.com/killallgit/diagram-annotator/internal/services/annotations"
	authService "github.com/killallgit/diagram-annotator/internal/services/auth"
	"github.com/killallgit/diagram-annotator/internal/services/cache"
	"github.com/killallgit/diagram-annotator/internal/services/tasks"
	"github.com/killallgit/diagram-annotator/internal/services/users"
	"github.com/killallgit/diagram-annotator/pkg/config"
	"github.com/killallgit/diagram-annotator/pkg/diagram"
)

// Rate limit scopes, keys of rate_limiting.endpoints
const (
	scopeAuth    = "auth"
	scopeAdmin   = "admin"
	scopeDefault = "default"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil || deps.Config == nil {
		return fmt.Errorf("config is nil")
	}
	cfg := deps.Config

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine)

	if cfg.Docs.Enabled {
		engine.GET("/docs", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
		})
		docsGroup := engine.Group("/docs")
		docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Monitoring.Enabled && deps.Metrics != nil {
		engine.GET(cfg.Monitoring.MetricsPath, gin.WrapH(deps.Metrics.Handler()))
	}

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	if deps.DB == nil || deps.DB.DB == nil {
		return nil
	}
	if err := initializeServices(deps, cfg); err != nil {
		return err
	}

	limit := func(scope string) gin.HandlerFunc {
		if !cfg.RateLimiting.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		perMinute, ok := cfg.RateLimiting.Endpoints[scope]
		if !ok {
			perMinute = cfg.RateLimiting.Endpoints[scopeDefault]
		}
		return PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, scope, perMinute, perMinute)
	}

	sessions := auth.NewHandler(deps)
	requireAuth := sessions.AuthMiddleware()

	// API v1 routes; a session is optional unless a group requires one
	v1 := engine.Group("/api/v1")
	v1.Use(sessions.OptionalAuthMiddleware())

	authGroup := v1.Group("/auth")
	authGroup.Use(limit(scopeAuth))
	auth.RegisterRoutes(authGroup, sessions)

	browseGroup := v1.Group("")
	browseGroup.Use(limit(scopeDefault))
	dataset.RegisterRoutes(browseGroup, deps, requireAuth)

	annotateGroup := v1.Group("/annotate")
	annotateGroup.Use(limit(scopeDefault), requireAuth)
	annotations.RegisterRoutes(annotateGroup, deps)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(limit(scopeAdmin), requireAuth, sessions.RequireRole(models.RoleAdmin))
	admin.RegisterRoutes(adminGroup, deps)

	return nil
}

// initializeServices fills in any service the caller did not provide
func initializeServices(deps *types.Dependencies, cfg *config.Config) error {
	logger := deps.Log()
	if deps.Logger == nil {
		deps.Logger = logger
	}

	if deps.Annotations == nil {
		deps.Annotations = annotationsService.NewService(
			annotationsService.NewRepository(deps.DB.DB), logger, deps.Metrics)
	}
	if deps.Tasks == nil {
		deps.Tasks = tasks.NewService(tasks.NewRepository(deps.DB.DB), logger, deps.Metrics)
	}
	if deps.Users == nil {
		deps.Users = users.NewService(users.NewRepository(deps.DB.DB), logger)
	}
	if deps.Tokens == nil {
		tokens, err := authService.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("failed to create token service: %w", err)
		}
		deps.Tokens = tokens
	}
	if deps.Renderer == nil {
		deps.Renderer = diagram.NewRenderer(nil).
			WithCache(cache.NewMemoryCache(cfg.Render.CacheBytes), cfg.Render.CacheTTL)
	}
	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
