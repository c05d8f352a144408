package router

import (
	"github.com/gin-gonic/gin"

	"steam-soundboard/backend/internal/api"
	"steam-soundboard/backend/pkg/config"
	"steam-soundboard/backend/pkg/di"
	"steam-soundboard/backend/pkg/errors"
	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/middleware"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every request carries a scoped logger
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	// Coarse per-IP limiter in front of everything
	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	r.setupHealthRoutes()
	r.Engine.GET("/metrics", r.Container.Metrics.Handler())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Container.UserService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Container.JWTService, r.Logger)
	soundController := api.NewSoundController(r.Container.SoundService, r.Logger)
	adminController := api.NewAdminController(r.Container.SettingsService, r.Container.UserService, r.Logger)

	apiGroup := r.Engine.Group("/api")

	// Session minting (fed by the upstream Steam exchange)
	apiGroup.POST("/auth/session", authHandler.CreateSession)

	// Authenticated routes
	protected := apiGroup.Group("")
	protected.Use(jwtAuth)
	{
		protected.GET("/auth/me", authHandler.Me)
		soundController.RegisterRoutes(protected, r.Container.UploadLimiter.Middleware())
	}

	// Admin routes
	admin := apiGroup.Group("/admin")
	admin.Use(jwtAuth, middleware.AdminOnly())
	adminController.RegisterRoutes(admin)

	// Plugin socket; authentication happens inside the protocol
	r.Engine.GET("/ws/plugin", r.Container.Gateway.ServeWS)
}

// corsMiddleware allows the web frontend to call the API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
