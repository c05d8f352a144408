// Package di wires the application object graph once at process start.
// The connection registry in particular is constructed here and passed
// by reference everywhere it is needed, never reached through a
// package-level singleton.
package di

import (
	"time"

	"gorm.io/gorm"

	"steam-soundboard/backend/internal/media"
	"steam-soundboard/backend/internal/repository"
	"steam-soundboard/backend/internal/service"
	"steam-soundboard/backend/internal/ws"
	"steam-soundboard/backend/pkg/cache"
	"steam-soundboard/backend/pkg/jwt"
	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/middleware"
	"steam-soundboard/backend/pkg/observability"
)

// Container holds all the dependencies for the application
type Container struct {
	DB     *gorm.DB
	Logger *logger.Logger
	KV     cache.KV

	JWTService *jwt.Service
	Metrics    *observability.Metrics

	UserService     *service.UserService
	SettingsService *service.SettingsService
	SoundService    *service.SoundService
	QuotaCache      *service.QuotaCache

	Registry *ws.Registry
	Gateway  *ws.Gateway
	Notifier *ws.Notifier

	UploadLimiter *middleware.UploadLimiter
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig logger.Config

	JWTSecret string
	JWTExpiry time.Duration

	StorageRoot string
	FFmpegPath  string
	FFprobePath string

	QuotaTTL    time.Duration
	SettingsTTL time.Duration

	PluginAuthTimeout time.Duration

	UploadRateLimit  int
	UploadRateWindow time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig:      logger.DefaultConfig(),
		JWTExpiry:         24 * time.Hour,
		StorageRoot:       "./data/sounds",
		QuotaTTL:          5 * time.Minute,
		SettingsTTL:       5 * time.Minute,
		PluginAuthTimeout: 10 * time.Second,
		UploadRateLimit:   5,
		UploadRateWindow:  60 * time.Second,
	}
}

// New creates a new dependency injection container
func New(db *gorm.DB, kv cache.KV, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.New(config.LoggerConfig)
	metrics := observability.New()

	jwtService := jwt.NewService(config.JWTSecret, config.JWTExpiry)

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	soundRepo := repository.NewGormSoundRepository(db)
	settingsRepo := repository.NewGormSettingsRepository(db)

	// Core services
	userService := service.NewUserService(userRepo)
	settingsService := service.NewSettingsService(settingsRepo, kv, config.SettingsTTL, log)
	quotaCache := service.NewQuotaCache(kv, config.QuotaTTL)

	prober := media.NewFFprobe(config.FFprobePath)
	transcoder := media.NewFFmpeg(config.FFmpegPath)

	soundService := service.NewSoundService(
		soundRepo,
		settingsService,
		quotaCache,
		prober,
		transcoder,
		config.StorageRoot,
		log,
	)
	soundService.SetMetrics(metrics)

	// Plugin socket gateway
	registry := ws.NewRegistry()
	machine := ws.NewMachine(userService, soundService, log)
	gateway := ws.NewGateway(machine, registry, config.PluginAuthTimeout, log, metrics)
	notifier := ws.NewNotifier(registry, soundService, log, metrics)
	soundService.SetNotifier(notifier)

	uploadLimiter := middleware.NewUploadLimiter(kv, config.UploadRateLimit, config.UploadRateWindow, log)

	return &Container{
		DB:              db,
		Logger:          log,
		KV:              kv,
		JWTService:      jwtService,
		Metrics:         metrics,
		UserService:     userService,
		SettingsService: settingsService,
		SoundService:    soundService,
		QuotaCache:      quotaCache,
		Registry:        registry,
		Gateway:         gateway,
		Notifier:        notifier,
		UploadLimiter:   uploadLimiter,
	}, nil
}
