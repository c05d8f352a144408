package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/pkg/cache"
	"steam-soundboard/backend/pkg/config"
	"steam-soundboard/backend/pkg/di"
	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/router"
	"steam-soundboard/backend/pkg/secrets"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("starting soundboard backend", "version", os.Getenv("APP_VERSION"))

	// Secrets: Vault when configured, environment otherwise
	secretsManager, err := secrets.NewVaultManager(appLog)
	if err != nil {
		appLog.LogError(err, "failed to initialize secrets manager")
		os.Exit(1)
	}
	jwtSecret := secretsManager.GetSecretWithDefault(context.Background(), "jwt_secret", cfg.JWT.Secret)
	if jwtSecret == "" {
		appLog.Error("no JWT secret configured; set JWT_SECRET or configure Vault")
		os.Exit(1)
	}

	// Database
	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "failed to initialize database")
		os.Exit(1)
	}
	if err := config.TestConnection(db); err != nil {
		appLog.LogError(err, "database unreachable")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Sound{}, &models.Settings{}); err != nil {
		appLog.LogError(err, "failed to migrate database")
		os.Exit(1)
	}

	// Cache: Redis when reachable, in-process memory otherwise
	var kv cache.KV
	if cfg.Redis.Enabled {
		redisKV := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, appLog)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisKV.Ping(pingCtx)
		cancel()
		if err != nil {
			appLog.Warn("redis unreachable, using in-memory cache", "addr", cfg.Redis.Addr, "error", err.Error())
			kv = cache.NewMemory(cfg.Cache.PurgeWindow)
		} else {
			kv = redisKV
		}
	} else {
		kv = cache.NewMemory(cfg.Cache.PurgeWindow)
	}

	// Storage root for per-identity sound directories
	if err := os.MkdirAll(cfg.Storage.Root, 0o755); err != nil {
		appLog.LogError(err, "failed to create storage root", "dir", cfg.Storage.Root)
		os.Exit(1)
	}

	diConfig := &di.Config{
		LoggerConfig:      logConfig,
		JWTSecret:         jwtSecret,
		JWTExpiry:         cfg.JWT.Expiry,
		StorageRoot:       cfg.Storage.Root,
		FFmpegPath:        cfg.Storage.FFmpegPath,
		FFprobePath:       cfg.Storage.FFprobePath,
		QuotaTTL:          cfg.Cache.QuotaTTL,
		SettingsTTL:       cfg.Cache.SettingsTTL,
		PluginAuthTimeout: cfg.Plugin.AuthTimeout,
		UploadRateLimit:   cfg.Upload.RateLimit,
		UploadRateWindow:  cfg.Upload.RateWindow,
	}

	container, err := di.New(db, kv, diConfig)
	if err != nil {
		appLog.LogError(err, "failed to initialize dependency container")
		os.Exit(1)
	}

	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		appLog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "server failed to start")
			os.Exit(1)
		}
	}()

	// Graceful shutdown; plugin clients re-authenticate after restart
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.LogError(err, "server forced to shutdown")
		os.Exit(1)
	}

	appLog.Info("server exited")
}
