package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Redis configuration (quota/settings cache)
	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	// JWT session configuration
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// Storage holds filesystem layout for uploaded sounds
	Storage struct {
		// Root is the directory holding one subdirectory per steam id
		Root string
		// FFmpegPath and FFprobePath locate the external codec tooling
		FFmpegPath  string
		FFprobePath string
	}

	// Upload limits enforced outside the persisted settings
	Upload struct {
		// RateLimit is uploads allowed per RateWindow per identity
		RateLimit  int
		RateWindow time.Duration
	}

	// Plugin socket configuration
	Plugin struct {
		// AuthTimeout closes connections that never authenticate
		AuthTimeout time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings
	Cache struct {
		QuotaTTL    time.Duration
		SettingsTTL time.Duration
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "soundboard")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Redis config
		instance.Redis.Enabled = getEnvBool("REDIS_ENABLED", true)
		instance.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
		instance.Redis.Password = getEnvString("REDIS_PASSWORD", "")
		instance.Redis.DB = getEnvInt("REDIS_DB", 0)

		// JWT config
		instance.JWT.Secret = getEnvString("JWT_SECRET", "")
		instance.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

		// Storage config
		instance.Storage.Root = getEnvString("SOUNDS_DIR", "./data/sounds")
		instance.Storage.FFmpegPath = getEnvString("FFMPEG_PATH", "ffmpeg")
		instance.Storage.FFprobePath = getEnvString("FFPROBE_PATH", "ffprobe")

		// Upload rate limit: 5 uploads per minute per identity
		instance.Upload.RateLimit = getEnvInt("UPLOAD_RATE_LIMIT", 5)
		instance.Upload.RateWindow = getEnvDuration("UPLOAD_RATE_WINDOW", 60*time.Second)

		// Plugin socket
		instance.Plugin.AuthTimeout = getEnvDuration("PLUGIN_AUTH_TIMEOUT", 10*time.Second)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Cache settings
		instance.Cache.QuotaTTL = getEnvDuration("QUOTA_CACHE_TTL", 5*time.Minute)
		instance.Cache.SettingsTTL = getEnvDuration("SETTINGS_CACHE_TTL", 5*time.Minute)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
