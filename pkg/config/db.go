package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	applog "steam-soundboard/backend/pkg/logger"
)

// connectRetries bounds startup waiting for the database container
const connectRetries = 5

// NewDB opens the postgres connection for the soundboard store. DB_TIMEOUT
// drives both the connect timeout and the delay between startup retries.
func NewDB() (*gorm.DB, error) {
	cfg := Get()
	log := applog.GetGlobal()

	timeout := cfg.Database.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		int(timeout.Seconds()),
	)

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	}
	if cfg.Server.Env == "development" {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= connectRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying",
			"attempt", attempt,
			"retries", connectRetries,
			"delay", timeout.String(),
		)
		time.Sleep(timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d retries: %w", connectRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// Uploads hold a connection across the quota check and the commit, so
	// keep idle headroom proportional to the pool instead of a fixed count
	idle := cfg.Database.MaxConns / 2
	if idle < 2 {
		idle = 2
	}
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

// TestConnection pings the database. gorm opens lazily, so a successful
// NewDB does not guarantee the server is actually reachable.
func TestConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
