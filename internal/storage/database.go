package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reelchat/internal/config"
	"reelchat/internal/models"
)

// InitDB opens the database described by cfg. Postgres is the production
// backend; sqlite serves local runs and tests.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dsn := postgresDSN(cfg)
		slog.Debug("opening postgres", "host", cfg.Host, "port", cfg.Port, "db", cfg.DBName)
		dialector = postgres.Open(dsn)
	case "sqlite":
		slog.Debug("opening sqlite", "path", cfg.SQLitePath)
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(cfg.LogSQL)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Type == "sqlite" {
		// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func postgresDSN(cfg config.DatabaseConfig) string {
	parts := []string{
		fmt.Sprintf("host=%s", cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		fmt.Sprintf("user=%s", cfg.User),
		fmt.Sprintf("dbname=%s", cfg.DBName),
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", cfg.Password))
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))
	return strings.Join(parts, " ")
}

// newGormLogger routes gorm output through the default slog handler.
func newGormLogger(logSQL bool) logger.Interface {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// AutoMigrateTables runs GORM's auto-migration for every persisted model.
func AutoMigrateTables(db *gorm.DB) error {
	slog.Info("migrating database schema")
	err := db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.FriendEdge{},
		&models.PairLock{},
		&models.Room{},
		&models.RoomMessage{},
	)
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	slog.Info("database schema up to date")
	return nil
}
