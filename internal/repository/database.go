// Package repository provides data access layer using GORM for database operations.
package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/solepick/fantasy-league/internal/config"
	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// Sentinel errors for the consistency guards the write path enforces.
// Handlers map these onto HTTP statuses with errors.Is.
var (
	// ErrNotFound wraps gorm.ErrRecordNotFound lookups at the repository boundary.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrAlreadyReversed is returned when a ledger entry already has a reversal.
	ErrAlreadyReversed = errors.New("event has already been reversed")

	// ErrReversalEntry is returned when a reversal entry is itself targeted for removal.
	ErrReversalEntry = errors.New("cannot reverse a reversal entry")

	// ErrNoCurrentEpisode is returned when no current episode is configured.
	ErrNoCurrentEpisode = errors.New("no current episode configured")
)

// DB holds the database connection.
type DB struct {
	*gorm.DB
}

// NewDB creates a new database connection.
func NewDB(cfg *config.PostgresConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	// Configure GORM logger
	var gormLogLevel gormlogger.LogLevel
	switch log.GetLogger().GetLevel() {
	case 0: // debug
		gormLogLevel = gormlogger.Info
	default:
		gormLogLevel = gormlogger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to PostgreSQL")

	return &DB{db}, nil
}

// AutoMigrate runs database migrations for all models. Production uses the
// embedded SQL migrations (RunMigrations); this path backs the sqlite test
// databases.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.EventType{},
		&models.Episode{},
		&models.LeagueSettings{},
		&models.Contestant{},
		&models.ContestantEvent{},
		&models.EpisodeScore{},
		&models.Player{},
		&models.DraftPick{},
		&models.SoleSurvivorHistory{},
		&models.Prediction{},
	)
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database is healthy.
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
