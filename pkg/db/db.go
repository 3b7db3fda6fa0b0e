package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ecomart/pkg/logger"
)

// Config holds database configuration
type Config struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	Timeout       time.Duration
	SlowThreshold time.Duration
}

// DSN returns the postgres connection string for cfg
func (cfg Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// NewConnection opens a pooled postgres connection. Slow queries and
// errors other than record-not-found are reported through log.
func NewConnection(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	return Open(cfg.DSN(), cfg.Timeout, cfg.SlowThreshold, log)
}

// Open opens a pooled postgres connection for a raw DSN
func Open(dsn string, timeout, slowThreshold time.Duration, log *logger.Logger) (*gorm.DB, error) {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	gormLog := gormlogger.Default.LogMode(gormlogger.Silent)
	if log != nil {
		gormLog = gormlogger.New(
			zap.NewStdLog(log.Logger.With(zap.String("component", "gorm"))),
			gormlogger.Config{
				SlowThreshold:             slowThreshold,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Transaction runs fn inside a transaction bound to ctx. A nested call on a
// transaction handle uses a savepoint.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
