package database

import (
	"fmt"

	"company-service/internal/model"
	"company-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database connection with the provided configuration and
// returns the handle. Callers pass it on to the repositories; there is no
// package-level instance.
func Connect(cfg *config.DBConfig) (*gorm.DB, error) {
	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	// PreferSimpleProtocol disables implicit prepared statement usage to
	// prevent "prepared statement already exists" errors behind pgbouncer.
	pgConfig := postgres.Config{
		DSN:                  cfg.GetDSN(),
		PreferSimpleProtocol: true,
	}

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the repositories rely on to detect
	// registration races lost to the unique indexes.
	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database connection: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// AutoMigrate will automatically create or update the table structure
	// based on our models, including the unique indexes on company_code and
	// email that guard the registration race.
	if err := db.AutoMigrate(&model.Company{}, &model.OTPRequest{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}
