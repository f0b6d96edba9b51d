package database

import (
	"fmt"
	"time"

	"github.com/ogboNoble001/brightnal-backend/internal/model"
	"github.com/ogboNoble001/brightnal-backend/pkg/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB opens the database connection, verifies it with a fixed-count
// probe and runs migrations. Pool settings come from configuration.
func InitDB(cfg *config.Config, log *zap.Logger) error {
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	var err error
	db, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.DB.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	var lastErr error
	for i := 0; i < cfg.DB.ProbeAttempts; i++ {
		if i > 0 {
			time.Sleep(cfg.DB.ProbeInterval)
		}
		if lastErr = sqlDB.Ping(); lastErr == nil {
			break
		}
		log.Warn("database probe failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", cfg.DB.ProbeAttempts),
			zap.Error(lastErr))
	}
	if lastErr != nil {
		return fmt.Errorf("database unreachable after %d attempts: %w", cfg.DB.ProbeAttempts, lastErr)
	}

	if err := db.AutoMigrate(&model.Product{}, &model.ProductImage{}, &model.User{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}
