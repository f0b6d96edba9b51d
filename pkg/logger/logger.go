package logger

import (
	"sync"

	"github.com/ogboNoble001/brightnal-backend/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// InitLogger builds the process-wide logger from configuration.
// Development environments get console output, everything else gets
// production JSON on stdout.
func InitLogger(cfg *config.Config) {
	once.Do(func() {
		var zapCfg zap.Config
		if cfg.Server.Env == "development" {
			zapCfg = zap.NewDevelopmentConfig()
		} else {
			zapCfg = zap.NewProductionConfig()
		}
		zapCfg.OutputPaths = []string{"stdout"}

		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err == nil {
			zapCfg.Level = zap.NewAtomicLevelAt(level)
		}

		logger, err := zapCfg.Build()
		if err != nil {
			panic(err)
		}
		instance = logger
		zap.ReplaceGlobals(logger)
	})
}

// GetLogger returns the process-wide logger, falling back to a
// production default if InitLogger has not run.
func GetLogger() *zap.Logger {
	once.Do(func() {
		logger, err := zap.NewProductionConfig().Build()
		if err != nil {
			panic(err)
		}
		instance = logger
	})
	return instance
}
