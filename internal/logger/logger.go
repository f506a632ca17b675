package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"propalyst/internal/config"
)

// New builds a zap logger from the logging configuration. Format "json"
// produces production-style output; anything else gets the development
// console encoder.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
