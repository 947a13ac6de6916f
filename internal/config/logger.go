package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. Production uses the JSON
// production preset, everything else the development preset.
func NewLogger(server ServerConfig, logging LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if server.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}

	if logging.Level != "" {
		level, err := zap.ParseAtomicLevel(logging.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", logging.Level, err)
		}
		zcfg.Level = level
	}
	if logging.Format != "" {
		zcfg.Encoding = logging.Format
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
