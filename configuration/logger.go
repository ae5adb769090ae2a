package configuration

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Configuration) Logger() (*zap.Logger, error) {

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var config zap.Config
	switch c.LogFormat {
	case "json", "":
		config = zap.NewProductionConfig()
	case "console":
		config = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format '%s'", c.LogFormat)
	}
	config.Level = zap.NewAtomicLevelAt(level)

	return config.Build()
}
