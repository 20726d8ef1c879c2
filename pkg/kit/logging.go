package kit

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. LOG_LEVEL overrides the default
// info level; APP_ENV=dev switches to the human-readable development
// encoder.
func NewLogger(service string) *zap.Logger {
	var cfg zap.Config
	if os.Getenv("APP_ENV") == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zapcore.ParseLevel(lvl); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	cfg.InitialFields = map[string]any{"service": service}

	l, _ := cfg.Build()
	return l
}
