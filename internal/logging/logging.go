// Package logging builds the zap loggers used across dawctl.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the logger.
type Config struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// NewDefaultConfig returns console logging at info level.
func NewDefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// Validate checks level and format.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch c.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be console or json", c.Format)
	}
	return nil
}

// New creates a logger writing to sink. A nil sink means stderr.
func New(cfg Config, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	level, _ := zapcore.ParseLevel(cfg.Level)
	if sink == nil {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
