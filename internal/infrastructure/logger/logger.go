// Package logger builds the zap logger and carries request-scoped fields
// (request id, user id, trace id) through context.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Config struct {
	Level      string // debug, info, warn or error
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
}

func DefaultConfig() *Config {
	return &Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: defaultTimeFormat}
}

// New builds the primary core and tees it with extra, such as the
// OpenTelemetry log bridge. Each extra core applies its own level.
func New(cfg *Config, extra ...zapcore.Core) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == "" {
		out = "stdout"
	}
	sink, _, err := zap.Open(out)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder(cfg), sink, ParseLevel(cfg.Level))}
	for _, c := range extra {
		if c != nil {
			cores = append(cores, c)
		}
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// Tee adds core next to whatever l already writes to
func Tee(l *zap.Logger, core zapcore.Core) *zap.Logger {
	if core == nil {
		return l
	}
	return l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
}

// ParseLevel falls back to info for empty or unknown names
func ParseLevel(level string) zapcore.Level {
	if strings.EqualFold(level, "warning") {
		return zapcore.WarnLevel
	}
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func encoder(cfg *Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.MessageKey = "msg"
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(defaultTimeFormat)
	if cfg.TimeFormat != "" {
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	}
	if cfg.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}
