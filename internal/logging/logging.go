// Package logging provides the structured logger used across every
// component of the recommendation platform.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with platform-wide fields baked in.
type Logger struct {
	*zap.Logger
	service     string
	environment string
}

// Config controls logger construction.
type Config struct {
	Level       string
	Service     string
	Environment string
	Format      string // "json" or "console"
}

// New builds a Logger. Defaults: info level, json format, environment from
// CRM_ENV (falls back to "development").
func New(cfg Config) *Logger {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Service == "" {
		cfg.Service = "crm-reco-platform"
	}
	if cfg.Environment == "" {
		cfg.Environment = getEnv("CRM_ENV", "development")
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	base := zap.New(core, zap.AddCaller()).With(
		zap.String("service", cfg.Service),
		zap.String("environment", cfg.Environment),
	)

	return &Logger{Logger: base, service: cfg.Service, environment: cfg.Environment}
}

// WithRun returns a logger scoped to a recommendation/transform/ingestion run.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("run_id", runID)), service: l.service, environment: l.environment}
}

// WithCustomer returns a logger scoped to a customer_code.
func (l *Logger) WithCustomer(customerCode string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("customer_code", customerCode)), service: l.service, environment: l.environment}
}

// StageTiming logs the duration of a pipeline stage.
func (l *Logger) StageTiming(stage string, duration time.Duration, rows int) {
	l.Info("pipeline stage complete",
		zap.String("stage", stage),
		zap.Duration("duration", duration),
		zap.Int("rows", rows),
	)
}

// CacheEvent logs a cache hit/miss for a named cache (e.g. the alias cache).
func (l *Logger) CacheEvent(cache, key string, hit bool) {
	l.Debug("cache lookup",
		zap.String("cache", cache),
		zap.String("key", key),
		zap.Bool("hit", hit),
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

var global *Logger

// Init sets the process-wide logger.
func Init(cfg Config) *Logger {
	global = New(cfg)
	return global
}

// Get returns the process-wide logger, constructing a default one on first use.
func Get() *Logger {
	if global == nil {
		global = New(Config{})
	}
	return global
}
