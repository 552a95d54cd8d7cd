// Package config loads process configuration from the environment, in the
// teacher's plain getEnv/getEnvInt style (services/order_service/main.go).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every environment-overridable setting named in spec section 6.
type Config struct {
	DatabaseURL string

	SilenceWindowDays int
	MaxRecommendations int

	RedisURL     string
	KafkaBrokers []string

	GatingPolicyPath string

	LogLevel    string
	Environment string

	SchedulerEnabled     bool
	TransformCronSpec    string
	RecommendCronSpec    string
}

// Load reads configuration from the environment, applying the spec's
// defaults (silence window 30 days, max K 3).
func Load() *Config {
	return &Config{
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost:5432/crm_reco?sslmode=disable"),
		SilenceWindowDays:  getEnvInt("SILENCE_WINDOW_DAYS", 30),
		MaxRecommendations: getEnvInt("MAX_RECOMMENDATIONS", 3),
		RedisURL:           getEnv("REDIS_URL", ""),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS", nil),
		GatingPolicyPath:   getEnv("GATING_POLICY_PATH", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Environment:        getEnv("CRM_ENV", "development"),
		SchedulerEnabled:   getEnvBool("SCHEDULER_ENABLED", false),
		TransformCronSpec:  getEnv("TRANSFORM_CRON_SPEC", "0 */15 * * * *"),
		RecommendCronSpec:  getEnv("RECOMMEND_CRON_SPEC", "0 0 * * * *"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// SilenceWindow returns the configured silence window as a Duration.
func (c *Config) SilenceWindow() time.Duration {
	return time.Duration(c.SilenceWindowDays) * 24 * time.Hour
}
