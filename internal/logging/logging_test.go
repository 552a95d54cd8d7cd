package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewAppliesDefaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, "crm-reco-platform", l.service)
	assert.Equal(t, "development", l.environment)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	l := New(Config{Level: "debug"})
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewFallsBackToInfoOnInvalidLevel(t *testing.T) {
	l := New(Config{Level: "not-a-level"})
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewHonorsExplicitServiceAndEnvironment(t *testing.T) {
	l := New(Config{Service: "ingestion-worker", Environment: "staging"})
	assert.Equal(t, "ingestion-worker", l.service)
	assert.Equal(t, "staging", l.environment)
}

func TestWithRunAndWithCustomerPreserveServiceAndEnvironment(t *testing.T) {
	l := New(Config{Service: "svc", Environment: "prod"})
	scoped := l.WithRun("run-1").WithCustomer("C1")
	assert.Equal(t, "svc", scoped.service)
	assert.Equal(t, "prod", scoped.environment)
}

func TestStageTimingAndCacheEventDoNotPanic(t *testing.T) {
	l := New(Config{})
	assert.NotPanics(t, func() {
		l.StageTiming("transform", 2*time.Second, 10)
		l.CacheEvent("alias", "P1", true)
	})
}

func TestInitAndGetReturnProcessWideLogger(t *testing.T) {
	set := Init(Config{Service: "svc-a"})
	assert.Same(t, set, Get())
	assert.Equal(t, "svc-a", Get().service)
}

func TestGetConstructsDefaultWhenNeverInitialized(t *testing.T) {
	global = nil
	l := Get()
	assert.NotNil(t, l)
	assert.Equal(t, "crm-reco-platform", l.service)
}
