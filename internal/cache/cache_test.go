package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithEmptyURLReturnsMemStore(t *testing.T) {
	s := New("")
	_, ok := s.(*memStore)
	assert.True(t, ok)
}

func TestNewWithUnparseableURLFallsBackToMemStore(t *testing.T) {
	s := New("not-a-valid-redis-url")
	_, ok := s.(*memStore)
	assert.True(t, ok)
}

func TestMemStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New("")

	_, ok := s.Get(ctx, "k")
	assert.False(t, ok)

	s.Set(ctx, "k", "v", time.Minute)
	v, ok := s.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	s.Delete(ctx, "k")
	_, ok = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemStoreSetWithZeroTTLNeverExpiresImmediately(t *testing.T) {
	ctx := context.Background()
	s := New("")

	s.Set(ctx, "k", "v", 0)
	v, ok := s.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemStoreFlushPrefixOnlyRemovesMatching(t *testing.T) {
	ctx := context.Background()
	s := New("")

	s.Set(ctx, "alias:A1", "x", time.Minute)
	s.Set(ctx, "alias:A2", "y", time.Minute)
	s.Set(ctx, "quality:run-1", "z", time.Minute)

	s.FlushPrefix(ctx, "alias:")

	_, ok := s.Get(ctx, "alias:A1")
	assert.False(t, ok)
	_, ok = s.Get(ctx, "alias:A2")
	assert.False(t, ok)
	_, ok = s.Get(ctx, "quality:run-1")
	assert.True(t, ok)
}

type cachePayload struct {
	RunID string  `json:"run_id"`
	Score float64 `json:"score"`
}

func TestSetJSONAndGetJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New("")

	in := cachePayload{RunID: "run-1", Score: 0.75}
	require.NoError(t, SetJSON(ctx, s, "quality:run-1", in, time.Minute))

	var out cachePayload
	ok, err := GetJSON(ctx, s, "quality:run-1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetJSONMissingKeyReturnsFalse(t *testing.T) {
	ctx := context.Background()
	s := New("")

	var out cachePayload
	ok, err := GetJSON(ctx, s, "missing", &out)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetJSONInvalidPayloadReturnsError(t *testing.T) {
	ctx := context.Background()
	s := New("")
	s.Set(ctx, "bad", "not-json", time.Minute)

	var out cachePayload
	_, err := GetJSON(ctx, s, "bad", &out)
	assert.Error(t, err)
}
