package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaros/crm-reco-platform/internal/cache"
	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store/memstore"
)

func TestLoadAliasCachePopulatesFromStoreAndFlushesStalePrefix(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	require.NoError(t, st.RegisterAlias(ctx, schema.ProductAlias{RawLabel: "chateau red 75cl", ProductCode: "P1"}))

	aliasCache := cache.New("")
	aliasCache.Set(ctx, aliasCacheKey("stale entry"), "P9", aliasCacheTTL)

	loadAliasCache(ctx, st, aliasCache)

	v, ok := aliasCache.Get(ctx, aliasCacheKey("chateau red 75cl"))
	require.True(t, ok)
	assert.Equal(t, "P1", v)

	_, ok = aliasCache.Get(ctx, aliasCacheKey("stale entry"))
	assert.False(t, ok)
}

func TestOrderLineFromRowSkipsUnresolvedAlias(t *testing.T) {
	ctx := context.Background()
	aliasCache := cache.New("")

	_, ok, err := orderLineFromRow(ctx, map[string]string{"product_label_norm": "unknown label"}, "batch-1", aliasCache)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderLineFromRowBuildsNormalizedLineOnResolvedAlias(t *testing.T) {
	ctx := context.Background()
	aliasCache := cache.New("")
	aliasCache.Set(ctx, aliasCacheKey("chateau red 75cl"), "P1", aliasCacheTTL)

	row := map[string]string{
		"product_label_norm": "chateau red 75cl",
		"customer_code":       "C1",
		"order_date":          "2026-01-15",
		"doc_ref":             "INV-1",
		"doc_type":            "invoice",
		"qty":                 "2",
		"amount_ht":           "40",
		"amount_ttc":          "48",
		"margin":              "8",
	}

	ol, ok, err := orderLineFromRow(ctx, row, "batch-1", aliasCache)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C1", ol.CustomerCode)
	assert.Equal(t, "P1", ol.ProductCode)
	assert.Equal(t, "batch-1", ol.SourceBatchID)
	assert.Equal(t, 2.0, ol.Quantity)
}

func TestOrderLineFromRowRejectsUnparseableDate(t *testing.T) {
	ctx := context.Background()
	aliasCache := cache.New("")
	aliasCache.Set(ctx, aliasCacheKey("chateau red 75cl"), "P1", aliasCacheTTL)

	row := map[string]string{
		"product_label_norm": "chateau red 75cl",
		"order_date":          "not-a-date",
	}

	_, _, err := orderLineFromRow(ctx, row, "batch-1", aliasCache)
	assert.Error(t, err)
}
