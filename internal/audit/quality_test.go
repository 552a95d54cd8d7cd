package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store/memstore"
)

// Two customers, three items total, two distinct products. Hand-computed:
//   coverage = 2/4 = 0.5
//   diversity = min(2/(3*0.7), 1.0) = min(0.952, 1.0) = 0.952380...
//   accuracy_proxy = mean(score)/100 = ((80+60+40)/3)/100 = 0.6
//   diversity_ratio: C1 has 2 distinct products over 2 own items -> 1.0,
//     C2 has 1 distinct product over 1 own item -> 1.0, mean=1.0
//   quality_score = 0.4*0.5 + 0.3*0.952380... + 0.3*0.6 = 0.2 + 0.285714... + 0.18 = 0.665714...
func TestComputeQualityMetricsFormulas(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()

	run := schema.RecoRun{RunID: "run-1", StartedAt: now, FinishedAt: now}
	items := []schema.RecoItem{
		{RunID: "run-1", CustomerCode: "C1", ProductCode: "P1", Rank: 1, FinalScore: 80},
		{RunID: "run-1", CustomerCode: "C1", ProductCode: "P2", Rank: 2, FinalScore: 60},
		{RunID: "run-1", CustomerCode: "C2", ProductCode: "P1", Rank: 1, FinalScore: 40},
	}
	require.NoError(t, st.PersistRun(ctx, run, items))

	m, err := ComputeQualityMetrics(ctx, st, "run-1", 4, now)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, m.Coverage, 1e-9)
	assert.InDelta(t, 2.0/2.1, m.Diversity, 1e-6)
	assert.InDelta(t, 0.6, m.AccuracyProxy, 1e-9)
	assert.InDelta(t, 60.0, m.AvgScore, 1e-9)
	assert.InDelta(t, 60.0, m.MedianScore, 1e-9)
	assert.InDelta(t, 1.0, m.DiversityRatio, 1e-9)
	assert.InDelta(t, 0.4*0.5+0.3*(2.0/2.1)+0.3*0.6, m.QualityScore, 1e-6)
	assert.Equal(t, schema.ClassifyQualityLevel(m.QualityScore), m.QualityLevel)
}

// Guards against dividing by the run-wide unique-product count instead of
// each customer's own item count: C1 has 3 distinct products across 3
// items, C2 has 1 item, run-wide unique products = 4 (P1-P4). The correct
// diversity_ratio is mean(3/3, 1/1) = 1.0, not mean(3/4, 1/4) = 0.5.
func TestComputeQualityMetricsDiversityRatioUsesPerCustomerItemCount(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Now()

	run := schema.RecoRun{RunID: "run-1", StartedAt: now, FinishedAt: now}
	items := []schema.RecoItem{
		{RunID: "run-1", CustomerCode: "C1", ProductCode: "P1", Rank: 1, FinalScore: 80},
		{RunID: "run-1", CustomerCode: "C1", ProductCode: "P2", Rank: 2, FinalScore: 70},
		{RunID: "run-1", CustomerCode: "C1", ProductCode: "P3", Rank: 3, FinalScore: 60},
		{RunID: "run-1", CustomerCode: "C2", ProductCode: "P4", Rank: 1, FinalScore: 50},
	}
	require.NoError(t, st.PersistRun(ctx, run, items))

	m, err := ComputeQualityMetrics(ctx, st, "run-1", 2, now)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, m.DiversityRatio, 1e-9)
}

func TestComputeQualityMetricsNoItems(t *testing.T) {
	st := memstore.New()
	m, err := ComputeQualityMetrics(context.Background(), st, "missing-run", 10, time.Now())
	require.NoError(t, err)
	assert.Zero(t, m.Coverage)
	assert.Equal(t, schema.QualityPoor, m.QualityLevel)
}

func TestMedianEvenAndOdd(t *testing.T) {
	assert.InDelta(t, 2.0, median([]float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 2.5, median([]float64{1, 2, 3, 4}), 1e-9)
	assert.Zero(t, median(nil))
}
