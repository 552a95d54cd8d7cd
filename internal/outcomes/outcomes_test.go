package outcomes

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store/memstore"
)

func TestComputeMetricsFormulas(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	amount := decimal.NewFromInt(50)
	require.NoError(t, st.RecordOutcome(ctx, schema.OutcomeEvent{ID: "1", Status: schema.OutcomePurchased, RevenueEUR: amount, RecordedAt: now}))
	require.NoError(t, st.RecordOutcome(ctx, schema.OutcomeEvent{ID: "2", Status: schema.OutcomeRejected, RecordedAt: now}))
	require.NoError(t, st.RecordOutcome(ctx, schema.OutcomeEvent{ID: "3", Status: schema.OutcomePurchased, RevenueEUR: amount, RecordedAt: now}))
	require.NoError(t, st.RecordOutcome(ctx, schema.OutcomeEvent{ID: "4", Status: schema.OutcomeReturned, RecordedAt: now}))

	m, err := ComputeMetrics(ctx, st, 30, now.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 4, m.Total)
	assert.InDelta(t, 0.75, m.AcceptanceRate, 1e-9) // (4-1)/4
	assert.InDelta(t, 0.5, m.PurchaseRate, 1e-9)    // 2/4
	assert.InDelta(t, 0.5, m.ReturnRate, 1e-9)      // 1/2 purchased

	revenue, _ := m.RevenueImpact.Float64()
	assert.InDelta(t, 100, revenue, 1e-9)
	assert.InDelta(t, (100.0-400.0)/400.0, m.ROI, 1e-9) // (100 - 100*4)/(100*4)
}

func TestComputeMetricsNoOutcomes(t *testing.T) {
	st := memstore.New()
	m, err := ComputeMetrics(context.Background(), st, 30, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Total)
	assert.Zero(t, m.AcceptanceRate)
}

func TestCheckTriggersE7Example(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	previous := schema.OutcomeMetrics{PurchaseRate: 0.20, AvgSatisfaction: 4.0}
	current := schema.OutcomeMetrics{PurchaseRate: 0.17, AvgSatisfaction: 3.3}

	triggers := CheckTriggers("run-1", current, &previous, now)

	var kinds []string
	for _, tr := range triggers {
		kinds = append(kinds, tr.Kind)
	}
	assert.Contains(t, kinds, "PERFORMANCE_DROP")
	assert.Contains(t, kinds, "SATISFACTION_DROP")
	assert.NotContains(t, kinds, "HIGH_RETURN_RATE")
}

func TestCheckTriggersHighReturnAndLowAcceptance(t *testing.T) {
	now := time.Now()
	current := schema.OutcomeMetrics{ReturnRate: 0.20, AcceptanceRate: 0.40}

	triggers := CheckTriggers("run-1", current, nil, now)

	var kinds []string
	for _, tr := range triggers {
		kinds = append(kinds, tr.Kind)
	}
	assert.Contains(t, kinds, "HIGH_RETURN_RATE")
	assert.Contains(t, kinds, "LOW_ACCEPTANCE_RATE")
}

func TestCheckTriggersNoPreviousSkipsRelativeRules(t *testing.T) {
	current := schema.OutcomeMetrics{PurchaseRate: 0.01, AvgSatisfaction: 0.01, ReturnRate: 0, AcceptanceRate: 0.9}
	triggers := CheckTriggers("run-1", current, nil, time.Now())
	assert.Empty(t, triggers)
}

func TestUpdateABTestResultsBelowThreshold(t *testing.T) {
	armA := make([]schema.OutcomeEvent, 10)
	armB := make([]schema.OutcomeEvent, 10)
	for i := range armA {
		armA[i] = schema.OutcomeEvent{Status: schema.OutcomeNotPurchased}
		armB[i] = schema.OutcomeEvent{Status: schema.OutcomePurchased, RevenueEUR: decimal.NewFromInt(10)}
	}

	result := UpdateABTestResults("test-1", armA, armB)

	assert.Equal(t, "B", result.Winner)
	assert.Zero(t, result.Confidence) // both arms below 30 outcomes
}

func TestUpdateABTestResultsConfidenceAboveThreshold(t *testing.T) {
	armA := make([]schema.OutcomeEvent, 100)
	armB := make([]schema.OutcomeEvent, 100)
	for i := range armA {
		armA[i] = schema.OutcomeEvent{Status: schema.OutcomeNotPurchased}
		if i < 50 {
			armB[i] = schema.OutcomeEvent{Status: schema.OutcomePurchased, RevenueEUR: decimal.NewFromInt(10)}
		} else {
			armB[i] = schema.OutcomeEvent{Status: schema.OutcomeNotPurchased}
		}
	}

	result := UpdateABTestResults("test-2", armA, armB)

	assert.Equal(t, "B", result.Winner)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 0.99)
}

func TestRecordFeedbackSentimentDerivation(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	require.NoError(t, RecordFeedback(ctx, st, "run-1", "C1", "P1", 5, ""))
	require.NoError(t, RecordFeedback(ctx, st, "run-1", "C1", "P2", 3, ""))
	require.NoError(t, RecordFeedback(ctx, st, "run-1", "C1", "P3", 1, ""))

	records, err := st.FeedbackSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 3)

	sentiments := map[string]schema.FeedbackSentiment{}
	for _, r := range records {
		sentiments[r.ProductCode] = r.Sentiment
	}
	assert.Equal(t, schema.SentimentPositive, sentiments["P1"])
	assert.Equal(t, schema.SentimentNeutral, sentiments["P2"])
	assert.Equal(t, schema.SentimentNegative, sentiments["P3"])
}

func TestNoopNotifier(t *testing.T) {
	var n NotificationPort = NoopNotifier{}
	err := n.Notify(context.Background(), "C1", schema.RecoItem{})
	assert.NoError(t, err)
}
