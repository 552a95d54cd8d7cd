// Package outcomes implements outcome/feedback capture, rolling-window
// metrics, retraining-trigger detection, and A/B test math (C11), per
// spec.md section 4.11.
package outcomes

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// unitCostEUR is the per-recommendation cost constant spec.md 4.11 fixes
// at 100 EUR for ROI computation.
const unitCostEUR = 100.0

// NotificationPort is the supplemented outbound contract of SPEC_FULL.md
// section 7: a delivered RecoItem is announced to whatever downstream
// channel wants to know, independent of how metrics are later recorded.
type NotificationPort interface {
	Notify(ctx context.Context, customerCode string, item schema.RecoItem) error
}

// NoopNotifier discards every notification; the default when no outbound
// channel is configured.
type NoopNotifier struct{}

// Notify implements NotificationPort.
func (NoopNotifier) Notify(ctx context.Context, customerCode string, item schema.RecoItem) error {
	return nil
}

// RecordOutcome persists one outcome fact, per spec.md 4.11's
// record_outcome.
func RecordOutcome(ctx context.Context, st store.OutcomeStore, runID, customerCode, productCode string, status schema.OutcomeStatus, amountEUR *decimal.Decimal) error {
	revenue := decimal.Zero
	if amountEUR != nil {
		revenue = *amountEUR
	}
	return st.RecordOutcome(ctx, schema.OutcomeEvent{
		ID:           uuid.NewString(),
		RunID:        runID,
		CustomerCode: customerCode,
		ProductCode:  productCode,
		Status:       status,
		RevenueEUR:   revenue,
		RecordedAt:   time.Now(),
	})
}

// RecordFeedback persists one feedback fact and derives its sentiment, per
// spec.md 4.11: score >=4 positive, >=3 neutral, else negative.
func RecordFeedback(ctx context.Context, st store.OutcomeStore, runID, customerCode, productCode string, score int, comment string) error {
	return st.RecordFeedback(ctx, schema.FeedbackRecord{
		ID:           uuid.NewString(),
		RunID:        runID,
		CustomerCode: customerCode,
		ProductCode:  productCode,
		Score:        score,
		Sentiment:    schema.ClassifyFeedbackSentiment(score),
		Comment:      comment,
		RecordedAt:   time.Now(),
	})
}

// ComputeMetrics aggregates outcomes and feedback over [now-windowDays,
// now] into an OutcomeMetrics, per spec.md 4.11's exact formulas.
func ComputeMetrics(ctx context.Context, st store.OutcomeStore, windowDays int, now time.Time) (schema.OutcomeMetrics, error) {
	since := now.AddDate(0, 0, -windowDays)

	outcomes, err := st.OutcomesSince(ctx, since)
	if err != nil {
		return schema.OutcomeMetrics{}, err
	}
	feedback, err := st.FeedbackSince(ctx, since)
	if err != nil {
		return schema.OutcomeMetrics{}, err
	}

	m := schema.OutcomeMetrics{WindowStart: since, WindowEnd: now, Total: len(outcomes)}

	if len(outcomes) == 0 {
		return m, nil
	}

	var rejected, purchased, returned int
	revenue := decimal.Zero
	for _, o := range outcomes {
		switch o.Status {
		case schema.OutcomeRejected:
			rejected++
		case schema.OutcomePurchased:
			purchased++
			revenue = revenue.Add(o.RevenueEUR)
		case schema.OutcomeReturned:
			returned++
		}
	}

	m.AcceptanceRate = float64(len(outcomes)-rejected) / float64(len(outcomes))
	m.PurchaseRate = float64(purchased) / float64(len(outcomes))
	if purchased > 0 {
		m.ReturnRate = float64(returned) / float64(purchased)
	}
	m.RevenueImpact = revenue

	revenueFloat, _ := revenue.Float64()
	cost := unitCostEUR * float64(len(outcomes))
	if cost > 0 {
		m.ROI = (revenueFloat - cost) / cost
	}

	if len(feedback) > 0 {
		total := 0
		for _, f := range feedback {
			total += f.Score
		}
		m.AvgSatisfaction = float64(total) / float64(len(feedback))
	}

	return m, nil
}

// CheckTriggers compares a current aggregate against a previous one and
// returns every fired RetrainingTrigger, per spec.md 4.11's four
// deterministic rules. previous may be nil when no prior aggregate exists,
// in which case only the absolute-threshold rules (HIGH_RETURN_RATE,
// LOW_ACCEPTANCE_RATE) are evaluated.
func CheckTriggers(runID string, current schema.OutcomeMetrics, previous *schema.OutcomeMetrics, now time.Time) []schema.RetrainingTrigger {
	var triggers []schema.RetrainingTrigger

	if previous != nil {
		if current.PurchaseRate < 0.9*previous.PurchaseRate {
			triggers = append(triggers, schema.RetrainingTrigger{
				Kind:       "PERFORMANCE_DROP",
				Severity:   schema.SeverityHigh,
				RunID:      runID,
				Detail:     "purchase_rate dropped below 90% of previous",
				DetectedAt: now,
			})
		}
		if current.AvgSatisfaction < 0.85*previous.AvgSatisfaction {
			triggers = append(triggers, schema.RetrainingTrigger{
				Kind:       "SATISFACTION_DROP",
				Severity:   schema.SeverityMedium,
				RunID:      runID,
				Detail:     "avg_satisfaction dropped below 85% of previous",
				DetectedAt: now,
			})
		}
	}

	if current.ReturnRate > 0.15 {
		triggers = append(triggers, schema.RetrainingTrigger{
			Kind:       "HIGH_RETURN_RATE",
			Severity:   schema.SeverityHigh,
			RunID:      runID,
			Detail:     "return_rate exceeds 15%",
			DetectedAt: now,
		})
	}
	if current.AcceptanceRate < 0.5 {
		triggers = append(triggers, schema.RetrainingTrigger{
			Kind:       "LOW_ACCEPTANCE_RATE",
			Severity:   schema.SeverityMedium,
			RunID:      runID,
			Detail:     "acceptance_rate below 50%",
			DetectedAt: now,
		})
	}

	return triggers
}

// UpdateABTestResults computes conversion/revenue per arm and winner/
// confidence, per spec.md 4.11's update_ab_test_results.
func UpdateABTestResults(testID string, armAOutcomes, armBOutcomes []schema.OutcomeEvent) schema.ABTestResult {
	convA, revA := conversionAndRevenue(armAOutcomes)
	convB, revB := conversionAndRevenue(armBOutcomes)

	winner := "A"
	if convB > convA {
		winner = "B"
	}

	confidence := 0.0
	if len(armAOutcomes) >= 30 && len(armBOutcomes) >= 30 {
		confidence = zTestConfidence(convA, len(armAOutcomes), convB, len(armBOutcomes))
	}

	return schema.ABTestResult{
		TestID:         testID,
		ArmAConversion: convA,
		ArmBConversion: convB,
		ArmARevenue:    revA,
		ArmBRevenue:    revB,
		Winner:         winner,
		Confidence:     confidence,
		ArmAOutcomes:   len(armAOutcomes),
		ArmBOutcomes:   len(armBOutcomes),
	}
}

func conversionAndRevenue(outcomes []schema.OutcomeEvent) (float64, decimal.Decimal) {
	if len(outcomes) == 0 {
		return 0, decimal.Zero
	}
	purchased := 0
	revenue := decimal.Zero
	for _, o := range outcomes {
		if o.Status == schema.OutcomePurchased {
			purchased++
			revenue = revenue.Add(o.RevenueEUR)
		}
	}
	return float64(purchased) / float64(len(outcomes)), revenue
}

// zTestConfidence is the approximate two-proportion z-test of spec.md
// 4.11, capped at 0.99.
func zTestConfidence(p1 float64, n1 int, p2 float64, n2 int) float64 {
	pooled := (p1*float64(n1) + p2*float64(n2)) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1.0/float64(n1) + 1.0/float64(n2)))
	if se == 0 {
		return 0
	}
	z := math.Abs(p2-p1) / se
	return math.Min(0.99, z/1.96)
}

// SortOutcomesByTime is a small helper kept for callers that need a
// deterministic ordering before computing window boundaries.
func SortOutcomesByTime(outcomes []schema.OutcomeEvent) {
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].RecordedAt.Before(outcomes[j].RecordedAt) })
}
