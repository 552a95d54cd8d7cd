package audit

import (
	"context"
	"sort"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// ComputeQualityMetrics materializes the aggregate quality snapshot for
// one run, per spec.md 4.10's exact formulas.
func ComputeQualityMetrics(ctx context.Context, st store.RecoRunStore, runID string, totalCustomersInScope int, now time.Time) (schema.QualityMetrics, error) {
	items, err := st.ListItemsByRun(ctx, runID)
	if err != nil {
		return schema.QualityMetrics{}, err
	}

	m := schema.QualityMetrics{RunID: runID, ComputedAt: now}
	if len(items) == 0 {
		m.QualityLevel = schema.ClassifyQualityLevel(0)
		return m, nil
	}

	customersWithRecos := map[string]bool{}
	productsByCustomer := map[string]map[string]bool{}
	itemsByCustomer := map[string]int{}
	uniqueProducts := map[string]bool{}
	scores := make([]float64, 0, len(items))
	scoreSum := 0.0

	for _, item := range items {
		customersWithRecos[item.CustomerCode] = true
		uniqueProducts[item.ProductCode] = true
		if productsByCustomer[item.CustomerCode] == nil {
			productsByCustomer[item.CustomerCode] = map[string]bool{}
		}
		productsByCustomer[item.CustomerCode][item.ProductCode] = true
		itemsByCustomer[item.CustomerCode]++
		scores = append(scores, item.FinalScore)
		scoreSum += item.FinalScore
	}

	if totalCustomersInScope > 0 {
		m.Coverage = float64(len(customersWithRecos)) / float64(totalCustomersInScope)
	}
	m.Diversity = minFloat(float64(len(uniqueProducts))/(float64(len(items))*0.7), 1.0)
	m.AccuracyProxy = (scoreSum / float64(len(items))) / 100
	m.AvgScore = scoreSum / float64(len(items))
	m.MedianScore = median(scores)

	// diversity_ratio is the mean, over customers, of that customer's own
	// distinct-product count over their own recommendation count — not a
	// share of the run-wide unique-product set (original_source/core/audit/
	// service.py:274-290, _compute_diversity_ratio).
	ratioSum := 0.0
	for customer, products := range productsByCustomer {
		ratioSum += float64(len(products)) / float64(itemsByCustomer[customer])
	}
	m.DiversityRatio = ratioSum / float64(len(productsByCustomer))

	m.QualityScore = 0.4*m.Coverage + 0.3*m.Diversity + 0.3*m.AccuracyProxy
	m.QualityLevel = schema.ClassifyQualityLevel(m.QualityScore)

	return m, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
