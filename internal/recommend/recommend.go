// Package recommend implements the recommendation orchestrator (C9), per
// spec.md section 4.9: per-customer run coordination of C5-C8 and
// transactional persistence.
package recommend

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/iaros/crm-reco-platform/internal/explain"
	"github.com/iaros/crm-reco-platform/internal/features"
	"github.com/iaros/crm-reco-platform/internal/logging"
	"github.com/iaros/crm-reco-platform/internal/outcomes"
	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/scenarios"
	"github.com/iaros/crm-reco-platform/internal/scoring"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// DefaultK is spec.md 4.9's default max recommendations per customer.
const DefaultK = 3

// DefaultSilenceWindowDays is spec.md 6's default silence-window days.
const DefaultSilenceWindowDays = 30

// Options configures one recommend() call, per spec.md 4.9.
type Options struct {
	MaxK               int
	EnableSilenceCheck bool
	SilenceWindowDays  int
	Now                time.Time
}

// Result is the (result, success) pair spec.md 4.9/6 describes.
type Result struct {
	CustomerCode string
	RunID        string
	Success      bool
	Reason       string
	Items        []schema.RecoItem
}

// Recommend runs the full per-customer pipeline, per spec.md 4.9 steps
// 1-7. notifier is called post-persistence for contactable customers only
// (SPEC_FULL.md section 7's supplemented outbound contract); a nil
// notifier skips notification entirely.
func Recommend(ctx context.Context, st store.Store, customerCode string, opts Options, logger *logging.Logger, notifier outcomes.NotificationPort) (Result, error) {
	if opts.MaxK <= 0 {
		opts.MaxK = DefaultK
	}
	if opts.SilenceWindowDays <= 0 {
		opts.SilenceWindowDays = DefaultSilenceWindowDays
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	runID := uuid.NewString()
	result := Result{CustomerCode: customerCode, RunID: runID}

	f, err := features.Compute(ctx, st, customerCode, opts.SilenceWindowDays, opts.Now)
	if err != nil {
		return result, err
	}

	if opts.EnableSilenceCheck && f.InSilenceWindow {
		result.Success = false
		result.Reason = "customer is in silence window"
		return result, nil
	}

	seed := seedFor(runID, customerCode)
	candidates, err := scenarios.Match(ctx, st, f, customerCode, nil, seed, opts.Now)
	if err != nil {
		return result, err
	}
	if len(candidates) == 0 {
		result.Success = false
		result.Reason = "no scenario matched"
		return result, nil
	}

	products, err := st.ListProducts(ctx)
	if err != nil {
		return result, err
	}
	byCode := make(map[string]schema.Product, len(products))
	for _, p := range products {
		byCode[p.ProductCode] = p
	}

	topFamily := topFamilyOf(f)

	var rawScores []scoring.RecoScore
	for scenario, productCodes := range candidates {
		for _, code := range productCodes {
			product, ok := byCode[code]
			if !ok {
				continue
			}
			rawScores = append(rawScores, scoring.Score(scenario, product, topFamily))
		}
	}

	ranked := scoring.Rank(rawScores)
	slate := scoring.Diversify(ranked, opts.MaxK)

	customer, _, err := st.GetCustomerByCode(ctx, customerCode)
	if err != nil {
		return result, err
	}

	var items []schema.RecoItem
	for i, s := range slate {
		product := byCode[s.ProductCode]
		var lastPurchaseAt *time.Time
		if s.Scenario == schema.ScenarioRebuy {
			lastPurchaseAt = f.LastPurchaseDate
		}
		expl := explain.Generate(explain.Context{
			CustomerCode:   customerCode,
			Product:        product,
			Scenario:       s.Scenario,
			LastPurchaseAt: lastPurchaseAt,
			TopFamily:      topFamily,
		})
		items = append(items, schema.RecoItem{
			RunID:           runID,
			CustomerCode:    customerCode,
			ProductCode:     s.ProductCode,
			Scenario:        s.Scenario,
			Rank:            i + 1,
			BaseScore:       s.BaseScore,
			AffinityScore:   s.AffinityScore,
			PopularityScore: s.PopularityScore,
			ProfitScore:     s.ProfitScore,
			FinalScore:      s.FinalScore,
			Explanation:     expl,
			CreatedAt:       opts.Now,
		})
	}

	run := schema.RecoRun{
		RunID:             runID,
		TotalCustomers:    1,
		EligibleCustomers: 1,
		ExportedCount:     len(items),
		StartedAt:         opts.Now,
		FinishedAt:        time.Now(),
		Summary: map[string]interface{}{
			"customer_code": customerCode,
			"candidate_scenarios": len(candidates),
		},
	}
	run.Duration = run.FinishedAt.Sub(run.StartedAt)

	if err := st.PersistRun(ctx, run, items); err != nil {
		return result, err
	}

	if notifier != nil && customer.Contactable() {
		for _, item := range items {
			_ = notifier.Notify(ctx, customerCode, item)
		}
	}

	if logger != nil {
		logger.WithRun(runID).WithCustomer(customerCode).Info("recommendation run complete")
	}

	result.Success = true
	result.Items = items
	return result, nil
}

// RecommendBatch runs Recommend across an explicit or enumerated customer
// list, per spec.md 4.9's generate_batch_recommendations. Serialization is
// sequential here; callers needing parallel fan-out wrap this per spec.md
// section 5's task-pool guidance.
func RecommendBatch(ctx context.Context, st store.Store, customerCodes []string, limit int, opts Options, logger *logging.Logger, notifier outcomes.NotificationPort) (map[string]Result, error) {
	if customerCodes == nil {
		all, err := st.ListCustomerCodes(ctx)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		customerCodes = all
	}

	out := make(map[string]Result, len(customerCodes))
	for _, code := range customerCodes {
		res, err := Recommend(ctx, st, code, opts, logger, notifier)
		if err != nil {
			res.Success = false
			res.Reason = err.Error()
		}
		out[code] = res
	}
	return out, nil
}

func topFamilyOf(f features.Features) schema.ProductCategory {
	var best schema.ProductCategory
	bestShare := -1.0
	for family, share := range f.FamilyAffinity {
		if share > bestShare {
			best = family
			bestShare = share
		}
	}
	return best
}

// seedFor derives a deterministic seed from (run_id, customer_code), per
// spec.md section 5's reproducibility requirement for NURTURE sampling.
func seedFor(runID, customerCode string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(runID + "|" + customerCode))
	return int64(h.Sum64())
}
