// Package scoring implements the scorer and family-aware diversifier (C7),
// per spec.md section 4.7.
package scoring

import (
	"sort"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// RecoScore carries the four component scores plus the final score for
// one (customer, product, scenario) candidate, per spec.md 4.7.
type RecoScore struct {
	ProductCode     string
	Family          schema.ProductCategory
	Scenario        schema.Scenario
	BaseScore       float64
	AffinityScore   float64
	PopularityScore float64
	ProfitScore     float64
	FinalScore      float64
}

// baseScoreByScenario is spec.md 4.7's fixed per-scenario base score.
func baseScoreByScenario(scenario schema.Scenario) float64 {
	switch scenario {
	case schema.ScenarioRebuy:
		return 85
	case schema.ScenarioCrossSell:
		return 75
	case schema.ScenarioUpsell:
		return 80
	case schema.ScenarioWinback:
		return 70
	case schema.ScenarioNurture:
		return 65
	default:
		return 0
	}
}

// Score computes a RecoScore for one candidate, per spec.md 4.7. topFamily
// is the customer's top-1 family (empty if unknown).
func Score(scenario schema.Scenario, product schema.Product, topFamily schema.ProductCategory) RecoScore {
	base := baseScoreByScenario(scenario)

	affinity := 50.0
	if topFamily != "" {
		if product.Family == topFamily {
			affinity = 75.0
		} else if product.Family != "" {
			affinity = 60.0
		}
	}

	popularity := product.Popularity
	popularityScore := 50.0
	if popularity > 0 {
		popularityScore = 100 * popularity
	}

	// profit_score is a fixed proxy for real margin data (unavailable at
	// source per spec.md 9's open question): popularity * 100, 50 if
	// missing.
	profitScore := popularityScore

	final := 0.40*affinity + 0.30*popularityScore + 0.20*profitScore + 0.10*base

	return RecoScore{
		ProductCode:     product.ProductCode,
		Family:          product.Family,
		Scenario:        scenario,
		BaseScore:       base,
		AffinityScore:   affinity,
		PopularityScore: popularityScore,
		ProfitScore:     profitScore,
		FinalScore:      final,
	}
}

// Rank sorts candidates by final_score descending, with a stable tie-break
// on (scenario priority, product_code), per spec.md 4.7.
func Rank(scores []RecoScore) []RecoScore {
	ranked := make([]RecoScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		pi, pj := schema.ScenarioPriority[ranked[i].Scenario], schema.ScenarioPriority[ranked[j].Scenario]
		if pi != pj {
			return pi < pj
		}
		return ranked[i].ProductCode < ranked[j].ProductCode
	})
	return ranked
}

// Diversify runs the greedy, family-aware diversification of spec.md 4.7:
// always accept the first candidate; subsequently accept a candidate whose
// family is not yet represented; once the slate reaches k, stop; if after
// one pass fewer than k items are collected, fall back to accepting
// same-family candidates in rank order until k.
func Diversify(ranked []RecoScore, k int) []RecoScore {
	if k <= 0 || len(ranked) == 0 {
		return nil
	}

	var slate []RecoScore
	seenFamily := map[schema.ProductCategory]bool{}
	taken := map[int]bool{}

	for i, candidate := range ranked {
		if len(slate) >= k {
			break
		}
		if len(slate) == 0 {
			slate = append(slate, candidate)
			seenFamily[candidate.Family] = true
			taken[i] = true
			continue
		}
		if !seenFamily[candidate.Family] {
			slate = append(slate, candidate)
			seenFamily[candidate.Family] = true
			taken[i] = true
		}
	}

	if len(slate) < k {
		for i, candidate := range ranked {
			if len(slate) >= k {
				break
			}
			if taken[i] {
				continue
			}
			slate = append(slate, candidate)
			taken[i] = true
		}
	}

	return slate
}
