package transform

import (
	"sort"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/shopspring/decimal"
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// topShares returns the top-n families by CA share, per spec.md 4.4
// Stage E's "top-1 and top-2 family ... with CA share".
func topShares(byKey map[schema.ProductCategory]float64, total float64, n int, build func(schema.ProductCategory, float64) schema.FamilyShare) []schema.FamilyShare {
	if total <= 0 {
		return nil
	}
	type kv struct {
		k schema.ProductCategory
		v float64
	}
	var pairs []kv
	for k, v := range byKey {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v > pairs[j].v })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]schema.FamilyShare, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, build(p.k, p.v/total))
	}
	return out
}

func topGrapeShares(byGrape map[string]float64, total float64, n int) []schema.GrapeShare {
	if total <= 0 {
		return nil
	}
	type kv struct {
		k string
		v float64
	}
	var pairs []kv
	for k, v := range byGrape {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v > pairs[j].v })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]schema.GrapeShare, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, schema.GrapeShare{Grape: p.k, Share: p.v / total})
	}
	return out
}

func topKey(byKey map[string]float64) string {
	best := ""
	bestV := -1.0
	for k, v := range byKey {
		if v > bestV {
			best = k
			bestV = v
		}
	}
	return best
}

func topPriceBand(byBand map[schema.PriceSegment]float64) schema.PriceSegment {
	var best schema.PriceSegment
	bestV := -1.0
	for k, v := range byBand {
		if v > bestV {
			best = k
			bestV = v
		}
	}
	return best
}

// herfindahlComplement computes 1 - Σᵢ(shareᵢ)² over family CA shares, per
// spec.md 4.4 Stage E's "family diversity score".
func herfindahlComplement(byFamily map[schema.ProductCategory]float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range byFamily {
		share := v / total
		sumSquares += share * share
	}
	return 1 - sumSquares
}

// topAromaAxes returns the top-3 aroma axes weighted by CA-share of
// purchased products, each with a confidence computed as
// min(1, Σweights/confidence_threshold), per spec.md 4.4 Stage E.
func topAromaAxes(weights [schema.AromaAxisCount]float64) []schema.AromaAffinity {
	type kv struct {
		axis   string
		weight float64
	}
	var pairs []kv
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		pairs = append(pairs, kv{schema.AromaAxisNames[i], w})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].weight > pairs[j].weight })
	if len(pairs) > 3 {
		pairs = pairs[:3]
	}
	out := make([]schema.AromaAffinity, 0, len(pairs))
	for _, p := range pairs {
		confidence := p.weight / aromaConfidenceThreshold
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, schema.AromaAffinity{Axis: p.axis, Confidence: confidence})
	}
	return out
}

// AromaLevel buckets an aroma confidence into LOW/MEDIUM/HIGH, per
// spec.md 4.4 Stage E's "qualitative aroma level by confidence band".
func AromaLevel(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "HIGH"
	case confidence >= 0.4:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
