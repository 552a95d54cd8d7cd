package transform

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// aromaConfidenceThreshold bounds the Σ weights / confidence_threshold
// formula of spec.md 4.4 Stage E so confidence saturates at 1.
const aromaConfidenceThreshold = 3.0

// BuildMasterProfiles implements Stage E for every customer with at least
// one order line, per spec.md 4.4. Quartile-bucketed r/f/m scores are
// computed across the whole customer population in this call (distinct
// from C5's fixed-bucket scoring, which is quartile-independent so it can
// serve single-customer queries).
func BuildMasterProfiles(ctx context.Context, st store.Store) (int, []string) {
	codes, err := st.ListCustomerCodes(ctx)
	if err != nil {
		return 0, []string{err.Error()}
	}

	var aggregates []*agg
	now := time.Now()

	for _, code := range codes {
		lines, err := st.ListOrderLinesByCustomer(ctx, code)
		if err != nil || len(lines) == 0 {
			continue
		}
		a := &agg{
			code:        code,
			familyCA:    map[schema.ProductCategory]float64{},
			grapeCA:     map[string]float64{},
			sucrosityCA: map[string]float64{},
			priceBandCA: map[schema.PriceSegment]float64{},
		}
		a.frequency = len(lines)

		for _, line := range lines {
			amount, _ := line.AmountHT.Float64()
			a.monetary += amount
			a.totalCA += amount

			if a.lastOrder == nil || line.OrderDate.After(*a.lastOrder) {
				d := line.OrderDate
				a.lastOrder = &d
			}

			product, found, err := st.GetProductByCode(ctx, line.ProductCode)
			if err != nil || !found {
				continue
			}
			a.familyCA[product.Family] += amount
			if product.Grape != "" {
				a.grapeCA[product.Grape] += amount
			}
			if product.Sucrosity != "" {
				a.sucrosityCA[product.Sucrosity] += amount
			}
			a.priceBandCA[product.PriceSegment] += amount
			for i := range product.AromaProfile {
				a.aromaWeight[i] += amount * float64(product.AromaProfile[i]) / 5.0
			}
		}

		if a.lastOrder != nil {
			a.recencyDays = int(now.Sub(*a.lastOrder).Hours() / 24)
		}
		aggregates = append(aggregates, a)
	}

	recencyRank := quartileRanks(aggregates, func(a *agg) float64 { return -float64(a.recencyDays) })
	frequencyRank := quartileRanks(aggregates, func(a *agg) float64 { return float64(a.frequency) })
	monetaryRank := quartileRanks(aggregates, func(a *agg) float64 { return a.monetary })

	built := 0
	var errs []string

	for i, a := range aggregates {
		rScore := recencyRank[i]
		fScore := frequencyRank[i]
		mScore := monetaryRank[i]
		avg := float64(rScore+fScore+mScore) / 3.0

		var segment schema.CustomerSegment
		switch {
		case avg >= 3.5:
			segment = schema.SegmentVIP
		case avg <= 1.5:
			segment = schema.SegmentAtRisk
		case a.recencyDays > 180 && a.frequency == 1:
			segment = schema.SegmentInactive
		default:
			segment = schema.SegmentStandard
		}

		profile := schema.MasterProfile{
			CustomerCode:   a.code,
			RecencyDays:    a.recencyDays,
			Frequency:      a.frequency,
			RecencyScore:   rScore,
			FrequencyScore: fScore,
			MonetaryScore:  mScore,
			RFMScore:       rScore + fScore + mScore,
			Segment:        segment,
			LastOrderAt:    a.lastOrder,
			BuiltAt:        now,
		}
		profile.MonetaryEUR = decimalFromFloat(a.monetary)

		profile.TopFamilies = topShares(a.familyCA, a.totalCA, 2, func(k schema.ProductCategory, s float64) schema.FamilyShare {
			return schema.FamilyShare{Family: k, Share: s}
		})
		profile.TopGrapes = topGrapeShares(a.grapeCA, a.totalCA, 2)
		if top := topKey(a.sucrosityCA); top != "" {
			profile.TopSucrosity = top
		}
		if top := topPriceBand(a.priceBandCA); top != "" {
			profile.TopPriceBand = top
		}
		profile.DiversityScore = herfindahlComplement(a.familyCA, a.totalCA)
		profile.TopAromaAxes = topAromaAxes(a.aromaWeight)

		if err := st.UpsertMasterProfile(ctx, profile); err != nil {
			errs = append(errs, fmt.Sprintf("customer %s: %v", a.code, err))
			continue
		}
		built++
	}

	return built, errs
}

// quartileRanks buckets the aggregates by the given metric into quartiles
// 1 (worst) through 4 (best), per spec.md 4.4 Stage E.
func quartileRanks(aggregates []*agg, metric func(*agg) float64) []int {
	n := len(aggregates)
	ranks := make([]int, n)
	if n == 0 {
		return ranks
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return metric(aggregates[order[i]]) < metric(aggregates[order[j]]) })
	for pos, idx := range order {
		q := (pos * 4) / n
		if q > 3 {
			q = 3
		}
		ranks[idx] = q + 1
	}
	return ranks
}

type agg = struct {
	code        string
	recencyDays int
	frequency   int
	monetary    float64
	lastOrder   *time.Time
	familyCA    map[schema.ProductCategory]float64
	grapeCA     map[string]float64
	sucrosityCA map[string]float64
	priceBandCA map[schema.PriceSegment]float64
	totalCA     float64
	aromaWeight [schema.AromaAxisCount]float64
}
