// Package scenarios implements the scenario matcher (C6), per spec.md
// section 4.6: classifies a customer into candidate-product sets per
// scenario.
package scenarios

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/iaros/crm-reco-platform/internal/features"
	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// CandidateSet is the sparse map {scenario: [product_code]} spec.md 4.6
// describes; empty buckets are dropped.
type CandidateSet map[schema.Scenario][]string

// purchasedProduct is one entry of a customer's purchase history used by
// the REBUY candidate producer.
type purchasedProduct struct {
	ProductCode string
	LastOrder   int // days ago, smaller = more recent
}

// Match runs every scenario's candidate producer for one customer, per
// spec.md 4.6. excludeSet optionally removes already-proposed products
// (used by CROSS_SELL). seed makes NURTURE's sampling reproducible per
// (run_id, customer_code), per spec.md section 5.
func Match(ctx context.Context, st store.Store, f features.Features, customerCode string, excludeSet map[string]bool, seed int64, now time.Time) (CandidateSet, error) {
	products, err := st.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]schema.Product, len(products))
	for _, p := range products {
		byCode[p.ProductCode] = p
	}

	lines, err := st.ListOrderLinesByCustomer(ctx, customerCode)
	if err != nil {
		return nil, err
	}

	result := CandidateSet{}

	if rebuy := matchRebuy(lines, byCode, now); len(rebuy) > 0 {
		result[schema.ScenarioRebuy] = rebuy
	}
	if crossSell := matchCrossSell(products, f, excludeSet); len(crossSell) > 0 {
		result[schema.ScenarioCrossSell] = crossSell
	}
	if upsell := matchUpsell(products, f); len(upsell) > 0 {
		result[schema.ScenarioUpsell] = upsell
	}
	if winback := matchWinback(products, f); len(winback) > 0 {
		result[schema.ScenarioWinback] = winback
	}
	if nurture := matchNurture(products, f, seed); len(nurture) > 0 {
		result[schema.ScenarioNurture] = nurture
	}

	return result, nil
}

// matchRebuy: products previously purchased >= 90 days ago and with
// popularity >= 0.5, ordered by most recent prior purchase desc, at most
// 3.
func matchRebuy(lines []schema.OrderLine, byCode map[string]schema.Product, now time.Time) []string {
	bestDaysAgo := map[string]int{}
	for _, line := range lines {
		daysAgo := int(now.Sub(line.OrderDate).Hours() / 24)
		if existing, ok := bestDaysAgo[line.ProductCode]; !ok || daysAgo < existing {
			bestDaysAgo[line.ProductCode] = daysAgo
		}
	}

	var candidates []purchasedProduct
	for code, daysAgo := range bestDaysAgo {
		if daysAgo < 90 {
			continue
		}
		product, ok := byCode[code]
		if !ok || product.Popularity < 0.5 {
			continue
		}
		candidates = append(candidates, purchasedProduct{ProductCode: code, LastOrder: daysAgo})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].LastOrder < candidates[j].LastOrder })
	return take(codesOf(candidates), 3)
}

func codesOf(candidates []purchasedProduct) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.ProductCode
	}
	return out
}

// matchCrossSell: exclude the customer's top-2 families; products with
// popularity >= 0.4, ordered by popularity desc, at most 3; honors an
// optional exclude-set of already-proposed products.
func matchCrossSell(products []schema.Product, f features.Features, excludeSet map[string]bool) []string {
	topFamilies := topNFamilies(f.FamilyAffinity, 2)

	var candidates []schema.Product
	for _, p := range products {
		if topFamilies[p.Family] {
			continue
		}
		if p.Popularity < 0.4 {
			continue
		}
		if excludeSet != nil && excludeSet[p.ProductCode] {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Popularity > candidates[j].Popularity })
	return take(productCodes(candidates), 3)
}

// matchUpsell: requires total_spent >= 500; premium-tier products with
// popularity >= 0.6, at most 3.
func matchUpsell(products []schema.Product, f features.Features) []string {
	if f.TotalSpent < 500 {
		return nil
	}
	var candidates []schema.Product
	for _, p := range products {
		if !p.PremiumTier || p.Popularity < 0.6 {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Popularity > candidates[j].Popularity })
	return take(productCodes(candidates), 3)
}

// matchWinback: requires inactivity > 365 days; universally popular
// products (popularity >= 0.7), at most 3.
func matchWinback(products []schema.Product, f features.Features) []string {
	if f.DaysSincePurchase == nil || *f.DaysSincePurchase <= 365 {
		return nil
	}
	var candidates []schema.Product
	for _, p := range products {
		if p.Popularity < 0.7 {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Popularity > candidates[j].Popularity })
	return take(productCodes(candidates), 3)
}

// matchNurture: requires <= 3 lifetime orders; random sample of 3
// products from popularity >= 0.3 with non-null family. Seeded per
// (run_id, customer_code) for reproducibility.
func matchNurture(products []schema.Product, f features.Features, seed int64) []string {
	if f.PurchaseCount > 3 {
		return nil
	}
	var pool []schema.Product
	for _, p := range products {
		if p.Popularity >= 0.3 && p.Family != "" {
			pool = append(pool, p)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ProductCode < pool[j].ProductCode })

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return take(productCodes(pool), 3)
}

func topNFamilies(affinity map[schema.ProductCategory]float64, n int) map[schema.ProductCategory]bool {
	type kv struct {
		family schema.ProductCategory
		share  float64
	}
	var pairs []kv
	for f, s := range affinity {
		pairs = append(pairs, kv{f, s})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].share > pairs[j].share })
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make(map[schema.ProductCategory]bool, len(pairs))
	for _, p := range pairs {
		out[p.family] = true
	}
	return out
}

func productCodes(products []schema.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ProductCode
	}
	return out
}

func take(codes []string, n int) []string {
	if len(codes) > n {
		return codes[:n]
	}
	return codes
}
