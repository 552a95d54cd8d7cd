// Package features implements the pure read-path feature computer (C5),
// per spec.md section 4.5. Never mutates the store.
package features

import (
	"context"
	"sort"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// BudgetLevel is the coarse spend tier derived from total_spent, per
// spec.md 4.5.
type BudgetLevel string

const (
	BudgetLuxury   BudgetLevel = "LUXURY"
	BudgetPremium  BudgetLevel = "PREMIUM"
	BudgetStandard BudgetLevel = "STANDARD"
	BudgetEntry    BudgetLevel = "BUDGET"
)

// Features is the computed per-customer feature vector, per spec.md 4.5.
type Features struct {
	CustomerCode      string
	PurchaseCount     int
	TotalSpent        float64
	AvgOrderValue     float64
	FirstPurchaseDate *time.Time
	LastPurchaseDate  *time.Time
	DaysSincePurchase *int

	RecencyScore   int // 0-5, fixed-bucket
	FrequencyScore int
	MonetaryScore  int

	FamilyAffinity map[schema.ProductCategory]float64 // CA share per family
	BudgetLevel    BudgetLevel

	InSilenceWindow bool
}

// Compute builds the Features for one customer, per spec.md 4.5. now is
// injected so callers (and tests) control "today".
func Compute(ctx context.Context, st store.Store, customerCode string, silenceWindowDays int, now time.Time) (Features, error) {
	f := Features{CustomerCode: customerCode, FamilyAffinity: map[schema.ProductCategory]float64{}}

	lines, err := st.ListOrderLinesByCustomer(ctx, customerCode)
	if err != nil {
		return f, err
	}

	f.PurchaseCount = len(lines)
	if len(lines) > 0 {
		sort.Slice(lines, func(i, j int) bool { return lines[i].OrderDate.Before(lines[j].OrderDate) })
		first := lines[0].OrderDate
		last := lines[len(lines)-1].OrderDate
		f.FirstPurchaseDate = &first
		f.LastPurchaseDate = &last
		days := int(now.Sub(last).Hours() / 24)
		f.DaysSincePurchase = &days

		familyTotal := map[schema.ProductCategory]float64{}
		total := 0.0
		for _, line := range lines {
			amount, _ := line.AmountHT.Float64()
			f.TotalSpent += amount
			total += amount
			product, found, err := st.GetProductByCode(ctx, line.ProductCode)
			if err == nil && found {
				familyTotal[product.Family] += amount
			}
		}
		f.AvgOrderValue = f.TotalSpent / float64(len(lines))
		if total > 0 {
			for family, amount := range familyTotal {
				f.FamilyAffinity[family] = amount / total
			}
		}
	}

	f.RecencyScore = recencyScore(f.DaysSincePurchase)
	f.FrequencyScore = frequencyScore(f.PurchaseCount)
	f.MonetaryScore = monetaryScore(f.TotalSpent)
	f.BudgetLevel = budgetLevel(f.TotalSpent)

	inWindow, err := silenceWindow(ctx, st, customerCode, silenceWindowDays, now)
	if err != nil {
		return f, err
	}
	f.InSilenceWindow = inWindow

	return f, nil
}

// recencyScore buckets days-since-purchase per spec.md 4.5's fixed bins:
// <=30->5, <=90->4, <=180->3, <=365->2, else 1; no purchases->0.
func recencyScore(daysSincePurchase *int) int {
	if daysSincePurchase == nil {
		return 0
	}
	d := *daysSincePurchase
	switch {
	case d <= 30:
		return 5
	case d <= 90:
		return 4
	case d <= 180:
		return 3
	case d <= 365:
		return 2
	default:
		return 1
	}
}

// frequencyScore buckets purchase_count per spec.md 4.5: >=10->5, >=5->4,
// >=2->3, ==1->2, else 0.
func frequencyScore(purchaseCount int) int {
	switch {
	case purchaseCount >= 10:
		return 5
	case purchaseCount >= 5:
		return 4
	case purchaseCount >= 2:
		return 3
	case purchaseCount == 1:
		return 2
	default:
		return 0
	}
}

// monetaryScore buckets total_spent per spec.md 4.5: >=5000->5, >=2000->4,
// >=500->3, >=100->2, >0->1, else 0.
func monetaryScore(totalSpent float64) int {
	switch {
	case totalSpent >= 5000:
		return 5
	case totalSpent >= 2000:
		return 4
	case totalSpent >= 500:
		return 3
	case totalSpent >= 100:
		return 2
	case totalSpent > 0:
		return 1
	default:
		return 0
	}
}

// budgetLevel buckets total_spent per spec.md 4.5: >=500->LUXURY,
// >=200->PREMIUM, >=50->STANDARD, else BUDGET.
func budgetLevel(totalSpent float64) BudgetLevel {
	switch {
	case totalSpent >= 500:
		return BudgetLuxury
	case totalSpent >= 200:
		return BudgetPremium
	case totalSpent >= 50:
		return BudgetStandard
	default:
		return BudgetEntry
	}
}

// silenceWindow returns true iff the customer has a last contact date and
// fewer than windowDays have elapsed since it, per spec.md 4.5.
func silenceWindow(ctx context.Context, st store.ContactEventStore, customerCode string, windowDays int, now time.Time) (bool, error) {
	last, found, err := st.LastContactDate(ctx, customerCode)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	elapsedDays := now.Sub(last).Hours() / 24
	return elapsedDays < float64(windowDays), nil
}
