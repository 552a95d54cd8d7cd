// Package explain implements the explanation generator (C8), per spec.md
// section 4.8: a pure function of (customer_code, product_code, scenario)
// that must never fail.
package explain

import (
	"fmt"
	"time"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// Context carries the facts an explanation template may draw on. Every
// field is optional; missing data falls back to generic copy, per spec.md
// 4.8.
type Context struct {
	CustomerCode    string
	Product         schema.Product
	Scenario        schema.Scenario
	LastPurchaseAt  *time.Time
	TopFamily       schema.ProductCategory
}

// Generate produces an Explanation for one (customer, product, scenario),
// per spec.md 4.8. Never fails.
func Generate(ctx Context) schema.Explanation {
	switch ctx.Scenario {
	case schema.ScenarioRebuy:
		return rebuyExplanation(ctx)
	case schema.ScenarioCrossSell:
		return crossSellExplanation(ctx)
	case schema.ScenarioUpsell:
		return upsellExplanation(ctx)
	case schema.ScenarioWinback:
		return genericExplanation(ctx, "A wine to bring you back",
			"It's been a while since your last order — here's something we think you'll enjoy.")
	case schema.ScenarioNurture:
		return genericExplanation(ctx, "Something to discover",
			"A popular pick to start building your taste profile with us.")
	default:
		return genericExplanation(ctx, "Recommended for you", "A product we think fits your profile.")
	}
}

func rebuyExplanation(ctx Context) schema.Explanation {
	components := []string{productLabel(ctx.Product)}
	reason := fmt.Sprintf("You've bought %s before and it might be time to restock.", productLabel(ctx.Product))
	if ctx.LastPurchaseAt != nil {
		components = append(components, "Last purchased on "+ctx.LastPurchaseAt.Format("2006-01-02"))
	} else {
		components = append(components, "A past favorite of yours")
	}
	components = append(components, popularityComponent(ctx.Product))
	return schema.Explanation{
		Title:      "Time for a restock",
		Reason:     reason,
		Components: trimComponents(components),
	}
}

func crossSellExplanation(ctx Context) schema.Explanation {
	components := []string{productLabel(ctx.Product)}
	reason := "Based on your taste, this pairs well with what you usually buy."
	if ctx.TopFamily != "" {
		components = append(components, "Your favorite family: "+string(ctx.TopFamily))
		reason = fmt.Sprintf("You tend to favor %s wines — this one offers a nice complement.", ctx.TopFamily)
	} else {
		components = append(components, "Something a little different")
	}
	components = append(components, popularityComponent(ctx.Product))
	return schema.Explanation{
		Title:      "Something new to try",
		Reason:     reason,
		Components: trimComponents(components),
	}
}

func upsellExplanation(ctx Context) schema.Explanation {
	tierLabel := "a premium pick"
	if ctx.Product.PremiumTier {
		tierLabel = "one of our premium selections"
	}
	components := []string{productLabel(ctx.Product), tierLabel, popularityComponent(ctx.Product)}
	return schema.Explanation{
		Title:      "A step up",
		Reason:     fmt.Sprintf("Given your purchase history, %s might be worth treating yourself to.", productLabel(ctx.Product)),
		Components: trimComponents(components),
	}
}

func genericExplanation(ctx Context, title, reason string) schema.Explanation {
	return schema.Explanation{
		Title:      title,
		Reason:     reason,
		Components: trimComponents([]string{productLabel(ctx.Product), popularityComponent(ctx.Product)}),
	}
}

func productLabel(p schema.Product) string {
	if p.Label != "" {
		return p.Label
	}
	return "this product"
}

func popularityComponent(p schema.Product) string {
	if p.Popularity > 0 {
		return fmt.Sprintf("Popular among our customers (%.0f%%)", p.Popularity*100)
	}
	return "A well-regarded choice"
}

// trimComponents enforces the 2-4 factual bullets bound of spec.md 4.8.
func trimComponents(components []string) []string {
	var out []string
	for _, c := range components {
		if c != "" {
			out = append(out, c)
		}
	}
	if len(out) < 2 {
		out = append(out, "Selected for your profile")
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}
