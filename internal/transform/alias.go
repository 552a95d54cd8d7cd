package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/iaros/crm-reco-platform/internal/cache"
	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
	"github.com/shopspring/decimal"
)

const aliasCacheTTL = 0 // no expiry; invalidated explicitly per run

func aliasCacheKey(labelNorm string) string {
	return "alias:" + labelNorm
}

// loadAliasCache materializes the product_alias table into aliasCache
// once per transform run, per spec.md section 5: "load-once-per-
// transform-run; safe for concurrent read after load; invalidation is
// explicit (new run = new cache)."
func loadAliasCache(ctx context.Context, st store.ProductStore, aliasCache cache.Store) {
	aliasCache.FlushPrefix(ctx, "alias:")
	aliases, err := st.ListAliases(ctx)
	if err != nil {
		return
	}
	for _, a := range aliases {
		aliasCache.Set(ctx, aliasCacheKey(a.RawLabel), a.ProductCode, aliasCacheTTL)
	}
}

// orderLineFromRow implements Stage C, per spec.md 4.4: look up product
// code by label_norm in the alias cache (fail-skip with a warning if
// missing, counted but not fatal), parse order_date, and build an
// OrderLine. ok=false means the row is skipped (unresolved alias).
func orderLineFromRow(ctx context.Context, row map[string]string, batchID string, aliasCache cache.Store) (schema.OrderLine, bool, error) {
	labelNorm := row["product_label_norm"]
	productCode, found := aliasCache.Get(ctx, aliasCacheKey(labelNorm))
	if !found {
		return schema.OrderLine{}, false, nil
	}

	orderDate, err := time.Parse("2006-01-02", row["order_date"])
	if err != nil {
		return schema.OrderLine{}, false, fmt.Errorf("transform: unparseable order_date %q: %w", row["order_date"], err)
	}

	qty, _ := decimal.NewFromString(row["qty"])
	amountHT, _ := decimal.NewFromString(row["amount_ht"])
	amountTTC, _ := decimal.NewFromString(row["amount_ttc"])
	margin, _ := decimal.NewFromString(row["margin"])

	qtyFloat, _ := qty.Float64()
	normalizedQty := schema.NormalizedEquivalent(schema.UnitBottle75cl, qtyFloat)

	return schema.OrderLine{
		CustomerCode: row["customer_code"],
		ProductCode:  productCode,
		OrderDate:    orderDate,
		DocRef:       row["doc_ref"],
		DocType:      row["doc_type"],
		Quantity:     normalizedQty,
		AmountHT:     amountHT,
		AmountTTC:    amountTTC,
		Margin:       margin,
		SourceBatchID: batchID,
	}, true, nil
}
