package metrics

import "github.com/andresuchdata/salesdash/internal/domain"

// NeedsStockAlert reports whether the stock alert column must be derived: it is absent,
// or every row carries the same value.
func NeedsStockAlert(t *domain.Table) bool {
	if !t.Has(domain.ColStockAlert) {
		return true
	}
	seen := make(map[string]struct{}, 2)
	for _, rec := range t.Records {
		seen[rec.Str(domain.ColStockAlert)] = struct{}{}
		if len(seen) > 1 {
			return false
		}
	}
	return true
}

// DeriveStockAlert fills the stock alert column from stock left and whichever thresholds
// the table carries.
func DeriveStockAlert(t *domain.Table) {
	hasStock := t.Has(domain.ColStockLeft)
	hasReorder := t.Has(domain.ColReorderLevel)
	hasMax := t.Has(domain.ColMaxStockLevel)

	var classify func(domain.Record) domain.StockAlert
	switch {
	case hasStock && hasReorder && hasMax:
		classify = classifyFull
	case hasStock && hasReorder:
		classify = classifyReorderOnly
	case hasStock:
		classify = func(domain.Record) domain.StockAlert { return domain.AlertNeedsThresholds }
	default:
		classify = func(domain.Record) domain.StockAlert { return domain.AlertMissingThresholds }
	}

	t.AddColumn(domain.ColStockAlert, domain.KindCategorical)
	for _, rec := range t.Records {
		alert := classify(rec)
		if _, ok := rec.Number(domain.ColStockLeft); hasStock && !ok {
			alert = domain.AlertMissingStock
		}
		rec.SetText(domain.ColStockAlert, string(alert))
	}
}

// ClassifyStock applies the full three-threshold rule to explicit values. A nil
// pointer is a missing value.
func ClassifyStock(stock, reorder, maxLevel *float64) domain.StockAlert {
	if stock == nil {
		return domain.AlertMissingStock
	}
	s := *stock
	switch {
	case reorder != nil && s <= *reorder:
		return domain.AlertReorder
	case reorder != nil && maxLevel != nil && s > *reorder && s <= *maxLevel:
		return domain.AlertOptimal
	case maxLevel != nil && s > *maxLevel:
		return domain.AlertSurplus
	default:
		return domain.AlertUnknown
	}
}

func classifyFull(rec domain.Record) domain.StockAlert {
	return ClassifyStock(number(rec, domain.ColStockLeft), number(rec, domain.ColReorderLevel), number(rec, domain.ColMaxStockLevel))
}

func classifyReorderOnly(rec domain.Record) domain.StockAlert {
	stock, okStock := rec.Number(domain.ColStockLeft)
	reorder, okReorder := rec.Number(domain.ColReorderLevel)
	switch {
	case !okStock:
		return domain.AlertMissingStock
	case okReorder && stock <= reorder:
		return domain.AlertReorder
	case okReorder:
		return domain.AlertSufficient
	default:
		return domain.AlertUnknown
	}
}

func number(rec domain.Record, col string) *float64 {
	if v, ok := rec.Number(col); ok {
		return &v
	}
	return nil
}
