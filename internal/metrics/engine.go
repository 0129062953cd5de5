package metrics

import (
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/rs/zerolog/log"
)

// CancelledStatus is the Order Status value that marks a cancelled order.
const CancelledStatus = "Cancelled"

// Engine adds derived columns to a normalized table.
type Engine struct{}

// NewEngine creates a derived metrics engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Apply returns a copy of t with the derived columns added. Every derived value depends
// only on its own row; t is never modified.
func (e *Engine) Apply(t *domain.Table) *domain.Table {
	records := make([]domain.Record, len(t.Records))
	for i, rec := range t.Records {
		records[i] = rec.Clone()
	}
	out := t.WithRecords(records)

	// 1. Net profit per row
	e.applyNetProfit(out)

	// 2. Stock value at cost and at selling price, only when the source lacks them
	e.applyStockValue(out, domain.ColStockValueCost, domain.ColCostPrice)
	e.applyStockValue(out, domain.ColStockValueSelling, domain.ColUnitPrice)

	// 3. Stock alert flag, re-derived when the source column is absent or carries no information
	if NeedsStockAlert(out) {
		DeriveStockAlert(out)
	}

	// 4. Cancellation flag
	if out.Has(domain.ColOrderStatus) {
		out.AddColumn(domain.ColIsCancelled, domain.KindFlag)
		for _, rec := range out.Records {
			rec.SetFlag(domain.ColIsCancelled, rec.Str(domain.ColOrderStatus) == CancelledStatus)
		}
	}

	log.Debug().
		Int("rows", out.Len()).
		Bool("net_profit", out.Has(domain.ColCalculatedNetProfit)).
		Bool("stock_alert", out.Has(domain.ColStockAlert)).
		Msg("metrics: derived columns applied")

	return out
}

// NetProfitFormula names how a table's net profit is derived. It is chosen once per table
// so every row of a table uses the same formula.
type NetProfitFormula int

const (
	NetProfitNone NetProfitFormula = iota
	// NetProfitPerUnit is profit per unit after discount × quantity, missing factors as 0.
	NetProfitPerUnit
	// NetProfitFromSale is final sale − total cost − revenue lost, missing terms as 0.
	NetProfitFromSale
)

// ChooseNetProfitFormula prefers the per-unit formula when both of its columns exist and
// otherwise needs both Final Sale and Total Cost.
func ChooseNetProfitFormula(t *domain.Table) NetProfitFormula {
	switch {
	case t.HasAll(domain.ColProfitPerUnitAfterDiscount, domain.ColQuantitySold):
		return NetProfitPerUnit
	case t.HasAll(domain.ColFinalSale, domain.ColTotalCost):
		return NetProfitFromSale
	default:
		return NetProfitNone
	}
}

// applyNetProfit adds the net profit column using the table's formula. The column is
// omitted when neither input set exists.
func (e *Engine) applyNetProfit(t *domain.Table) {
	formula := ChooseNetProfitFormula(t)
	if formula == NetProfitNone {
		return
	}

	t.AddColumn(domain.ColCalculatedNetProfit, domain.KindCurrency)
	for _, rec := range t.Records {
		rec.SetNumber(domain.ColCalculatedNetProfit, NetProfit(rec, formula))
	}
}

// NetProfit computes a single row's net profit with the given formula.
func NetProfit(rec domain.Record, formula NetProfitFormula) float64 {
	switch formula {
	case NetProfitPerUnit:
		return rec.NumberOrZero(domain.ColProfitPerUnitAfterDiscount) * rec.NumberOrZero(domain.ColQuantitySold)
	case NetProfitFromSale:
		return rec.NumberOrZero(domain.ColFinalSale) -
			rec.NumberOrZero(domain.ColTotalCost) -
			rec.NumberOrZero(domain.ColRevenueLost)
	default:
		return 0
	}
}

func (e *Engine) applyStockValue(t *domain.Table, target, priceCol string) {
	if t.Has(target) || !t.HasAll(priceCol, domain.ColStockLeft) {
		return
	}
	t.AddColumn(target, domain.KindCurrency)
	for _, rec := range t.Records {
		rec.SetNumber(target, rec.NumberOrZero(priceCol)*rec.NumberOrZero(domain.ColStockLeft))
	}
}
