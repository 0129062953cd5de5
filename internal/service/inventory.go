package service

import (
	"sort"

	"github.com/andresuchdata/salesdash/internal/aggregate"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/format"
	"github.com/andresuchdata/salesdash/internal/metrics"
)

// Stock levels at or below this many units, and not negative, are critically low.
const criticalStockMax = 9

// BuildInventory computes the inventory analysis page from already filtered rows.
func BuildInventory(t *domain.Table, schema domain.Schema) domain.Inventory {
	if t.Empty() {
		return domain.Inventory{Empty: true, Message: msgNoRows}
	}

	page := domain.Inventory{KPIs: inventoryKPIs(t)}

	// 1. Monthly sales, stock value and turnover
	trendCols := []string{domain.ColDate, domain.ColFinalSale, domain.ColStockValueCost, domain.ColInventoryTurnover}
	if t.HasAll(trendCols...) {
		page.Trend = trend("Monthly Sales, Inventory Value, and Avg. Turnover",
			series{"Sales", aggregate.MonthlySum(t, domain.ColDate, domain.ColFinalSale)},
			series{"Inventory Value (Cost)", aggregate.MonthlySum(t, domain.ColDate, domain.ColStockValueCost)},
			series{"Avg. Inventory Turnover", aggregate.MonthlyMean(t, domain.ColDate, domain.ColInventoryTurnover)},
		)
	} else {
		page.Trend = missingTrend("Monthly Sales, Inventory Value, and Avg. Turnover", t, trendCols...)
	}

	// 2. Stock alerts
	if t.Has(domain.ColStockAlert) {
		page.AlertCounts = chart("Stock Alert Status", descending(aggregate.CountByGroup(t, domain.ColStockAlert)), format.Grouped)
	} else {
		page.AlertCounts = missingChart("Stock Alert Status", t, domain.ColStockAlert)
	}
	page.CriticalLowStock = criticalLowStock(t)

	// 3. Cancellations
	page.Cancellations = cancellations(t)

	// 4. Stock value, turnover and movement breakdowns
	page.CategoryStockValue = sumChart(t, "Stock Value (Cost) by Category", domain.ColCategory, domain.ColStockValueCost, 0)
	page.TopProductsByStockValue = sumChart(t, "Top 10 Products by Stock Value (Cost)", domain.ColProduct, domain.ColStockValueCost, 10)
	page.CategoryTurnover = meanChart(t, "Inventory Turnover by Category", domain.ColCategory, domain.ColInventoryTurnover, format.Ratio)
	page.CategoryDaysOfInventory = meanChart(t, "Days of Inventory by Category", domain.ColCategory, domain.ColDaysOfInventory, format.Days)
	if t.Has(domain.ColMovementLabel) {
		page.MovementLabels = chart("Product Movement Labels", descending(aggregate.CountByGroup(t, domain.ColMovementLabel)), format.Grouped)
	} else {
		page.MovementLabels = missingChart("Product Movement Labels", t, domain.ColMovementLabel)
	}

	return page
}

func inventoryKPIs(t *domain.Table) domain.InventoryKPIs {
	days, okDays := aggregate.Mean(t, domain.ColDaysOfInventory)
	turnover, okTurnover := aggregate.Mean(t, domain.ColInventoryTurnover)

	attention := 0
	if t.Has(domain.ColStockAlert) {
		for _, rec := range t.Records {
			if domain.StockAlert(rec.Str(domain.ColStockAlert)).NeedsAttention() {
				attention++
			}
		}
	}

	return domain.InventoryKPIs{
		StockLeft:             kpi("Total Stock Left (Units)", aggregate.Sum(t, domain.ColStockLeft), format.Grouped),
		StockValue:            kpi("Total Stock Value (Cost)", aggregate.Sum(t, domain.ColStockValueCost), format.INR),
		SKUs:                  kpi("Number of SKUs", float64(aggregate.CountDistinct(t, domain.ColProduct)), format.Grouped),
		AvgDaysOfInventory:    meanKPI("Avg. Days of Inventory", days, okDays, format.Days, format.MissingValue),
		AvgTurnover:           meanKPI("Avg. Inventory Turnover", turnover, okTurnover, format.Ratio, format.MissingValue),
		ItemsNeedingAttention: kpi("Items Needing Reorder", float64(attention), format.Grouped),
	}
}

func meanChart(t *domain.Table, title, groupCol, valueCol string, display func(float64) string) domain.Chart {
	if !t.HasAll(groupCol, valueCol) {
		return missingChart(title, t, groupCol, valueCol)
	}
	return chart(title, descending(aggregate.MeanByGroup(t, groupCol, valueCol)), display)
}

// criticalLowStock lists rows with 0 to 9 units left, lowest first.
func criticalLowStock(t *domain.Table) []domain.LowStockItem {
	items := []domain.LowStockItem{}
	if !t.HasAll(domain.ColProduct, domain.ColStockLeft) {
		return items
	}
	for _, rec := range t.Records {
		stock, ok := rec.Number(domain.ColStockLeft)
		if !ok || stock < 0 || stock > criticalStockMax {
			continue
		}
		items = append(items, domain.LowStockItem{
			Product:    rec.Str(domain.ColProduct),
			Category:   rec.Str(domain.ColCategory),
			StockLeft:  stock,
			Supplier:   rec.Str(domain.ColSupplier),
			StockAlert: rec.Str(domain.ColStockAlert),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].StockLeft < items[j].StockLeft })
	return items
}

// cancellations summarizes cancelled orders. Rates count distinct invoices.
func cancellations(t *domain.Table) domain.CancellationSummary {
	if !t.HasAll(domain.ColOrderStatus, domain.ColInvoiceID) {
		return domain.CancellationSummary{Message: missingMessage(t, domain.ColOrderStatus, domain.ColInvoiceID)}
	}

	cancelled := cancelledRows(t)
	total := aggregate.CountDistinct(t, domain.ColInvoiceID)
	count := aggregate.CountDistinct(cancelled, domain.ColInvoiceID)
	rate := aggregate.SafeRatio(float64(count), float64(total)) * 100
	value := aggregate.Sum(cancelled, domain.ColFinalSale)

	out := domain.CancellationSummary{
		Available:       true,
		TotalOrders:     total,
		CancelledOrders: count,
		CancelRate:      kpi("Cancellation Rate", rate, format.Percent),
		CancelledValue:  kpi("Value of Cancelled", value, format.INR),
	}

	if t.Has(domain.ColDate) {
		monthlyRate := aggregate.MonthlyBy(t, domain.ColDate, func(rows *domain.Table) (float64, bool) {
			orders := aggregate.CountDistinct(rows, domain.ColInvoiceID)
			lost := aggregate.CountDistinct(cancelledRows(rows), domain.ColInvoiceID)
			return aggregate.SafeRatio(float64(lost), float64(orders)) * 100, true
		})
		out.MonthlyRate = trend("Cancellation Rate by Month", series{"Cancellation Rate (%)", monthlyRate})
	} else {
		out.MonthlyRate = missingTrend("Cancellation Rate by Month", t, domain.ColDate)
	}

	if t.Has(domain.ColProduct) {
		top := aggregate.TopN(aggregate.CountByGroup(cancelled, domain.ColProduct), 5, false)
		out.TopCancelledProducts = chart("Top 5 Cancelled Products", top, format.Grouped)
	} else {
		out.TopCancelledProducts = missingChart("Top 5 Cancelled Products", t, domain.ColProduct)
	}
	return out
}

// cancelledRows keeps the rows flagged as cancelled. Tables that were not run through
// the metrics engine fall back to comparing the order status.
func cancelledRows(t *domain.Table) *domain.Table {
	flagged := t.Has(domain.ColIsCancelled)
	var recs []domain.Record
	for _, rec := range t.Records {
		if flagged && rec.Flag(domain.ColIsCancelled) || !flagged && rec.Str(domain.ColOrderStatus) == metrics.CancelledStatus {
			recs = append(recs, rec)
		}
	}
	return t.WithRecords(recs)
}
