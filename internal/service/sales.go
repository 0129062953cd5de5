package service

import (
	"github.com/andresuchdata/salesdash/internal/aggregate"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/format"
)

// BuildSalesOverview computes the sales overview page from already filtered rows.
func BuildSalesOverview(t *domain.Table, schema domain.Schema) domain.SalesOverview {
	if t.Empty() {
		return domain.SalesOverview{Empty: true, Message: msgNoRows}
	}

	page := domain.SalesOverview{KPIs: salesKPIs(t)}

	// 1. Trends
	trendCols := []string{domain.ColDate, domain.ColFinalSale, domain.ColTotalCost, domain.ColCalculatedNetProfit}
	if t.HasAll(trendCols...) {
		page.RevenueTrend = trend("Sales, Cost & Net Profit Over Time",
			series{"Revenue", aggregate.MonthlySum(t, domain.ColDate, domain.ColFinalSale)},
			series{"Cost", aggregate.MonthlySum(t, domain.ColDate, domain.ColTotalCost)},
			series{"Net Profit", aggregate.MonthlySum(t, domain.ColDate, domain.ColCalculatedNetProfit)},
		)
	} else {
		page.RevenueTrend = missingTrend("Sales, Cost & Net Profit Over Time", t, trendCols...)
	}

	if t.HasAll(domain.ColDate, domain.ColProfitMarginPct) {
		margin := aggregate.MonthlyMean(t, domain.ColDate, domain.ColProfitMarginPct)
		page.MarginTrend = trend("Net Profit Margin % Over Time",
			series{"Avg. Net Profit Margin (%)", aggregate.Scale(margin, percentFactor(schema, domain.ColProfitMarginPct))},
		)
	} else {
		page.MarginTrend = missingTrend("Net Profit Margin % Over Time", t, domain.ColDate, domain.ColProfitMarginPct)
	}

	// 2. Product and category breakdowns
	page.TopProductsByProfit = sumChart(t, "Top 10 Products by Net Profit", domain.ColProduct, domain.ColCalculatedNetProfit, 10)
	page.CategorySales = sumChart(t, "Sales by Category", domain.ColCategory, domain.ColFinalSale, 0)
	page.CategoryProfit = sumChart(t, "Net Profit by Category", domain.ColCategory, domain.ColCalculatedNetProfit, 0)
	page.DiscountVsMargin = discountVsMargin(t, schema)

	// 3. Regions and discounts
	page.RegionProfit = sumChart(t, "Net Profit by Region", domain.ColRegion, domain.ColCalculatedNetProfit, 0)
	page.RegionSales = sumChart(t, "Sales by Region", domain.ColRegion, domain.ColFinalSale, 0)
	page.RevenueLostByCategory = sumChart(t, "Revenue Lost to Discount by Category", domain.ColCategory, domain.ColRevenueLost, 0)

	return page
}

func salesKPIs(t *domain.Table) domain.SalesKPIs {
	revenue := aggregate.Sum(t, domain.ColFinalSale)
	netProfit := aggregate.Sum(t, domain.ColCalculatedNetProfit)
	aov := aggregate.AverageOrderValue(revenue, aggregate.CountDistinct(t, domain.ColInvoiceID))

	return domain.SalesKPIs{
		TotalRevenue:    kpi("Total Revenue", revenue, format.INR),
		NetProfit:       kpi("Net Profit", netProfit, format.INR),
		NetProfitMargin: kpi("Net Profit Margin", aggregate.SafeRatio(netProfit, revenue)*100, format.Percent),
		AvgOrderValue:   kpi("Avg. Order Value", aov, format.Decimal2),
		TotalCost:       kpi("Total Cost", aggregate.Sum(t, domain.ColTotalCost), format.INR),
		UnitsSold:       kpi("Total Units Sold", aggregate.Sum(t, domain.ColQuantitySold), format.Grouped),
		DiscountImpact:  kpi("Discounts Impact", aggregate.Sum(t, domain.ColRevenueLost), format.INR),
	}
}

// sumChart sums valueCol per groupCol, largest first, keeping the top n (all when n <= 0).
func sumChart(t *domain.Table, title, groupCol, valueCol string, n int) domain.Chart {
	if !t.HasAll(groupCol, valueCol) {
		return missingChart(title, t, groupCol, valueCol)
	}
	return chart(title, aggregate.TopN(aggregate.SumByGroup(t, groupCol, valueCol), n, false), format.INR)
}

// discountVsMargin pairs each product's mean discount with its mean margin. Products
// missing either mean are left out.
func discountVsMargin(t *domain.Table, schema domain.Schema) []domain.ProductDiscountMargin {
	out := []domain.ProductDiscountMargin{}
	if !t.HasAll(domain.ColProduct, domain.ColDiscountPct, domain.ColProfitMarginPct) {
		return out
	}

	discounts := aggregate.Scale(aggregate.MeanByGroup(t, domain.ColProduct, domain.ColDiscountPct),
		percentFactor(schema, domain.ColDiscountPct))
	margins := make(map[string]float64)
	for _, g := range aggregate.Scale(aggregate.MeanByGroup(t, domain.ColProduct, domain.ColProfitMarginPct),
		percentFactor(schema, domain.ColProfitMarginPct)) {
		margins[g.Key] = g.Value
	}

	for _, d := range discounts {
		m, ok := margins[d.Key]
		if !ok {
			continue
		}
		out = append(out, domain.ProductDiscountMargin{Product: d.Key, AvgDiscountPct: d.Value, AvgMarginPct: m})
	}
	return out
}
