package service

import (
	"sort"

	"github.com/andresuchdata/salesdash/internal/aggregate"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/format"
)

// BuildCustomerSupplier computes the customer and supplier page from already filtered
// rows. With a focus customer the top-customers chart shows only that customer.
func BuildCustomerSupplier(t *domain.Table, schema domain.Schema, focus string) domain.CustomerSupplier {
	if t.Empty() {
		return domain.CustomerSupplier{Empty: true, Message: msgNoRows, FocusedCustomer: focus}
	}

	fulfillmentFactor := percentFactor(schema, domain.ColSupplierFulfillment)
	fulfillment, ok := aggregate.Mean(t, domain.ColSupplierFulfillment)

	page := domain.CustomerSupplier{
		FocusedCustomer: focus,
		KPIs: domain.CustomerSupplierKPIs{
			UniqueCustomers: kpi("Unique Customers", float64(aggregate.CountDistinct(t, domain.ColCustomerName)), format.Grouped),
			UniqueSuppliers: kpi("Unique Suppliers", float64(aggregate.CountDistinct(t, domain.ColSupplier)), format.Grouped),
			AvgSupplierFulfillment: meanKPI("Avg. Supplier Fulfillment", fulfillment*fulfillmentFactor, ok,
				format.Percent, format.MissingValue),
		},
	}

	title := "Top 10 Customers by Sales"
	if focus != "" {
		title = "Sales for " + focus
	}
	page.TopCustomers = sumChart(t, title, domain.ColCustomerName, domain.ColFinalSale, 10)

	if t.Has(domain.ColPaymentMethod) {
		page.PaymentMethods = chart("Payment Method Distribution", descending(aggregate.CountByGroup(t, domain.ColPaymentMethod)), format.Grouped)
	} else {
		page.PaymentMethods = missingChart("Payment Method Distribution", t, domain.ColPaymentMethod)
	}

	if t.HasAll(domain.ColProduct, domain.ColCustomerName) {
		reach := aggregate.TopN(aggregate.CountDistinctByGroup(t, domain.ColProduct, domain.ColCustomerName), 10, false)
		page.ProductsByCustomerReach = chart("Top 10 Products by Unique Customers", reach, format.Grouped)
	} else {
		page.ProductsByCustomerReach = missingChart("Top 10 Products by Unique Customers", t, domain.ColProduct, domain.ColCustomerName)
	}

	page.Regions = regionSummaries(t)

	if t.HasAll(domain.ColSupplier, domain.ColSupplierFulfillment) {
		groups := descending(aggregate.Scale(aggregate.MeanByGroup(t, domain.ColSupplier, domain.ColSupplierFulfillment), fulfillmentFactor))
		page.SupplierFulfillment = chart("Avg. Fulfillment Ratio by Supplier", groups, format.Percent)
	} else {
		page.SupplierFulfillment = missingChart("Avg. Fulfillment Ratio by Supplier", t, domain.ColSupplier, domain.ColSupplierFulfillment)
	}

	return page
}

// regionSummaries pairs each region's distinct customers with its revenue, widest reach first.
func regionSummaries(t *domain.Table) []domain.RegionSummary {
	out := []domain.RegionSummary{}
	if !t.HasAll(domain.ColRegion, domain.ColCustomerName, domain.ColFinalSale) {
		return out
	}

	revenue := make(map[string]float64)
	for _, g := range aggregate.SumByGroup(t, domain.ColRegion, domain.ColFinalSale) {
		revenue[g.Key] = g.Value
	}
	for _, g := range aggregate.CountDistinctByGroup(t, domain.ColRegion, domain.ColCustomerName) {
		out = append(out, domain.RegionSummary{
			Region:          g.Key,
			UniqueCustomers: int(g.Value),
			Revenue:         revenue[g.Key],
			RevenueDisplay:  format.INR(revenue[g.Key]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UniqueCustomers > out[j].UniqueCustomers })
	return out
}
