// Package report renders dashboard pages as Markdown, and Markdown as HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders a page DTO. Pointers and values are both accepted.
func Markdown(page any) (string, error) {
	var b strings.Builder
	switch p := page.(type) {
	case domain.SalesOverview:
		writeSales(&b, p)
	case *domain.SalesOverview:
		writeSales(&b, *p)
	case domain.Inventory:
		writeInventory(&b, p)
	case *domain.Inventory:
		writeInventory(&b, *p)
	case domain.CustomerSupplier:
		writeCustomers(&b, p)
	case *domain.CustomerSupplier:
		writeCustomers(&b, *p)
	case domain.ForecastPage:
		writeForecast(&b, p)
	case *domain.ForecastPage:
		writeForecast(&b, *p)
	case domain.OrderLookup:
		writeOrder(&b, p)
	case *domain.OrderLookup:
		writeOrder(&b, *p)
	default:
		return "", fmt.Errorf("report: unsupported page type %T", page)
	}
	return b.String(), nil
}

// HTML converts Markdown to an HTML fragment. Tables use the GFM syntax.
func HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("report: render html: %w", err)
	}
	return buf.String(), nil
}

// Valid reports whether source parses to a document.
func Valid(source string) bool {
	doc := md.Parser().Parse(text.NewReader([]byte(source)))
	return doc != nil && doc.HasChildren()
}

func writeSales(b *strings.Builder, p domain.SalesOverview) {
	b.WriteString("# Sales Overview\n\n")
	if p.Empty {
		fmt.Fprintf(b, "_%s_\n", p.Message)
		return
	}
	writeKPIs(b, p.KPIs.TotalRevenue, p.KPIs.NetProfit, p.KPIs.NetProfitMargin, p.KPIs.AvgOrderValue,
		p.KPIs.TotalCost, p.KPIs.UnitsSold, p.KPIs.DiscountImpact)
	writeTrend(b, p.RevenueTrend)
	writeTrend(b, p.MarginTrend)
	writeChart(b, p.TopProductsByProfit)
	writeChart(b, p.CategorySales)
	writeChart(b, p.CategoryProfit)

	if len(p.DiscountVsMargin) > 0 {
		b.WriteString("## Discount vs. Margin by Product\n\n| Product | Avg. Discount % | Avg. Margin % |\n| --- | ---: | ---: |\n")
		for _, d := range p.DiscountVsMargin {
			fmt.Fprintf(b, "| %s | %.2f%% | %.2f%% |\n", cell(d.Product), d.AvgDiscountPct, d.AvgMarginPct)
		}
		b.WriteString("\n")
	}

	writeChart(b, p.RegionProfit)
	writeChart(b, p.RegionSales)
	writeChart(b, p.RevenueLostByCategory)
}

func writeInventory(b *strings.Builder, p domain.Inventory) {
	b.WriteString("# Inventory Analysis\n\n")
	if p.Empty {
		fmt.Fprintf(b, "_%s_\n", p.Message)
		return
	}
	writeKPIs(b, p.KPIs.StockLeft, p.KPIs.StockValue, p.KPIs.SKUs, p.KPIs.AvgDaysOfInventory,
		p.KPIs.AvgTurnover, p.KPIs.ItemsNeedingAttention)
	writeTrend(b, p.Trend)
	writeChart(b, p.AlertCounts)

	b.WriteString("## Critically Low Stock\n\n")
	if len(p.CriticalLowStock) == 0 {
		b.WriteString("_No items are critically low._\n\n")
	} else {
		b.WriteString("| Product | Category | Stock Left | Supplier | Alert |\n| --- | --- | ---: | --- | --- |\n")
		for _, item := range p.CriticalLowStock {
			fmt.Fprintf(b, "| %s | %s | %.0f | %s | %s |\n", cell(item.Product), cell(item.Category),
				item.StockLeft, cell(item.Supplier), cell(item.StockAlert))
		}
		b.WriteString("\n")
	}

	c := p.Cancellations
	b.WriteString("## Cancellations\n\n")
	if !c.Available {
		fmt.Fprintf(b, "_%s_\n\n", c.Message)
	} else {
		fmt.Fprintf(b, "%d of %d orders cancelled.\n\n", c.CancelledOrders, c.TotalOrders)
		writeKPIs(b, c.CancelRate, c.CancelledValue)
		writeTrend(b, c.MonthlyRate)
		writeChart(b, c.TopCancelledProducts)
	}

	writeChart(b, p.CategoryStockValue)
	writeChart(b, p.TopProductsByStockValue)
	writeChart(b, p.CategoryTurnover)
	writeChart(b, p.CategoryDaysOfInventory)
	writeChart(b, p.MovementLabels)
}

func writeCustomers(b *strings.Builder, p domain.CustomerSupplier) {
	b.WriteString("# Customer & Supplier Insights\n\n")
	if p.FocusedCustomer != "" {
		fmt.Fprintf(b, "Focused on **%s**.\n\n", p.FocusedCustomer)
	}
	if p.Empty {
		fmt.Fprintf(b, "_%s_\n", p.Message)
		return
	}
	writeKPIs(b, p.KPIs.UniqueCustomers, p.KPIs.UniqueSuppliers, p.KPIs.AvgSupplierFulfillment)
	writeChart(b, p.TopCustomers)
	writeChart(b, p.PaymentMethods)
	writeChart(b, p.ProductsByCustomerReach)

	if len(p.Regions) > 0 {
		b.WriteString("## Regions\n\n| Region | Unique Customers | Revenue |\n| --- | ---: | ---: |\n")
		for _, r := range p.Regions {
			fmt.Fprintf(b, "| %s | %d | %s |\n", cell(r.Region), r.UniqueCustomers, r.RevenueDisplay)
		}
		b.WriteString("\n")
	}
	writeChart(b, p.SupplierFulfillment)
}

func writeForecast(b *strings.Builder, p domain.ForecastPage) {
	fmt.Fprintf(b, "# Forecast: %s\n\n", p.ItemLabel)
	fmt.Fprintf(b, "Horizon: %d days, %d daily points of history.\n\n", p.Horizon, p.Points)
	if p.Message != "" {
		fmt.Fprintf(b, "_%s_\n\n", p.Message)
	}

	if len(p.History) > 0 {
		b.WriteString("## Recent History\n\n| Date | Sales |\n| --- | ---: |\n")
		for _, h := range p.History {
			fmt.Fprintf(b, "| %s | %s |\n", h.Label, h.Display)
		}
		b.WriteString("\n")
	}

	if len(p.Predictions) > 0 {
		b.WriteString("## Predictions\n\n| Date | Forecast | Lower | Upper |\n| --- | ---: | ---: | ---: |\n")
		for _, r := range p.Predictions {
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", r.Date, r.YhatDisplay, r.LowerDisplay, r.UpperDisplay)
		}
		b.WriteString("\n")
	}
}

func writeOrder(b *strings.Builder, p domain.OrderLookup) {
	fmt.Fprintf(b, "# Order %s\n\n", p.InvoiceID)
	if !p.Found {
		fmt.Fprintf(b, "_%s_\n", p.Message)
		return
	}
	fmt.Fprintf(b, "- Date: %s\n- Customer: %s\n- Status: %s\n- Payment: %s\n- Region: %s\n\n",
		p.OrderDate, p.CustomerName, p.OrderStatus, p.PaymentMethod, p.Region)
	writeKPIs(b, p.TotalValue, p.TotalItems)

	b.WriteString("| Product | Quantity | Unit Price | Discount | Final Sale |\n| --- | ---: | ---: | ---: | ---: |\n")
	for _, l := range p.Lines {
		qty := ""
		if l.QuantitySold != nil {
			qty = fmt.Sprintf("%.0f", *l.QuantitySold)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", cell(l.Product), qty, l.UnitPrice, l.DiscountDisplay, l.FinalSale)
	}
	b.WriteString("\n")
}

func writeKPIs(b *strings.Builder, kpis ...domain.KPI) {
	b.WriteString("| Metric | Value |\n| --- | ---: |\n")
	for _, k := range kpis {
		fmt.Fprintf(b, "| %s | %s |\n", k.Label, k.Display)
	}
	b.WriteString("\n")
}

func writeChart(b *strings.Builder, c domain.Chart) {
	fmt.Fprintf(b, "## %s\n\n", c.Title)
	if !c.Available {
		fmt.Fprintf(b, "_%s_\n\n", c.Message)
		return
	}
	b.WriteString("| | Value |\n| --- | ---: |\n")
	for _, p := range c.Points {
		v := p.Display
		if v == "" {
			v = fmt.Sprintf("%.2f", p.Value)
		}
		fmt.Fprintf(b, "| %s | %s |\n", cell(p.Label), v)
	}
	b.WriteString("\n")
}

func writeTrend(b *strings.Builder, t domain.Trend) {
	fmt.Fprintf(b, "## %s\n\n", t.Title)
	if !t.Available {
		fmt.Fprintf(b, "_%s_\n\n", t.Message)
		return
	}
	b.WriteString("| Month |")
	for _, s := range t.Series {
		fmt.Fprintf(b, " %s |", s)
	}
	b.WriteString("\n| --- |" + strings.Repeat(" ---: |", len(t.Series)) + "\n")
	for _, p := range t.Points {
		fmt.Fprintf(b, "| %s |", p.Month)
		for _, s := range t.Series {
			if v, ok := p.Values[s]; ok {
				fmt.Fprintf(b, " %.2f |", v)
			} else {
				b.WriteString(" - |")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// cell escapes the characters that would break a table row.
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
