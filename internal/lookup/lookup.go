// Package lookup finds the line items of a single invoice.
package lookup

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/salesdash/internal/aggregate"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/format"
)

// OrderDateLayout is how the order date is shown in a summary.
const OrderDateLayout = "2006-01-02"

// FindInvoice returns the rows whose Invoice ID equals id, ignoring case and surrounding
// whitespace. No match is a normal outcome and yields an empty table.
func FindInvoice(t *domain.Table, id string) (*domain.Table, error) {
	needle := strings.ToLower(strings.TrimSpace(id))
	if needle == "" {
		return nil, fmt.Errorf("%w: invoice id is empty", domain.ErrInvalidSelection)
	}
	if !t.Has(domain.ColInvoiceID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrColumnMissing, domain.ColInvoiceID)
	}

	var matches []domain.Record
	for _, rec := range t.Records {
		if strings.ToLower(strings.TrimSpace(rec.Str(domain.ColInvoiceID))) == needle {
			matches = append(matches, rec)
		}
	}
	return t.WithRecords(matches), nil
}

// Summarize builds the order view of the rows FindInvoice returned for searched.
// Header fields come from the first line item, totals from all of them.
func Summarize(searched string, items *domain.Table) domain.OrderLookup {
	out := domain.OrderLookup{InvoiceID: strings.TrimSpace(searched)}
	if items.Empty() {
		out.Message = fmt.Sprintf("No order found with Invoice ID: %s", out.InvoiceID)
		return out
	}

	out.Found = true
	first := items.Records[0]
	if d, ok := first.Date(domain.ColDate); ok {
		out.OrderDate = d.Format(OrderDateLayout)
	}
	out.CustomerName = first.Str(domain.ColCustomerName)
	out.OrderStatus = first.Str(domain.ColOrderStatus)
	out.PaymentMethod = first.Str(domain.ColPaymentMethod)
	out.Region = first.Str(domain.ColRegion)

	total := aggregate.Sum(items, domain.ColFinalSale)
	units := aggregate.Sum(items, domain.ColQuantitySold)
	out.TotalValue = domain.KPI{Label: "Total Order Value", Value: total, Display: format.INR(total)}
	out.TotalItems = domain.KPI{Label: "Total Items in Order", Value: units, Display: format.Grouped(units)}

	out.Lines = make([]domain.OrderLine, 0, items.Len())
	for _, rec := range items.Records {
		out.Lines = append(out.Lines, line(items, rec))
	}
	return out
}

func line(t *domain.Table, rec domain.Record) domain.OrderLine {
	l := domain.OrderLine{
		Product:  rec.Str(domain.ColProduct),
		Category: rec.Str(domain.ColCategory),
		Supplier: rec.Str(domain.ColSupplier),
	}
	if v, ok := rec.Number(domain.ColQuantitySold); ok {
		l.QuantitySold = &v
	}
	if v, ok := rec.Number(domain.ColDiscountPct); ok {
		l.DiscountPct = &v
		l.DiscountDisplay = format.Percent(v * 100)
	}
	if t.Has(domain.ColUnitPrice) {
		l.UnitPrice = format.INROf(rec.Number(domain.ColUnitPrice))
	}
	if t.Has(domain.ColFinalSale) {
		l.FinalSale = format.INROf(rec.Number(domain.ColFinalSale))
	}
	if t.Has(domain.ColProfitPerUnitAfterDiscount) {
		l.ProfitPerUnitAfterDiscount = format.INROf(rec.Number(domain.ColProfitPerUnitAfterDiscount))
	}
	return l
}
