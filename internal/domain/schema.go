package domain

import (
	"fmt"
	"strings"
)

// Source column headers as they appear in the sales and inventory sheet.
const (
	ColInvoiceID = "Invoice ID"
	ColDate      = "Date"

	ColProduct       = "Product"
	ColCategory      = "Category"
	ColCustomerName  = "Customer Name"
	ColSupplier      = "Supplier"
	ColRegion        = "Region"
	ColPaymentMethod = "Payment Method"
	ColOrderStatus   = "Order Status"
	ColDayType       = "Weekend/Weekday"
	ColCustomerFlag  = "Customer Flag"
	ColMovementLabel = "Movement Label"
	ColStockAlert    = "Stock Alert Flag"

	ColTotalSale             = "Total Sale"
	ColTotalCost             = "Total Cost"
	ColFinalSale             = "Final Sale"
	ColStockValueSelling     = "Stock Value (Selling Price)"
	ColStockValueCost        = "Stock Value Cost"
	ColNetProfit             = "Net Profit"
	ColRevenueLost           = "Revenue Lost Due to Discount"
	ColCostPrice             = "Cost Price"
	ColEffectiveSellingPrice = "Effective Selling Price"

	ColProfitPerUnitMarginPct = "Profit per unit Margin (%)"
	ColDiscountPct            = "Discount %"
	ColProfitMarginPct        = "Profit Margin % (After Discount)"
	ColProfitPct              = "Profit %"
	ColCancellationRate       = "Cancellation Rate"
	ColOrderFulfillmentRate   = "Order Fulfillment Rate"
	ColSupplierFulfillment    = "Supplier Fulfillment Ratio"

	ColYear                       = "Year"
	ColQuantitySold               = "Quantity Sold"
	ColUnitPrice                  = "Unit Price"
	ColProfitPerUnit              = "Profit per Unit"
	ColProfitPerUnitAfterDiscount = "Profit per Unit (After Discount)"
	ColStockLeft                  = "Stock Left"
	ColDaysOfInventory            = "Days of Inventory"
	ColAverageInventory           = "Average Inventory"
	ColInventoryTurnover          = "Inventory Turnover"
	ColAverageDailySale           = "Average Daily Sale"
	ColAvg30DaysOrder             = "Avg. 30 Days order"
	ColReorderLevel               = "Reorder Level"
	ColMaxStockLevel              = "Max Stock Level"

	// Derived columns.
	ColCalculatedNetProfit = "Calculated Net Profit"
	ColIsCancelled         = "Is Cancelled"
)

// Scale records how a percentage column is stored.
type Scale int

const (
	ScaleNone Scale = iota
	// ScalePercent values are on the 0-100 scale ("12.5%" is 12.5).
	ScalePercent
	// ScaleFraction values are 0-1 ratios; displays multiply them by 100.
	ScaleFraction
)

// ColumnSpec declares the target kind of a source column.
type ColumnSpec struct {
	Name    string
	Kind    Kind
	Scale   Scale
	Aliases []string
}

// Schema maps source headers to column specs. Lookups tolerate case, spacing and
// punctuation differences in the header.
type Schema struct {
	specs []ColumnSpec
	byKey map[string]int
}

// NewSchema indexes the specs by their canonical name and aliases.
func NewSchema(specs ...ColumnSpec) Schema {
	s := Schema{byKey: make(map[string]int)}
	for _, spec := range specs {
		s.specs = append(s.specs, spec)
		i := len(s.specs) - 1
		s.byKey[NormalizeHeader(spec.Name)] = i
		for _, alias := range spec.Aliases {
			s.byKey[NormalizeHeader(alias)] = i
		}
	}
	return s
}

// Lookup resolves a header, possibly spelled differently, to its spec.
func (s Schema) Lookup(header string) (ColumnSpec, bool) {
	i, ok := s.byKey[NormalizeHeader(header)]
	if !ok {
		return ColumnSpec{}, false
	}
	return s.specs[i], true
}

// Specs returns the declared specs in declaration order.
func (s Schema) Specs() []ColumnSpec {
	out := make([]ColumnSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// ScaleOf returns the storage scale of a percentage column, ScaleNone otherwise.
func (s Schema) ScaleOf(name string) Scale {
	spec, ok := s.Lookup(name)
	if !ok {
		return ScaleNone
	}
	return spec.Scale
}

// MissingColumns lists the names from cols that t lacks.
func MissingColumns(t *Table, cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Requires returns ErrColumnMissing naming every absent column, or nil.
func (s Schema) Requires(t *Table, cols ...string) error {
	if missing := MissingColumns(t, cols...); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrColumnMissing, strings.Join(missing, ", "))
	}
	return nil
}

var headerSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// NormalizeHeader lower-cases a header and strips spacing and separator punctuation.
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return headerSanitizer.Replace(name)
}

// DefaultSchema is the column map of the sales and inventory sheet.
func DefaultSchema() Schema {
	categorical := func(name string, aliases ...string) ColumnSpec {
		return ColumnSpec{Name: name, Kind: KindCategorical, Aliases: aliases}
	}
	currency := func(name string, aliases ...string) ColumnSpec {
		return ColumnSpec{Name: name, Kind: KindCurrency, Aliases: aliases}
	}
	number := func(name string, aliases ...string) ColumnSpec {
		return ColumnSpec{Name: name, Kind: KindNumber, Aliases: aliases}
	}
	percent := func(name string, scale Scale, aliases ...string) ColumnSpec {
		return ColumnSpec{Name: name, Kind: KindPercentage, Scale: scale, Aliases: aliases}
	}

	return NewSchema(
		ColumnSpec{Name: ColInvoiceID, Kind: KindIdentifier, Aliases: []string{"invoice", "invoice_no"}},
		ColumnSpec{Name: ColDate, Kind: KindDate, Aliases: []string{"order date", "invoice date"}},

		categorical(ColProduct, "product name"),
		categorical(ColCategory),
		categorical(ColCustomerName, "customer"),
		categorical(ColSupplier, "supplier name"),
		categorical(ColRegion),
		categorical(ColPaymentMethod),
		categorical(ColOrderStatus, "status"),
		categorical(ColDayType, "day type"),
		categorical(ColCustomerFlag),
		categorical(ColMovementLabel),
		categorical(ColStockAlert),

		currency(ColTotalSale),
		currency(ColTotalCost),
		currency(ColFinalSale),
		currency(ColStockValueSelling, "stock value selling"),
		currency(ColStockValueCost),
		currency(ColNetProfit),
		currency(ColRevenueLost, "revenue lost"),
		currency(ColCostPrice),
		currency(ColEffectiveSellingPrice),

		percent(ColProfitPerUnitMarginPct, ScalePercent),
		percent(ColDiscountPct, ScaleFraction, "discount pct"),
		percent(ColProfitMarginPct, ScaleFraction, "profit margin pct"),
		percent(ColProfitPct, ScalePercent),
		percent(ColCancellationRate, ScalePercent),
		percent(ColOrderFulfillmentRate, ScalePercent),
		percent(ColSupplierFulfillment, ScaleFraction),

		number(ColYear),
		number(ColQuantitySold, "qty sold", "quantity"),
		number(ColUnitPrice),
		number(ColProfitPerUnit),
		number(ColProfitPerUnitAfterDiscount),
		number(ColStockLeft, "stock"),
		number(ColDaysOfInventory),
		number(ColAverageInventory),
		number(ColInventoryTurnover),
		number(ColAverageDailySale),
		number(ColAvg30DaysOrder),
		number(ColReorderLevel),
		number(ColMaxStockLevel),
	)
}
