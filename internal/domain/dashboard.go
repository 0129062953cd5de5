package domain

import "time"

// KPI is a single headline number with its display string.
type KPI struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// ChartPoint is one labelled value of a bar or pie chart.
type ChartPoint struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display,omitempty"`
}

// Chart is a single-series chart. Available is false when the columns it needs are
// absent or the filtered rows produce nothing to plot; Message says why.
type Chart struct {
	Title     string       `json:"title"`
	Points    []ChartPoint `json:"points"`
	Available bool         `json:"available"`
	Message   string       `json:"message,omitempty"`
}

// TrendPoint holds one month of a multi-series trend.
type TrendPoint struct {
	Month  string             `json:"month"`
	Values map[string]float64 `json:"values"`
}

// Trend is a monthly multi-series line chart. It is only Available with two or more months.
type Trend struct {
	Title     string       `json:"title"`
	Series    []string     `json:"series"`
	Points    []TrendPoint `json:"points"`
	Available bool         `json:"available"`
	Message   string       `json:"message,omitempty"`
}

// SalesKPIs are the headline numbers of the sales overview page.
type SalesKPIs struct {
	TotalRevenue    KPI `json:"total_revenue"`
	NetProfit       KPI `json:"net_profit"`
	NetProfitMargin KPI `json:"net_profit_margin"`
	AvgOrderValue   KPI `json:"avg_order_value"`
	TotalCost       KPI `json:"total_cost"`
	UnitsSold       KPI `json:"units_sold"`
	DiscountImpact  KPI `json:"discount_impact"`
}

// ProductDiscountMargin pairs a product's mean discount with its mean margin, both on the 0-100 scale.
type ProductDiscountMargin struct {
	Product        string  `json:"product"`
	AvgDiscountPct float64 `json:"avg_discount_pct"`
	AvgMarginPct   float64 `json:"avg_margin_pct"`
}

// SalesOverview is the sales overview page.
type SalesOverview struct {
	Empty                 bool                    `json:"empty"`
	Message               string                  `json:"message,omitempty"`
	KPIs                  SalesKPIs               `json:"kpis"`
	RevenueTrend          Trend                   `json:"revenue_trend"`
	MarginTrend           Trend                   `json:"margin_trend"`
	TopProductsByProfit   Chart                   `json:"top_products_by_profit"`
	CategorySales         Chart                   `json:"category_sales"`
	CategoryProfit        Chart                   `json:"category_profit"`
	DiscountVsMargin      []ProductDiscountMargin `json:"discount_vs_margin"`
	RegionProfit          Chart                   `json:"region_profit"`
	RegionSales           Chart                   `json:"region_sales"`
	RevenueLostByCategory Chart                   `json:"revenue_lost_by_category"`
}

// InventoryKPIs are the headline numbers of the inventory page.
type InventoryKPIs struct {
	StockLeft             KPI `json:"stock_left"`
	StockValue            KPI `json:"stock_value"`
	SKUs                  KPI `json:"skus"`
	AvgDaysOfInventory    KPI `json:"avg_days_of_inventory"`
	AvgTurnover           KPI `json:"avg_turnover"`
	ItemsNeedingAttention KPI `json:"items_needing_attention"`
}

// LowStockItem is a row of the critically-low-stock table.
type LowStockItem struct {
	Product    string  `json:"product"`
	Category   string  `json:"category,omitempty"`
	StockLeft  float64 `json:"stock_left"`
	Supplier   string  `json:"supplier,omitempty"`
	StockAlert string  `json:"stock_alert,omitempty"`
}

// CancellationSummary describes cancelled orders within the filtered rows.
type CancellationSummary struct {
	Available            bool   `json:"available"`
	Message              string `json:"message,omitempty"`
	TotalOrders          int    `json:"total_orders"`
	CancelledOrders      int    `json:"cancelled_orders"`
	CancelRate           KPI    `json:"cancel_rate"`
	CancelledValue       KPI    `json:"cancelled_value"`
	MonthlyRate          Trend  `json:"monthly_rate"`
	TopCancelledProducts Chart  `json:"top_cancelled_products"`
}

// Inventory is the inventory analysis page.
type Inventory struct {
	Empty                   bool                `json:"empty"`
	Message                 string              `json:"message,omitempty"`
	KPIs                    InventoryKPIs       `json:"kpis"`
	Trend                   Trend               `json:"trend"`
	AlertCounts             Chart               `json:"alert_counts"`
	CriticalLowStock        []LowStockItem      `json:"critical_low_stock"`
	Cancellations           CancellationSummary `json:"cancellations"`
	CategoryStockValue      Chart               `json:"category_stock_value"`
	TopProductsByStockValue Chart               `json:"top_products_by_stock_value"`
	CategoryTurnover        Chart               `json:"category_turnover"`
	CategoryDaysOfInventory Chart               `json:"category_days_of_inventory"`
	MovementLabels          Chart               `json:"movement_labels"`
}

// CustomerSupplierKPIs are the headline numbers of the customer and supplier page.
type CustomerSupplierKPIs struct {
	UniqueCustomers        KPI `json:"unique_customers"`
	UniqueSuppliers        KPI `json:"unique_suppliers"`
	AvgSupplierFulfillment KPI `json:"avg_supplier_fulfillment"`
}

// RegionSummary is one region's reach and revenue.
type RegionSummary struct {
	Region          string  `json:"region"`
	UniqueCustomers int     `json:"unique_customers"`
	Revenue         float64 `json:"revenue"`
	RevenueDisplay  string  `json:"revenue_display"`
}

// CustomerSupplier is the customer and supplier insights page.
type CustomerSupplier struct {
	Empty                   bool                 `json:"empty"`
	Message                 string               `json:"message,omitempty"`
	FocusedCustomer         string               `json:"focused_customer,omitempty"`
	KPIs                    CustomerSupplierKPIs `json:"kpis"`
	TopCustomers            Chart                `json:"top_customers"`
	PaymentMethods          Chart                `json:"payment_methods"`
	ProductsByCustomerReach Chart                `json:"products_by_customer_reach"`
	Regions                 []RegionSummary      `json:"regions"`
	SupplierFulfillment     Chart                `json:"supplier_fulfillment"`
}

// ForecastRow is one future day of a forecast, ready for display.
type ForecastRow struct {
	Date         string  `json:"date"`
	Yhat         float64 `json:"yhat"`
	YhatLower    float64 `json:"yhat_lower"`
	YhatUpper    float64 `json:"yhat_upper"`
	YhatDisplay  string  `json:"yhat_display"`
	LowerDisplay string  `json:"yhat_lower_display"`
	UpperDisplay string  `json:"yhat_upper_display"`
}

// ForecastPage is the sales forecast page.
type ForecastPage struct {
	Status      string        `json:"status"`
	Message     string        `json:"message,omitempty"`
	ItemLabel   string        `json:"item_label"`
	Horizon     int           `json:"horizon"`
	Points      int           `json:"points"`
	Predictions []ForecastRow `json:"predictions"`
	History     []ChartPoint  `json:"history"`
}

// OrderLine is one product line of a looked-up invoice.
type OrderLine struct {
	Product                    string   `json:"product"`
	Category                   string   `json:"category,omitempty"`
	QuantitySold               *float64 `json:"quantity_sold,omitempty"`
	UnitPrice                  string   `json:"unit_price,omitempty"`
	DiscountPct                *float64 `json:"discount_pct,omitempty"`
	DiscountDisplay            string   `json:"discount_display,omitempty"`
	FinalSale                  string   `json:"final_sale,omitempty"`
	ProfitPerUnitAfterDiscount string   `json:"profit_per_unit_after_discount,omitempty"`
	Supplier                   string   `json:"supplier,omitempty"`
}

// OrderLookup is the result of an invoice search.
type OrderLookup struct {
	Found         bool        `json:"found"`
	Message       string      `json:"message,omitempty"`
	InvoiceID     string      `json:"invoice_id"`
	OrderDate     string      `json:"order_date,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	OrderStatus   string      `json:"order_status,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Region        string      `json:"region,omitempty"`
	TotalValue    KPI         `json:"total_value"`
	TotalItems    KPI         `json:"total_items"`
	Lines         []OrderLine `json:"lines"`
}

// FilterOptions lists the values a client can offer in its filter widgets.
type FilterOptions struct {
	MinDate time.Time           `json:"min_date"`
	MaxDate time.Time           `json:"max_date"`
	Values  map[string][]string `json:"values"`
	Rows    int                 `json:"rows"`
}
