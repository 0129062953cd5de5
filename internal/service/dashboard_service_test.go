package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/forecast"
	"github.com/andresuchdata/salesdash/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureHeaders = []string{
	"Invoice ID", "Date", "Product", "Category", "Customer Name", "Supplier", "Region", "Payment Method",
	"Order Status", "Final Sale", "Total Cost", "Revenue Lost Due to Discount", "Discount %",
	"Profit Margin % (After Discount)", "Stock Left", "Reorder Level", "Max Stock Level", "Stock Value Cost",
	"Inventory Turnover", "Days of Inventory", "Supplier Fulfillment Ratio", "Quantity Sold",
}

var fixtureRows = [][]string{
	{"INV-1", "05/01/2024", "Widget", "Tools", "Alice", "Acme", "North", "Card", "Delivered", "1000", "600", "100", "0.1", "0.3", "5", "10", "50", "3000", "2", "30", "0.9", "5"},
	{"INV-1", "05/01/2024", "Gadget", "Toys", "Alice", "Bolt", "North", "Card", "Delivered", "500", "300", "0", "0", "0.4", "40", "10", "50", "8000", "4", "10", "0.8", "2"},
	{"INV-2", "10/02/2024", "Widget", "Tools", "Bob", "Acme", "South", "Cash", "Cancelled", "200", "150", "0", "0.2", "0.25", "8", "10", "50", "1600", "2", "20", "0.7", "1"},
	{"INV-3", "15/02/2024", "Gizmo", "Toys", "Carol", "Bolt", "South", "UPI", "Delivered", "300", "100", "50", "0.1", "0.5", "60", "10", "50", "9000", "1", "40", "1.0", "3"},
}

type rawStub struct {
	headers []string
	rows    [][]string
}

func (s rawStub) FetchRawRows(context.Context) ([]string, [][]string, error) {
	return s.headers, s.rows, nil
}

func loadFixture(t *testing.T) *domain.Table {
	t.Helper()
	table, _, err := pipeline.NewLoader("fixture", rawStub{fixtureHeaders, fixtureRows}, domain.DefaultSchema(), 0).
		Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())
	return table
}

type fakeTables struct {
	table     *domain.Table
	gen       uint64
	err       error
	refreshes int
}

func (f *fakeTables) Get(context.Context) (*domain.Table, uint64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.table, f.gen, nil
}

func (f *fakeTables) Refresh(context.Context) (pipeline.Summary, error) {
	if f.err != nil {
		return pipeline.Summary{Status: pipeline.StatusFailed}, f.err
	}
	f.refreshes++
	f.gen++
	return pipeline.Summary{Source: "fake", Status: pipeline.StatusCompleted, Rows: f.table.Len()}, nil
}

// memoryPages is an in-process PageCache that stores JSON like the redis one.
type memoryPages struct {
	entries     map[string][]byte
	sets        int
	invalidated int
}

func newMemoryPages() *memoryPages {
	return &memoryPages{entries: make(map[string][]byte)}
}

func (m *memoryPages) key(page string, gen uint64, sel string) string {
	return fmt.Sprintf("%s:%d:%s", page, gen, sel)
}

func (m *memoryPages) Get(_ context.Context, page string, gen uint64, sel string, dest any) (bool, error) {
	data, ok := m.entries[m.key(page, gen, sel)]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryPages) Set(_ context.Context, page string, gen uint64, sel string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.entries[m.key(page, gen, sel)] = data
	return nil
}

func (m *memoryPages) InvalidateAll(context.Context) error {
	m.invalidated++
	m.entries = make(map[string][]byte)
	return nil
}

func newTestService(t *testing.T) (*DashboardService, *fakeTables, *memoryPages) {
	tables := &fakeTables{table: loadFixture(t), gen: 1}
	pages := newMemoryPages()
	return NewDashboardService(tables, pages, nil, domain.DefaultSchema(), HorizonLimits{}), tables, pages
}

func TestSalesOverview(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.SalesOverview(context.Background(), domain.NewFilterSelection())
	require.NoError(t, err)
	require.False(t, page.Empty)

	assert.Equal(t, 2000.0, page.KPIs.TotalRevenue.Value)
	assert.Equal(t, "₹ 2,000", page.KPIs.TotalRevenue.Display)
	assert.Equal(t, 700.0, page.KPIs.NetProfit.Value)
	assert.InDelta(t, 35.0, page.KPIs.NetProfitMargin.Value, 1e-9)
	assert.Equal(t, "666.67", page.KPIs.AvgOrderValue.Display)
	assert.Equal(t, 1150.0, page.KPIs.TotalCost.Value)
	assert.Equal(t, 11.0, page.KPIs.UnitsSold.Value)
	assert.Equal(t, 150.0, page.KPIs.DiscountImpact.Value)

	assert.True(t, page.RevenueTrend.Available)
	require.Len(t, page.RevenueTrend.Points, 2)
	assert.Equal(t, 1500.0, page.RevenueTrend.Points[0].Values["Revenue"])

	require.True(t, page.MarginTrend.Available)
	assert.InDelta(t, 35.0, page.MarginTrend.Points[0].Values["Avg. Net Profit Margin (%)"], 1e-9)

	require.Len(t, page.TopProductsByProfit.Points, 3)
	assert.Equal(t, "Widget", page.TopProductsByProfit.Points[0].Label)
	assert.Equal(t, 350.0, page.TopProductsByProfit.Points[0].Value)

	require.Len(t, page.DiscountVsMargin, 3)
	for _, d := range page.DiscountVsMargin {
		if d.Product == "Widget" {
			assert.InDelta(t, 15.0, d.AvgDiscountPct, 1e-9)
			assert.InDelta(t, 27.5, d.AvgMarginPct, 1e-9)
		}
	}

	assert.Equal(t, "South", page.RegionProfit.Points[1].Label)
}

func TestSalesOverviewEmptySelection(t *testing.T) {
	svc, _, _ := newTestService(t)

	sel := domain.NewFilterSelection().WithMulti(domain.ColProduct, "Nothing")
	page, err := svc.SalesOverview(context.Background(), sel)
	require.NoError(t, err)
	assert.True(t, page.Empty)
	assert.Equal(t, msgNoRows, page.Message)
}

func TestSalesOverviewSingleMonthHasNoTrend(t *testing.T) {
	svc, _, _ := newTestService(t)

	sel := domain.NewFilterSelection().WithDateRange(
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
	)
	page, err := svc.SalesOverview(context.Background(), sel)
	require.NoError(t, err)
	assert.False(t, page.RevenueTrend.Available)
	assert.Equal(t, msgNotEnoughTime, page.RevenueTrend.Message)
}

func TestInventory(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.Inventory(context.Background(), domain.NewFilterSelection())
	require.NoError(t, err)

	assert.Equal(t, 113.0, page.KPIs.StockLeft.Value)
	assert.Equal(t, 3.0, page.KPIs.SKUs.Value)
	assert.Equal(t, 2.0, page.KPIs.ItemsNeedingAttention.Value)
	assert.Equal(t, "25.0", page.KPIs.AvgDaysOfInventory.Display)

	require.Len(t, page.CriticalLowStock, 2)
	assert.Equal(t, 5.0, page.CriticalLowStock[0].StockLeft)
	assert.Equal(t, 8.0, page.CriticalLowStock[1].StockLeft)

	c := page.Cancellations
	require.True(t, c.Available)
	assert.Equal(t, 3, c.TotalOrders)
	assert.Equal(t, 1, c.CancelledOrders)
	assert.InDelta(t, 33.333, c.CancelRate.Value, 1e-3)
	assert.Equal(t, 200.0, c.CancelledValue.Value)
	require.Len(t, c.MonthlyRate.Points, 2)
	assert.Equal(t, 0.0, c.MonthlyRate.Points[0].Values["Cancellation Rate (%)"])
	assert.Equal(t, 50.0, c.MonthlyRate.Points[1].Values["Cancellation Rate (%)"])
	require.Len(t, c.TopCancelledProducts.Points, 1)
	assert.Equal(t, "Widget", c.TopCancelledProducts.Points[0].Label)

	assert.Equal(t, "Toys", page.CategoryStockValue.Points[0].Label)
	assert.Equal(t, "Gizmo", page.TopProductsByStockValue.Points[0].Label)
	assert.False(t, page.MovementLabels.Available)
	assert.Contains(t, page.MovementLabels.Message, domain.ColMovementLabel)
}

func TestCustomerSupplier(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.CustomerSupplier(context.Background(), domain.NewFilterSelection(), "")
	require.NoError(t, err)

	assert.Equal(t, 3.0, page.KPIs.UniqueCustomers.Value)
	assert.Equal(t, 2.0, page.KPIs.UniqueSuppliers.Value)
	assert.InDelta(t, 85.0, page.KPIs.AvgSupplierFulfillment.Value, 1e-9)

	require.Len(t, page.TopCustomers.Points, 3)
	assert.Equal(t, "Alice", page.TopCustomers.Points[0].Label)

	require.Len(t, page.Regions, 2)
	assert.Equal(t, "South", page.Regions[0].Region)
	assert.Equal(t, 2, page.Regions[0].UniqueCustomers)
	assert.Equal(t, 500.0, page.Regions[0].Revenue)

	assert.Equal(t, "Widget", page.ProductsByCustomerReach.Points[0].Label)
	assert.Equal(t, 2.0, page.ProductsByCustomerReach.Points[0].Value)

	assert.Equal(t, "Bolt", page.SupplierFulfillment.Points[0].Label)
	assert.InDelta(t, 90.0, page.SupplierFulfillment.Points[0].Value, 1e-9)
}

func TestCustomerSupplierFocus(t *testing.T) {
	svc, _, _ := newTestService(t)

	page, err := svc.CustomerSupplier(context.Background(), domain.NewFilterSelection(), "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", page.FocusedCustomer)
	require.Len(t, page.TopCustomers.Points, 1)
	assert.Equal(t, "Bob", page.TopCustomers.Points[0].Label)
	assert.Equal(t, 1.0, page.KPIs.UniqueCustomers.Value)
}

func TestPagesAreCachedPerGeneration(t *testing.T) {
	svc, tables, pages := newTestService(t)
	ctx := context.Background()

	_, err := svc.SalesOverview(ctx, domain.NewFilterSelection())
	require.NoError(t, err)
	_, err = svc.SalesOverview(ctx, domain.NewFilterSelection())
	require.NoError(t, err)
	assert.Equal(t, 1, pages.sets, "second read is served from the cache")

	summary, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCompleted, summary.Status)
	assert.Equal(t, 1, tables.refreshes)
	assert.Equal(t, 1, pages.invalidated)

	_, err = svc.SalesOverview(ctx, domain.NewFilterSelection())
	require.NoError(t, err)
	assert.Equal(t, 2, pages.sets)
}

func TestSourceErrorsPropagate(t *testing.T) {
	tables := &fakeTables{err: fmt.Errorf("%w: boom", domain.ErrSourceUnavailable)}
	svc := NewDashboardService(tables, nil, nil, domain.DefaultSchema(), HorizonLimits{})

	_, err := svc.SalesOverview(context.Background(), domain.NewFilterSelection())
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))

	_, err = svc.Refresh(context.Background())
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestOrderLookupAndOptions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.OrderLookup(ctx, " inv-1 ")
	require.NoError(t, err)
	assert.True(t, order.Found)
	assert.Equal(t, "Alice", order.CustomerName)
	assert.Len(t, order.Lines, 2)
	assert.Equal(t, 1500.0, order.TotalValue.Value)

	missing, err := svc.OrderLookup(ctx, "INV-404")
	require.NoError(t, err)
	assert.False(t, missing.Found)

	_, err = svc.OrderLookup(ctx, "  ")
	assert.True(t, errors.Is(err, domain.ErrInvalidSelection))

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gadget", "Gizmo", "Widget"}, opts.Values[domain.ColProduct])
	assert.Equal(t, 4, opts.Rows)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), opts.MinDate)
	assert.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), opts.MaxDate)
	_, ok := opts.Values[domain.ColMovementLabel]
	assert.False(t, ok)
}

type flatForecaster struct {
	calls int
}

func (f *flatForecaster) Forecast(_ context.Context, series []forecast.Point, horizon int) ([]forecast.Prediction, error) {
	f.calls++
	last := series[len(series)-1].Date
	out := make([]forecast.Prediction, 0, horizon)
	for i := 1; i <= horizon; i++ {
		out = append(out, forecast.Prediction{Date: last.AddDate(0, 0, i), Yhat: 100, YhatLower: 90, YhatUpper: 110})
	}
	return out, nil
}

func dailyTable(days int) *domain.Table {
	t := domain.NewTable(
		domain.Column{Name: domain.ColDate, Kind: domain.KindDate},
		domain.Column{Name: domain.ColProduct, Kind: domain.KindCategorical},
		domain.Column{Name: domain.ColCategory, Kind: domain.KindCategorical},
		domain.Column{Name: domain.ColFinalSale, Kind: domain.KindCurrency},
	)
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		rec := domain.NewRecord()
		rec.SetDate(domain.ColDate, start.AddDate(0, 0, i))
		rec.SetText(domain.ColProduct, "Widget")
		rec.SetText(domain.ColCategory, "Tools")
		rec.SetNumber(domain.ColFinalSale, float64(100+i))
		t.Records = append(t.Records, rec)
	}
	return t
}

func TestForecast(t *testing.T) {
	f := &flatForecaster{}
	pages := newMemoryPages()
	svc := NewDashboardService(&fakeTables{table: dailyTable(30), gen: 1}, pages,
		forecast.NewAdapter(f, 0), domain.DefaultSchema(), HorizonLimits{})
	ctx := context.Background()

	page, err := svc.Forecast(ctx, ForecastRequest{Product: "Widget", Category: "Tools"})
	require.NoError(t, err)
	assert.Equal(t, string(forecast.StatusOK), page.Status)
	assert.Equal(t, "Sales for Product: Widget", page.ItemLabel)
	assert.Equal(t, 30, page.Horizon)
	assert.Equal(t, 30, page.Points)
	assert.Len(t, page.Predictions, 30)
	assert.Equal(t, "₹ 100", page.Predictions[0].YhatDisplay)
	require.Len(t, page.History, 5)
	assert.Equal(t, "2024-03-30", page.History[4].Label)

	_, err = svc.Forecast(ctx, ForecastRequest{Product: "Widget", Category: "Tools"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls, "ok results are cached")
}

func TestForecastLabelsAndShortSeries(t *testing.T) {
	f := &flatForecaster{}
	pages := newMemoryPages()
	svc := NewDashboardService(&fakeTables{table: dailyTable(10), gen: 1}, pages,
		forecast.NewAdapter(f, 0), domain.DefaultSchema(), HorizonLimits{})

	page, err := svc.Forecast(context.Background(), ForecastRequest{Product: AllProducts, Category: "Tools", Horizon: 14})
	require.NoError(t, err)
	assert.Equal(t, "Sales for Category: Tools", page.ItemLabel)
	assert.Equal(t, string(forecast.StatusInsufficientData), page.Status)
	assert.Equal(t, "Not enough historical data for Sales for Category: Tools to generate a reliable forecast "+
		"(need at least 20 daily data points).", page.Message)
	assert.Empty(t, page.Predictions)
	assert.Equal(t, 0, f.calls)
	assert.Equal(t, 0, pages.sets, "failed forecasts are not cached")

	page, err = svc.Forecast(context.Background(), ForecastRequest{Product: AllProducts, Category: AllCategories})
	require.NoError(t, err)
	assert.Equal(t, "Overall Sales", page.ItemLabel)
}

func TestForecastValidatesHorizonAndColumns(t *testing.T) {
	svc := NewDashboardService(&fakeTables{table: dailyTable(30), gen: 1}, nil, nil, domain.DefaultSchema(), HorizonLimits{})

	for _, h := range []int{6, 731, -1} {
		_, err := svc.Forecast(context.Background(), ForecastRequest{Horizon: h})
		assert.True(t, errors.Is(err, domain.ErrInvalidSelection), "horizon %d", h)
	}

	noSales := domain.NewTable(domain.Column{Name: domain.ColDate, Kind: domain.KindDate})
	svc = NewDashboardService(&fakeTables{table: noSales, gen: 1}, nil, nil, domain.DefaultSchema(), HorizonLimits{})
	_, err := svc.Forecast(context.Background(), ForecastRequest{})
	assert.True(t, errors.Is(err, domain.ErrColumnMissing))
}

func TestForecastKeySeparatesFields(t *testing.T) {
	a := ForecastRequest{Product: "a|b", Category: "", Horizon: 30}
	b := ForecastRequest{Product: "a", Category: "b", Horizon: 30}
	assert.NotEqual(t, a.key(), b.key())
	assert.Equal(t, b.key(), ForecastRequest{Product: "a", Category: "b", Horizon: 30}.key())
}
