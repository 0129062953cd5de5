package aggregate

import (
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	date     time.Time
	product  string
	invoice  string
	sale     *float64
	discount *float64
}

func f(v float64) *float64 { return &v }

func build(rows ...row) *domain.Table {
	t := domain.NewTable(
		domain.Column{Name: domain.ColDate, Kind: domain.KindDate},
		domain.Column{Name: domain.ColProduct, Kind: domain.KindCategorical},
		domain.Column{Name: domain.ColInvoiceID, Kind: domain.KindIdentifier},
		domain.Column{Name: domain.ColFinalSale, Kind: domain.KindCurrency},
		domain.Column{Name: domain.ColDiscountPct, Kind: domain.KindPercentage},
	)
	for _, r := range rows {
		rec := domain.NewRecord()
		rec.SetDate(domain.ColDate, r.date)
		rec.SetText(domain.ColProduct, r.product)
		rec.SetText(domain.ColInvoiceID, r.invoice)
		if r.sale != nil {
			rec.SetNumber(domain.ColFinalSale, *r.sale)
		}
		if r.discount != nil {
			rec.SetNumber(domain.ColDiscountPct, *r.discount)
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func sample() *domain.Table {
	return build(
		row{date(time.January, 3), "Widget", "INV-1", f(100), f(0.1)},
		row{date(time.January, 9), "Gadget", "INV-1", f(50), nil},
		row{date(time.February, 2), "Widget", "INV-2", nil, f(0.3)},
		row{date(time.February, 20), "Gizmo", "INV-3", f(100), f(0.2)},
	)
}

func TestSumByGroupTreatsMissingAsZero(t *testing.T) {
	groups := SumByGroup(sample(), domain.ColProduct, domain.ColFinalSale)
	assert.Equal(t, []Group{
		{Key: "Gadget", Value: 50, Count: 1},
		{Key: "Gizmo", Value: 100, Count: 1},
		{Key: "Widget", Value: 100, Count: 2},
	}, groups)
}

func TestMeanByGroupExcludesMissing(t *testing.T) {
	groups := MeanByGroup(sample(), domain.ColProduct, domain.ColDiscountPct)
	require.Len(t, groups, 2)
	assert.Equal(t, "Gizmo", groups[0].Key)
	assert.Equal(t, "Widget", groups[1].Key)
	assert.InDelta(t, 0.2, groups[1].Value, 1e-9)
	assert.Equal(t, 2, groups[1].Count)
}

func TestCountDistinctAndCounts(t *testing.T) {
	tbl := sample()
	assert.Equal(t, 3, CountDistinct(tbl, domain.ColInvoiceID))
	assert.Equal(t, 0, CountDistinct(tbl, domain.ColSupplier))

	groups := CountDistinctByGroup(tbl, domain.ColProduct, domain.ColInvoiceID)
	assert.Equal(t, 2.0, groups[2].Value)

	counts := CountByGroup(tbl, domain.ColProduct)
	assert.Equal(t, []Group{
		{Key: "Gadget", Value: 1, Count: 1},
		{Key: "Gizmo", Value: 1, Count: 1},
		{Key: "Widget", Value: 2, Count: 2},
	}, counts)
}

func TestTopNStableTies(t *testing.T) {
	groups := SumByGroup(sample(), domain.ColProduct, domain.ColFinalSale)

	top := TopN(groups, 2, false)
	assert.Equal(t, []string{"Gizmo", "Widget"}, keys(top))

	bottom := TopN(groups, 0, true)
	assert.Equal(t, []string{"Gadget", "Gizmo", "Widget"}, keys(bottom))
}

func TestTopNIndependentOfRowOrder(t *testing.T) {
	a := sample()
	b := a.WithRecords([]domain.Record{a.Records[3], a.Records[1], a.Records[2], a.Records[0]})

	ga := TopN(SumByGroup(a, domain.ColProduct, domain.ColFinalSale), 3, false)
	gb := TopN(SumByGroup(b, domain.ColProduct, domain.ColFinalSale), 3, false)
	assert.Equal(t, ga, gb)
}

func TestMonthlyBuckets(t *testing.T) {
	tbl := sample()
	buckets := Monthly(tbl, domain.ColDate)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01", buckets[0].Key)
	assert.Equal(t, 2, buckets[0].Rows.Len())
	assert.True(t, IsTrend(buckets))

	sums := MonthlySum(tbl, domain.ColDate, domain.ColFinalSale)
	assert.Equal(t, 150.0, sums[0].Value)
	assert.Equal(t, 100.0, sums[1].Value)

	single := Monthly(tbl.WithRecords(tbl.Records[:2]), domain.ColDate)
	assert.False(t, IsTrend(single))
	assert.False(t, HasTrend(1))
	assert.True(t, HasTrend(MinTrendMonths))
}

func TestMeanAndRatios(t *testing.T) {
	tbl := sample()
	m, ok := Mean(tbl, domain.ColFinalSale)
	require.True(t, ok)
	assert.InDelta(t, 250.0/3, m, 1e-9)

	_, ok = Mean(tbl.WithRecords(nil), domain.ColFinalSale)
	assert.False(t, ok)

	assert.Equal(t, 0.0, AverageOrderValue(1000, 0))
	assert.Equal(t, 0.0, AverageOrderValue(0, 4))
	assert.Equal(t, 250.0, AverageOrderValue(1000, 4))
	assert.Equal(t, 0.0, SafeRatio(5, 0))
}

func TestNormalizedRowsSumByProduct(t *testing.T) {
	raw := domain.FromRows(
		[]string{"Date", "Final Sale", "Total Cost", "Product"},
		[][]string{
			{"01/02/2024", "₹ 1,000", "₹600", "Widget"},
			{"02/02/2024", "₹ 500", "₹200", "Widget"},
		},
	)
	tbl, _ := normalize.New(domain.DefaultSchema()).Normalize(raw)
	require.Equal(t, 2, tbl.Len())

	groups := SumByGroup(tbl, domain.ColProduct, domain.ColFinalSale)
	require.Len(t, groups, 1)
	assert.Equal(t, "Widget", groups[0].Key)
	assert.Equal(t, 1500.0, groups[0].Value)
}

func keys(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}
