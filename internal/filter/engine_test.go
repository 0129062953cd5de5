package filter

import (
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func salesTable() *domain.Table {
	t := domain.NewTable(
		domain.Column{Name: domain.ColDate, Kind: domain.KindDate},
		domain.Column{Name: domain.ColProduct, Kind: domain.KindCategorical},
		domain.Column{Name: domain.ColRegion, Kind: domain.KindCategorical},
	)
	rows := []struct {
		d       int
		product string
		region  string
	}{
		{1, "Widget", "North"},
		{5, "Gadget", "South"},
		{10, "Widget", "South"},
		{15, "Gizmo", "North"},
	}
	for _, r := range rows {
		rec := domain.NewRecord()
		rec.SetDate(domain.ColDate, day(r.d))
		rec.SetText(domain.ColProduct, r.product)
		rec.SetText(domain.ColRegion, r.region)
		t.Records = append(t.Records, rec)
	}
	return t
}

func products(t *domain.Table) []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.Records {
		out = append(out, r.Str(domain.ColProduct))
	}
	return out
}

func TestDateRangeIsInclusive(t *testing.T) {
	sel := domain.NewFilterSelection().WithDateRange(day(5), day(10))
	out := Apply(salesTable(), sel)
	assert.Equal(t, []string{"Gadget", "Widget"}, products(out))
}

func TestDateRangeIgnoresTimeOfDay(t *testing.T) {
	sel := domain.NewFilterSelection().WithDateRange(day(5).Add(13*time.Hour), day(10).Add(time.Hour))
	out := Apply(salesTable(), sel)
	assert.Equal(t, 2, out.Len())
}

func TestEmptyAndAllMultiSelectAreNoOps(t *testing.T) {
	tbl := salesTable()

	out := Apply(tbl, domain.NewFilterSelection().WithMulti(domain.ColProduct))
	assert.Equal(t, tbl.Len(), out.Len())

	out = Apply(tbl, domain.NewFilterSelection().WithMulti(domain.ColProduct, "Widget", domain.AllOption))
	assert.Equal(t, tbl.Len(), out.Len())
}

func TestMultiSelectMembership(t *testing.T) {
	sel := domain.NewFilterSelection().WithMulti(domain.ColProduct, "Widget", "Gizmo")
	out := Apply(salesTable(), sel)
	assert.Equal(t, []string{"Widget", "Widget", "Gizmo"}, products(out))
}

func TestSingleSelect(t *testing.T) {
	tbl := salesTable()

	out := Apply(tbl, domain.NewFilterSelection().WithSingle(domain.ColRegion, "South"))
	assert.Equal(t, []string{"Gadget", "Widget"}, products(out))

	out = Apply(tbl, domain.NewFilterSelection().WithSingle(domain.ColRegion, domain.AllOption))
	assert.Equal(t, tbl.Len(), out.Len())
}

func TestFilterOnAbsentColumnIsNoOp(t *testing.T) {
	tbl := salesTable()
	sel := domain.NewFilterSelection().
		WithMulti(domain.ColSupplier, "Acme").
		WithSingle(domain.ColCustomerFlag, "New")
	out := Apply(tbl, sel)
	assert.Equal(t, tbl.Len(), out.Len())
}

func TestCombinedFiltersAreOrderIndependent(t *testing.T) {
	tbl := salesTable()
	a := domain.NewFilterSelection().
		WithDateRange(day(2), day(20)).
		WithMulti(domain.ColProduct, "Widget", "Gadget").
		WithSingle(domain.ColRegion, "South")
	b := domain.NewFilterSelection().
		WithSingle(domain.ColRegion, "South").
		WithMulti(domain.ColProduct, "Gadget", "Widget").
		WithDateRange(day(2), day(20))

	assert.Equal(t, products(Apply(tbl, a)), products(Apply(tbl, b)))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestHashKeepsValuesApart(t *testing.T) {
	joined := domain.NewFilterSelection().WithMulti(domain.ColProduct, "a,b")
	split := domain.NewFilterSelection().WithMulti(domain.ColProduct, "a", "b")
	assert.NotEqual(t, joined.Hash(), split.Hash())

	pipe := domain.NewFilterSelection().WithSingle(domain.ColRegion, "x|single:Region=y")
	plain := domain.NewFilterSelection().WithSingle(domain.ColRegion, "x")
	assert.NotEqual(t, pipe.Hash(), plain.Hash())

	assert.Equal(t, "default", domain.NewFilterSelection().Hash())
}

func TestEmptyResultAndNoMutation(t *testing.T) {
	tbl := salesTable()
	out := Apply(tbl, domain.NewFilterSelection().WithMulti(domain.ColProduct, "Nothing"))
	assert.True(t, out.Empty())
	assert.Equal(t, 4, tbl.Len())
}

func TestOptionsAndBounds(t *testing.T) {
	tbl := salesTable()
	assert.Equal(t, []string{"Gadget", "Gizmo", "Widget"}, Options(tbl, domain.ColProduct))
	assert.Nil(t, Options(tbl, domain.ColSupplier))

	minDate, maxDate, ok := DateBounds(tbl)
	require.True(t, ok)
	assert.Equal(t, day(1), minDate)
	assert.Equal(t, day(15), maxDate)

	_, _, ok = DateBounds(domain.NewTable())
	assert.False(t, ok)
}
