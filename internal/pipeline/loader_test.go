package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	headers []string
	rows    [][]string
	err     error
	calls   int
}

func (s *stubSource) FetchRawRows(ctx context.Context) ([]string, [][]string, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.headers, s.rows, nil
}

func TestLoaderNormalizesAndDerives(t *testing.T) {
	src := &stubSource{
		headers: []string{"Invoice ID", "Date", "Product", "Quantity Sold", "Profit per Unit (After Discount)", "Final Sale", "Order Status", "Stock Left"},
		rows: [][]string{
			{"INV-1", "05/01/2024", "Widget", "5", "10", "₹ 1,000", "Delivered", "4"},
			{"INV-2", "not a date", "Widget", "1", "10", "100", "Cancelled", "4"},
			{"INV-3", "06/01/2024", "Gadget", "2", "", "500", "Cancelled", ""},
		},
	}

	table, summary, err := NewLoader("stub", src, domain.DefaultSchema(), time.Second).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, 3, summary.Normalize.InputRows)
	assert.Equal(t, 1, summary.Normalize.DroppedRows)
	assert.Equal(t, 2, summary.Rows)
	require.Equal(t, 2, table.Len())

	profit, ok := table.Records[0].Number(domain.ColCalculatedNetProfit)
	require.True(t, ok)
	assert.Equal(t, 50.0, profit)

	assert.True(t, table.Records[1].Flag(domain.ColIsCancelled))
	assert.Equal(t, string(domain.AlertNeedsThresholds), table.Records[0].Str(domain.ColStockAlert))
	assert.Equal(t, string(domain.AlertMissingStock), table.Records[1].Str(domain.ColStockAlert))
}

func TestLoaderReportsSourceFailure(t *testing.T) {
	src := &stubSource{err: domain.ErrSourceUnavailable}

	table, summary, err := NewLoader("stub", src, domain.DefaultSchema(), 0).Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
	assert.Equal(t, StatusFailed, summary.Status)
	assert.NotEmpty(t, summary.Error)
}
