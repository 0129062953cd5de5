package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/jmoiron/sqlx"
)

// RowQuerier runs a query and streams its result set to fn.
type RowQuerier interface {
	QueryRows(ctx context.Context, query string, fn func(rows *sqlx.Rows) error) error
}

// SQLSource reads the sheet from a table or view. Column names become headers.
type SQLSource struct {
	db    RowQuerier
	query string
}

func NewSQLSource(db RowQuerier, query string) *SQLSource {
	return &SQLSource{db: db, query: query}
}

func (s *SQLSource) FetchRawRows(ctx context.Context) ([]string, [][]string, error) {
	if s.query == "" {
		return nil, nil, unavailable("sql", fmt.Errorf("query must be provided"))
	}

	var (
		headers []string
		out     [][]string
	)
	err := s.db.QueryRows(ctx, s.query, func(rows *sqlx.Rows) error {
		cols, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read columns: %w", err)
		}
		headers = cols

		for rows.Next() {
			values, err := rows.SliceScan()
			if err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}
			row := make([]string, len(values))
			for i, v := range values {
				row[i] = cellString(v)
			}
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, nil, unavailable("sql", err)
	}
	if len(headers) == 0 {
		return nil, nil, unavailable("sql", errNoHeader)
	}
	return headers, out, nil
}

// cellString renders a scanned value the way the sheet would show it. Dates use the
// day-first layout the normalizer expects.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(domain.DisplayDateLayout)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}
