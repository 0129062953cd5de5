package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// DefaultSalesTable is where seeded sheet rows land; the SQL source reads it back
// with SOURCE_SQL_QUERY=SELECT * FROM sales_rows.
const DefaultSalesTable = "sales_rows"

// SalesRowsRepository stores raw sheet rows as an all-text table, one column per header.
type SalesRowsRepository struct {
	db *sqlx.DB
}

func NewSalesRowsRepository(db *sqlx.DB) *SalesRowsRepository {
	return &SalesRowsRepository{db: db}
}

// Replace drops and recreates table with the given headers and inserts rows in one
// transaction. Blank and repeated headers are skipped, short rows are padded with NULL.
func (r *SalesRowsRepository) Replace(ctx context.Context, table string, headers []string, rows [][]string) (int, error) {
	cols, positions := seedColumns(headers)
	if len(cols) == 0 {
		return 0, fmt.Errorf("no usable headers for %s", table)
	}
	quotedTable := pq.QuoteIdentifier(table)

	quoted := make([]string, len(cols))
	defs := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
		defs[i] = quoted[i] + " TEXT"
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	// Start a transaction
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quotedTable); err != nil {
		return 0, fmt.Errorf("failed to drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(defs, ", "))); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", table, err)
	}

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quotedTable, strings.Join(quoted, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, row := range rows {
		args := make([]any, len(positions))
		for j, pos := range positions {
			if pos < len(row) {
				args[j] = row[pos]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return inserted, fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
		inserted++
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Str("table", table).Int("columns", len(cols)).Int("rows", inserted).Msg("sales rows seeded")
	return inserted, nil
}

func seedColumns(headers []string) ([]string, []int) {
	var (
		cols      []string
		positions []int
	)
	seen := make(map[string]struct{}, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		cols = append(cols, h)
		positions = append(positions, i)
	}
	return cols, positions
}
