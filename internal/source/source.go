// Package source fetches the raw header and string rows of the sales and inventory
// sheet from wherever it is kept.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// RawRecordSource returns the sheet as a header row plus data rows, all as strings.
type RawRecordSource interface {
	FetchRawRows(ctx context.Context) (headers []string, rows [][]string, err error)
}

var errNoHeader = errors.New("no header row")

// unavailable marks err as a source failure so callers can match domain.ErrSourceUnavailable.
func unavailable(kind string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, kind, err)
}

// splitHeader treats the first row as the header. Trailing blank header cells are
// dropped and a UTF-8 byte order mark on the first cell is removed.
func splitHeader(rows [][]string) ([]string, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, errNoHeader
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return nil, nil, errNoHeader
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		data = append(data, row)
	}
	return headers, data, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
