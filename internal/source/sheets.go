package source

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads a range of a Google Sheets spreadsheet.
type SheetsSource struct {
	srv           *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource authenticates with a service-account key that has read access to the sheet.
func NewSheetsSource(ctx context.Context, credentialsJSON []byte, spreadsheetID, readRange string) (*SheetsSource, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return NewSheetsSourceWithOptions(ctx, spreadsheetID, readRange, option.WithHTTPClient(config.Client(ctx)))
}

func NewSheetsSourceWithOptions(ctx context.Context, spreadsheetID, readRange string, opts ...option.ClientOption) (*SheetsSource, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id must be provided")
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	return &SheetsSource{srv: srv, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

func (s *SheetsSource) FetchRawRows(ctx context.Context) ([]string, [][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, nil, unavailable("sheets", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}

	headers, data, err := splitHeader(rows)
	if err != nil {
		return nil, nil, unavailable("sheets", err)
	}
	return headers, data, nil
}
