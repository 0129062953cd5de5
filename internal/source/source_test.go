package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/drive"
	"github.com/andresuchdata/salesdash/internal/repository/postgres"
	"github.com/andresuchdata/salesdash/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
)

const sampleCSV = "\ufeffInvoice ID,Date,Final Sale\nINV-1,01/02/2024,\"1,500\"\n,,\nINV-2,02/02/2024,250\n"

func TestParseCSV(t *testing.T) {
	headers, rows, err := Parse("sales.csv", []byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Invoice ID", "Date", "Final Sale"}, headers)
	require.Len(t, rows, 2, "blank rows are skipped")
	assert.Equal(t, []string{"INV-1", "01/02/2024", "1,500"}, rows[0])
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Invoice ID", "Product", "Final Sale"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"INV-1", "Widget", "₹ 1,000"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	headers, rows, err := Parse("export.XLSX", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice ID", "Product", "Final Sale"}, headers)
	assert.Equal(t, [][]string{{"INV-1", "Widget", "₹ 1,000"}}, rows)
}

func TestParseEmpty(t *testing.T) {
	_, _, err := Parse("empty.csv", nil)
	assert.ErrorIs(t, err, errNoHeader)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	headers, rows, err := NewFileSource(path).FetchRawRows(context.Background())
	require.NoError(t, err)
	assert.Len(t, headers, 3)
	assert.Len(t, rows, 2)

	_, _, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).FetchRawRows(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestSheetsSource(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "Sheet1!A1:C3",
			"majorDimension": "ROWS",
			"values": [][]any{
				{"Invoice ID", "Product", "Quantity Sold"},
				{"INV-1", "Widget", 3},
				{"INV-2", "Gadget"},
			},
		})
	}))
	defer srv.Close()

	src, err := NewSheetsSourceWithOptions(context.Background(), "sheet-123", "Sheet1",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	headers, rows, err := src.FetchRawRows(context.Background())
	require.NoError(t, err)
	assert.Contains(t, gotPath, "/spreadsheets/sheet-123/values/Sheet1")
	assert.Equal(t, []string{"Invoice ID", "Product", "Quantity Sold"}, headers)
	assert.Equal(t, []string{"INV-1", "Widget", "3"}, rows[0])
	assert.Equal(t, []string{"INV-2", "Gadget"}, rows[1])
}

func TestSheetsSourceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	src, err := NewSheetsSourceWithOptions(context.Background(), "sheet-123", "Sheet1",
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, _, err = src.FetchRawRows(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestDriveSourceExportsGoogleSheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files"):
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"files": []map[string]any{{
					"id":       "f1",
					"name":     "sales and inventory data",
					"mimeType": drive.MimeGoogleSheet,
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/files/f1/export"):
			assert.Equal(t, drive.MimeCSV, r.URL.Query().Get("mimeType"))
			_, _ = w.Write([]byte(sampleCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc, err := drive.NewServiceWithOptions(context.Background(),
		option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	headers, rows, err := NewDriveSource(svc, "", "sales and inventory data", "").FetchRawRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Invoice ID", headers[0])
	assert.Len(t, rows, 2)
}

func TestDriveSourceNeedsFile(t *testing.T) {
	svc, err := drive.NewServiceWithOptions(context.Background(),
		option.WithEndpoint("http://127.0.0.1:1/"), option.WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)

	_, _, err = NewDriveSource(svc, "", "", "").FetchRawRows(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeStore) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func TestObjectSource(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"exports/sales.csv": []byte(sampleCSV)}}

	headers, rows, err := NewObjectSource(store, "exports/sales.csv").FetchRawRows(context.Background())
	require.NoError(t, err)
	assert.Len(t, headers, 3)
	assert.Len(t, rows, 2)

	_, _, err = NewObjectSource(store, "exports/missing.csv").FetchRawRows(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestSQLSource(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := postgres.NewWithDB(sqlx.NewDb(mockDB, "sqlmock"), 1)

	orderDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM sales").
		WillReturnRows(sqlmock.NewRows([]string{"Invoice ID", "Date", "Final Sale", "Region"}).
			AddRow("INV-1", orderDate, []byte("1500.5"), nil).
			AddRow("INV-2", orderDate, 250.0, "North"))

	headers, rows, err := NewSQLSource(db, "SELECT * FROM sales").FetchRawRows(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{"Invoice ID", "Date", "Final Sale", "Region"}, headers)
	assert.Equal(t, []string{"INV-1", "01/02/2024", "1500.5", ""}, rows[0])
	assert.Equal(t, []string{"INV-2", "01/02/2024", "250", "North"}, rows[1])
}

func TestSQLSourceQueryError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	db := postgres.NewWithDB(sqlx.NewDb(mockDB, "sqlmock"), 1)
	_, _, err = NewSQLSource(db, "SELECT * FROM sales").FetchRawRows(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{Kind: "file", FilePath: "sales.csv"}}
	src, closeFn, err := FromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)
	assert.NoError(t, closeFn())

	_, closeFn, err = FromConfig(context.Background(), &config.Config{Source: config.SourceConfig{Kind: "ftp"}})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)

	_, _, err = FromConfig(context.Background(), &config.Config{Source: config.SourceConfig{Kind: "file"}})
	assert.Error(t, err)
}

func TestCredentialsPrefersInlineJSON(t *testing.T) {
	creds, err := Credentials(config.SourceConfig{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/nope"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(creds))

	_, err = Credentials(config.SourceConfig{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
