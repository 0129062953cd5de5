package drive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func fakeDrive(t *testing.T) *Service {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/sheet1/export"):
			w.Header().Set("Content-Type", MimeCSV)
			_, _ = w.Write([]byte("Invoice ID,Date\nINV-1,05/01/2024\n"))
		case strings.HasSuffix(r.URL.Path, "/files/sheet1"):
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "sheet1", "name": "sales", "mimeType": MimeGoogleSheet})
		case strings.HasSuffix(r.URL.Path, "/files"):
			assert.Contains(t, r.URL.Query().Get("q"), "'folder9' in parents")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"files": []map[string]any{{"id": "sheet1", "name": "sales", "mimeType": MimeGoogleSheet}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(api.Close)

	svc, err := NewServiceWithOptions(context.Background(), option.WithEndpoint(api.URL+"/"), option.WithHTTPClient(api.Client()))
	require.NoError(t, err)
	return svc
}

func newRouter(svc *Service, refresher Refresher) *mux.Router {
	r := mux.NewRouter()
	NewHandler(svc, refresher).RegisterRoutes(r)
	return r
}

func TestListFiles(t *testing.T) {
	router := newRouter(fakeDrive(t), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drive/files?folderId=folder9", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var files []File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "sheet1", files[0].ID)
}

func TestDownloadExportsSheetAsCSV(t *testing.T) {
	router := newRouter(fakeDrive(t), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drive/files/download?fileId=sheet1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `"sales.csv"`)
	assert.Contains(t, w.Body.String(), "INV-1")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drive/files/download", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name      string
		refresher Refresher
		status    int
	}{
		{"not configured", nil, http.StatusNotImplemented},
		{"success", RefreshFunc(func(context.Context) (any, error) { return map[string]int{"rows": 3}, nil }), http.StatusOK},
		{"failure", RefreshFunc(func(context.Context) (any, error) { return nil, errors.New("sheet gone") }), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(nil, tt.refresher).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/drive/refresh", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `O\'Brien`, escapeQuery("O'Brien"))
}
