package source

import (
	"context"

	"github.com/andresuchdata/salesdash/internal/storage"
)

// ObjectSource reads a CSV or XLSX export from an S3-compatible bucket.
type ObjectSource struct {
	store storage.ObjectStorage
	key   string
}

func NewObjectSource(store storage.ObjectStorage, key string) *ObjectSource {
	return &ObjectSource{store: store, key: key}
}

func (s *ObjectSource) FetchRawRows(ctx context.Context) ([]string, [][]string, error) {
	data, err := s.store.GetObject(ctx, s.key)
	if err != nil {
		return nil, nil, unavailable("object", err)
	}

	headers, rows, err := Parse(s.key, data)
	if err != nil {
		return nil, nil, unavailable("object", err)
	}
	return headers, rows, nil
}
