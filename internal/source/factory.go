package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/drive"
	"github.com/andresuchdata/salesdash/internal/repository/postgres"
	"github.com/andresuchdata/salesdash/internal/storage"
)

// Kinds accepted by SOURCE_KIND.
const (
	KindSheets = "sheets"
	KindDrive  = "drive"
	KindFile   = "file"
	KindObject = "object"
	KindSQL    = "sql"
)

// FromConfig builds the source named by cfg.Source.Kind. The returned close function
// releases any connection the source holds and is never nil.
func FromConfig(ctx context.Context, cfg *config.Config) (RawRecordSource, func() error, error) {
	noop := func() error { return nil }
	sc := cfg.Source

	switch strings.ToLower(strings.TrimSpace(sc.Kind)) {
	case KindSheets, "":
		creds, err := Credentials(sc)
		if err != nil {
			return nil, noop, err
		}
		src, err := NewSheetsSource(ctx, creds, sc.SpreadsheetID, sc.SheetRange)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil

	case KindDrive:
		creds, err := Credentials(sc)
		if err != nil {
			return nil, noop, err
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, noop, err
		}
		return NewDriveSource(svc, sc.DriveFileID, sc.DriveFileName, sc.DriveFolder), noop, nil

	case KindFile:
		if sc.FilePath == "" {
			return nil, noop, fmt.Errorf("SOURCE_FILE_PATH must be provided for the file source")
		}
		return NewFileSource(sc.FilePath), noop, nil

	case KindObject:
		store, err := storage.New(cfg.Storage)
		if err != nil {
			return nil, noop, err
		}
		if sc.ObjectKey == "" {
			return nil, noop, fmt.Errorf("SOURCE_OBJECT_KEY must be provided for the object source")
		}
		return NewObjectSource(store, sc.ObjectKey), noop, nil

	case KindSQL:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		return NewSQLSource(db, sc.SQLQuery), db.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
}

// Credentials returns the service-account key from GOOGLE_CREDENTIALS_JSON, or the
// file at GOOGLE_CREDENTIALS_FILE when the inline key is empty.
func Credentials(sc config.SourceConfig) ([]byte, error) {
	if strings.TrimSpace(sc.CredentialsJSON) != "" {
		return []byte(sc.CredentialsJSON), nil
	}
	creds, err := os.ReadFile(sc.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	return creds, nil
}
