package source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/andresuchdata/salesdash/internal/drive"
	"github.com/rs/zerolog/log"
)

// DriveSource downloads the sheet from Google Drive. A native Google Sheet is
// exported as CSV; uploaded CSV and XLSX files are downloaded as they are.
type DriveSource struct {
	svc      *drive.Service
	fileID   string
	fileName string
	folder   string
}

// NewDriveSource reads fileID when set, otherwise the newest file called fileName
// inside the folder path (empty means anywhere).
func NewDriveSource(svc *drive.Service, fileID, fileName, folder string) *DriveSource {
	return &DriveSource{svc: svc, fileID: fileID, fileName: fileName, folder: folder}
}

func (s *DriveSource) FetchRawRows(ctx context.Context) ([]string, [][]string, error) {
	file, err := s.resolve(ctx)
	if err != nil {
		return nil, nil, unavailable("drive", err)
	}

	var buf bytes.Buffer
	name := file.Name
	switch file.MimeType {
	case drive.MimeGoogleSheet:
		err = s.svc.ExportCSV(ctx, file.ID, &buf)
		name += ".csv"
	case drive.MimeXLSX:
		err = s.svc.DownloadFile(ctx, file.ID, &buf)
		name += ".xlsx"
	default:
		err = s.svc.DownloadFile(ctx, file.ID, &buf)
	}
	if err != nil {
		return nil, nil, unavailable("drive", err)
	}

	log.Debug().Str("file_id", file.ID).Str("name", file.Name).Int("bytes", buf.Len()).Msg("drive file fetched")

	headers, rows, err := Parse(name, buf.Bytes())
	if err != nil {
		return nil, nil, unavailable("drive", err)
	}
	return headers, rows, nil
}

func (s *DriveSource) resolve(ctx context.Context) (*drive.File, error) {
	if s.fileID != "" {
		return s.svc.Stat(ctx, s.fileID)
	}
	if s.fileName == "" {
		return nil, fmt.Errorf("drive file id or name must be provided")
	}

	folderID := ""
	if s.folder != "" {
		id, err := s.svc.FindFolderByPath(ctx, s.folder)
		if err != nil {
			return nil, err
		}
		folderID = id
	}
	return s.svc.FindFileByName(ctx, s.fileName, folderID)
}
