package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/repository/postgres"
	"github.com/andresuchdata/salesdash/internal/source"
	"github.com/andresuchdata/salesdash/internal/storage"
	"github.com/andresuchdata/salesdash/pkg/logger"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const cfgKey ctxKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "seed",
		Usage: "Copy the sales sheet into Postgres or pull snapshots from object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source-kind",
				Usage:   "Source to read: sheets, drive, file or object",
				EnvVars: []string{"SOURCE_KIND"},
			},
			&cli.StringFlag{
				Name:    "file",
				Usage:   "CSV or XLSX path for the file source",
				EnvVars: []string{"SOURCE_FILE_PATH"},
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:  "sales",
				Usage: "Replace a Postgres table with the rows of the configured source",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "table",
						Usage:   "Destination table",
						Value:   postgres.DefaultSalesTable,
						EnvVars: []string{"SEED_TABLE"},
					},
				},
				Action: seedSales,
			},
			{
				Name:  "download",
				Usage: "Download sheet snapshots from the configured bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Only objects under this prefix"},
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Local directory for downloaded objects",
						Value:   "./data/tmp/snapshots",
						EnvVars: []string{"SEED_DOWNLOAD_DIR"},
					},
				},
				Action: downloadSnapshots,
			},
		},
	}
}

func loadConfig(c *cli.Context) error {
	cfg := config.New()
	logger.SetLevel(cfg.Log.Level)
	if kind := c.String("source-kind"); kind != "" {
		cfg.Source.Kind = kind
	}
	if path := c.String("file"); path != "" {
		cfg.Source.FilePath = path
	}
	c.Context = context.WithValue(c.Context, cfgKey, cfg)
	return nil
}

func configFrom(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.Context.Value(cfgKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	return cfg, nil
}

func seedSales(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	if strings.EqualFold(cfg.Source.Kind, source.KindSQL) {
		return fmt.Errorf("the sql source cannot seed itself; pick sheets, drive, file or object")
	}

	// 1. Read the source
	src, closeSource, err := source.FromConfig(c.Context, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	headers, rows, err := src.FetchRawRows(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read %s source: %w", cfg.Source.Kind, err)
	}

	// 2. Connect to the database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// 3. Replace the table
	n, err := postgres.NewSalesRowsRepository(db.DB).Replace(c.Context, c.String("table"), headers, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Seeded %d rows into %s\n", n, c.String("table"))
	return nil
}

func downloadSnapshots(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}
	return download(c.Context, c.App.Writer, store, c.String("prefix"), c.String("dir"))
}

func download(ctx context.Context, w io.Writer, store storage.ObjectStorage, prefix, dir string) error {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}
	if len(objects) == 0 {
		logger.Log.Warn().Str("prefix", prefix).Msg("no objects found")
		return nil
	}

	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return fmt.Errorf("failed to download %s: %w", obj.Key, err)
		}
		fmt.Fprintf(w, "%s -> %s\n", obj.Key, dest)
	}
	return nil
}
