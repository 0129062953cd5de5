package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andresuchdata/salesdash/internal/app"
	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/report"
	"github.com/andresuchdata/salesdash/internal/service"
	"github.com/andresuchdata/salesdash/pkg/logger"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const appKey ctxKey = "app"

func main() {
	logger.SetOutput(os.Stderr)
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("dashctl failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dashctl",
		Usage: "Load the sales sheet and print dashboard pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source-kind",
				Usage:   "Source to read: sheets, drive, file, object or sql",
				EnvVars: []string{"SOURCE_KIND"},
			},
			&cli.StringFlag{
				Name:    "file",
				Usage:   "CSV or XLSX path for the file source",
				EnvVars: []string{"SOURCE_FILE_PATH"},
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Reload the source before running the command",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load the source and print the load summary",
				Action: runLoad,
			},
			{
				Name:  "report",
				Usage: "Render a dashboard page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Value: service.PageSales, Usage: "sales, inventory or customer_supplier"},
					&cli.StringFlag{Name: "format", Value: "md", Usage: "md, html or json"},
					&cli.StringFlag{Name: "start", Usage: "First day, YYYY-MM-DD"},
					&cli.StringFlag{Name: "end", Usage: "Last day, YYYY-MM-DD"},
					&cli.StringSliceFlag{Name: "product"},
					&cli.StringSliceFlag{Name: "category"},
					&cli.StringFlag{Name: "region"},
					&cli.StringFlag{Name: "focus", Usage: "Customer to focus the customer page on"},
				},
				Action: runReport,
			},
			{
				Name:  "forecast",
				Usage: "Forecast daily sales",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "product", Value: service.AllProducts},
					&cli.StringFlag{Name: "category", Value: service.AllCategories},
					&cli.IntFlag{Name: "horizon", Usage: "Days to forecast"},
					&cli.StringFlag{Name: "format", Value: "md", Usage: "md, html or json"},
				},
				Action: runForecast,
			},
			{
				Name:      "lookup",
				Usage:     "Show the line items of an invoice",
				ArgsUsage: "<invoice-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "md", Usage: "md, html or json"},
				},
				Action: runLookup,
			},
			{
				Name:   "options",
				Usage:  "Print filter values and the date range",
				Action: runOptions,
			},
		},
	}
}

func initApp(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	cfg := config.New()
	if kind := c.String("source-kind"); kind != "" {
		cfg.Source.Kind = kind
	}
	if path := c.String("file"); path != "" {
		cfg.Source.FilePath = path
	}

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey).(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

// dashboard returns the service, reloading first when --refresh was given.
func dashboard(c *cli.Context) (*service.DashboardService, error) {
	a, ok := c.Context.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, fmt.Errorf("dashboard not initialized")
	}
	if c.Bool("refresh") {
		if _, err := a.Dashboard.Refresh(c.Context); err != nil {
			return nil, err
		}
	}
	return a.Dashboard, nil
}

func runLoad(c *cli.Context) error {
	a, ok := c.Context.Value(appKey).(*app.App)
	if !ok {
		return fmt.Errorf("dashboard not initialized")
	}
	summary, err := a.Dashboard.Refresh(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, summary)
}

func runReport(c *cli.Context) error {
	svc, err := dashboard(c)
	if err != nil {
		return err
	}
	sel, err := selectionFromFlags(c)
	if err != nil {
		return err
	}

	var page any
	switch c.String("page") {
	case service.PageSales:
		page, err = svc.SalesOverview(c.Context, sel)
	case service.PageInventory:
		page, err = svc.Inventory(c.Context, sel)
	case service.PageCustomerSupplier, "customers":
		page, err = svc.CustomerSupplier(c.Context, sel, c.String("focus"))
	default:
		return fmt.Errorf("%w: unknown page %q", domain.ErrInvalidSelection, c.String("page"))
	}
	if err != nil {
		return err
	}
	return render(c, page)
}

func runForecast(c *cli.Context) error {
	svc, err := dashboard(c)
	if err != nil {
		return err
	}
	page, err := svc.Forecast(c.Context, service.ForecastRequest{
		Product:  c.String("product"),
		Category: c.String("category"),
		Horizon:  c.Int("horizon"),
	})
	if err != nil {
		return err
	}
	return render(c, page)
}

func runLookup(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: expected exactly one invoice id", domain.ErrInvalidSelection)
	}
	svc, err := dashboard(c)
	if err != nil {
		return err
	}
	order, err := svc.OrderLookup(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	return render(c, order)
}

func runOptions(c *cli.Context) error {
	svc, err := dashboard(c)
	if err != nil {
		return err
	}
	opts, err := svc.FilterOptions(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, opts)
}

func selectionFromFlags(c *cli.Context) (domain.FilterSelection, error) {
	sel := domain.NewFilterSelection()

	var start, end time.Time
	for flag, dst := range map[string]*time.Time{"start": &start, "end": &end} {
		raw := strings.TrimSpace(c.String(flag))
		if raw == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return sel, fmt.Errorf("%w: --%s: %v", domain.ErrInvalidSelection, flag, err)
		}
		*dst = d
	}
	if !start.IsZero() || !end.IsZero() {
		sel = sel.WithDateRange(start, end)
	}

	sel = sel.WithMulti(domain.ColProduct, c.StringSlice("product")...)
	sel = sel.WithMulti(domain.ColCategory, c.StringSlice("category")...)
	sel = sel.WithSingle(domain.ColRegion, c.String("region"))
	return sel, nil
}

func render(c *cli.Context, page any) error {
	format := c.String("format")
	if format == "json" {
		return printJSON(c, page)
	}

	out, err := report.Markdown(page)
	if err != nil {
		return err
	}
	if format == "html" {
		if out, err = report.HTML(out); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(c.App.Writer, out)
	return err
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
