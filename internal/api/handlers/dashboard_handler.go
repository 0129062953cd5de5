package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/report"
	"github.com/andresuchdata/salesdash/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// Query parameter names of the filter widgets.
var paramColumns = map[string]string{
	"day_type":      domain.ColDayType,
	"product":       domain.ColProduct,
	"category":      domain.ColCategory,
	"customer":      domain.ColCustomerName,
	"supplier":      domain.ColSupplier,
	"stock_alert":   domain.ColStockAlert,
	"region":        domain.ColRegion,
	"customer_flag": domain.ColCustomerFlag,
}

var (
	salesMulti     = []string{"day_type", "product", "category", "customer", "supplier"}
	inventoryMulti = []string{"product", "category", "customer", "stock_alert"}
	customerSingle = []string{"region", "customer_flag", "day_type"}
)

type DashboardHandler struct {
	service *service.DashboardService
}

func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// parseSelection reads the date range plus the given multi and single select params.
// Multi values may be repeated (?product=A&product=B) or comma separated (?product=A,B).
func parseSelection(c *gin.Context, multi, single []string) (domain.FilterSelection, error) {
	sel := domain.NewFilterSelection()

	start, err := parseDate(c.Query("start_date"))
	if err != nil {
		return sel, fmt.Errorf("%w: start_date: %v", domain.ErrInvalidSelection, err)
	}
	end, err := parseDate(c.Query("end_date"))
	if err != nil {
		return sel, fmt.Errorf("%w: end_date: %v", domain.ErrInvalidSelection, err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return sel, fmt.Errorf("%w: end_date before start_date", domain.ErrInvalidSelection)
	}
	if !start.IsZero() || !end.IsZero() {
		sel = sel.WithDateRange(start, end)
	}

	for _, param := range multi {
		if values := splitValues(c.QueryArray(param)); len(values) > 0 {
			sel = sel.WithMulti(paramColumns[param], values...)
		}
	}
	for _, param := range single {
		if v := strings.TrimSpace(c.Query(param)); v != "" {
			sel = sel.WithSingle(paramColumns[param], v)
		}
	}
	return sel, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}

func splitValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{})
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

// respond writes data as JSON, or as a Markdown/HTML report when ?format asks for one.
func respond(c *gin.Context, data any) {
	switch c.Query("format") {
	case "md", "markdown":
		out, err := report.Markdown(data)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(out))
	case "html":
		out, err := report.Markdown(data)
		if err == nil {
			out, err = report.HTML(out)
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
	default:
		c.JSON(http.StatusOK, data)
	}
}

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, domain.ErrSourceUnavailable):
		status, message = http.StatusServiceUnavailable, "data source unavailable"
	case errors.Is(err, domain.ErrInvalidSelection):
		status, message = http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrColumnMissing):
		status, message = http.StatusUnprocessableEntity, "required column missing"
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg(message)

	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func (h *DashboardHandler) GetSales(c *gin.Context) {
	sel, err := parseSelection(c, salesMulti, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.service.SalesOverview(c.Request.Context(), sel)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, page)
}

func (h *DashboardHandler) GetInventory(c *gin.Context) {
	sel, err := parseSelection(c, inventoryMulti, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.service.Inventory(c.Request.Context(), sel)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, page)
}

// GetCustomers serves the customer and supplier page. ?focus narrows it to one customer.
func (h *DashboardHandler) GetCustomers(c *gin.Context) {
	sel, err := parseSelection(c, nil, customerSingle)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.service.CustomerSupplier(c.Request.Context(), sel, strings.TrimSpace(c.Query("focus")))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, page)
}

func (h *DashboardHandler) GetForecast(c *gin.Context) {
	req := service.ForecastRequest{
		Product:  c.Query("product"),
		Category: c.Query("category"),
	}
	if raw := strings.TrimSpace(c.Query("horizon")); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: horizon must be a whole number of days", domain.ErrInvalidSelection))
			return
		}
		req.Horizon = horizon
	}

	page, err := h.service.Forecast(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, page)
}

func (h *DashboardHandler) GetOrder(c *gin.Context) {
	order, err := h.service.OrderLookup(c.Request.Context(), c.Param("invoice_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, order)
}

func (h *DashboardHandler) GetOptions(c *gin.Context) {
	opts, err := h.service.FilterOptions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"options":  opts,
		"horizons": h.service.Horizons(),
	})
}

// Refresh reloads the source and drops cached pages.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	summary, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
