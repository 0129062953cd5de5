package service

import (
	"sort"
	"strings"

	"github.com/andresuchdata/salesdash/internal/aggregate"
	"github.com/andresuchdata/salesdash/internal/domain"
)

const (
	msgNoRows        = "No data matches the current filter criteria."
	msgNoChartData   = "No data for the selected filters."
	msgNotEnoughTime = "Not enough distinct monthly data for trends."
)

// chart turns groups into a bar/pie chart. display renders each value for tooltips.
func chart(title string, groups []aggregate.Group, display func(float64) string) domain.Chart {
	c := domain.Chart{Title: title, Points: make([]domain.ChartPoint, 0, len(groups))}
	for _, g := range groups {
		p := domain.ChartPoint{Label: g.Key, Value: g.Value}
		if display != nil {
			p.Display = display(g.Value)
		}
		c.Points = append(c.Points, p)
	}
	c.Available = len(c.Points) > 0
	if !c.Available {
		c.Message = msgNoChartData
	}
	return c
}

// missingChart reports a chart whose input columns are absent.
func missingChart(title string, t *domain.Table, cols ...string) domain.Chart {
	return domain.Chart{
		Title:   title,
		Points:  []domain.ChartPoint{},
		Message: missingMessage(t, cols...),
	}
}

func missingMessage(t *domain.Table, cols ...string) string {
	return "Required columns missing: " + strings.Join(domain.MissingColumns(t, cols...), ", ")
}

// series is one named line of a trend.
type series struct {
	name   string
	groups []aggregate.Group
}

// trend merges monthly series into one chart. It is only available with two or more months.
func trend(title string, lines ...series) domain.Trend {
	tr := domain.Trend{Title: title, Points: []domain.TrendPoint{}}
	byMonth := make(map[string]map[string]float64)
	for _, l := range lines {
		tr.Series = append(tr.Series, l.name)
		for _, g := range l.groups {
			if byMonth[g.Key] == nil {
				byMonth[g.Key] = make(map[string]float64, len(lines))
			}
			byMonth[g.Key][l.name] = g.Value
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		tr.Points = append(tr.Points, domain.TrendPoint{Month: m, Values: byMonth[m]})
	}

	tr.Available = aggregate.HasTrend(len(months))
	if !tr.Available {
		tr.Message = msgNotEnoughTime
	}
	return tr
}

func missingTrend(title string, t *domain.Table, cols ...string) domain.Trend {
	return domain.Trend{Title: title, Points: []domain.TrendPoint{}, Message: missingMessage(t, cols...)}
}

// percentFactor is the multiplier that puts col on the 0-100 scale for display.
func percentFactor(schema domain.Schema, col string) float64 {
	if schema.ScaleOf(col) == domain.ScaleFraction {
		return 100
	}
	return 1
}

func kpi(label string, v float64, display func(float64) string) domain.KPI {
	return domain.KPI{Label: label, Value: v, Display: display(v)}
}

// meanKPI shows MissingValue when there is nothing to average.
func meanKPI(label string, v float64, ok bool, display func(float64) string, missing string) domain.KPI {
	if !ok {
		return domain.KPI{Label: label, Display: missing}
	}
	return kpi(label, v, display)
}

// descending orders groups by value, largest first; ties keep key order.
func descending(groups []aggregate.Group) []aggregate.Group {
	return aggregate.TopN(groups, 0, false)
}
