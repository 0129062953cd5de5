package normalize

import (
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/rs/zerolog/log"
)

// Report counts what normalization degraded. It never carries errors: bad cells
// become missing values or the N/A sentinel and the batch continues.
type Report struct {
	InputRows   int               `json:"input_rows"`
	OutputRows  int               `json:"output_rows"`
	DroppedRows int               `json:"dropped_rows"`
	MissingDate bool              `json:"missing_date"`
	Degraded    map[string]int    `json:"degraded"`
	Renamed     map[string]string `json:"renamed,omitempty"`
}

// Normalizer converts raw string columns into the kinds declared by a schema.
type Normalizer struct {
	schema domain.Schema
}

// New creates a Normalizer for the given schema.
func New(schema domain.Schema) *Normalizer {
	return &Normalizer{schema: schema}
}

type columnPlan struct {
	source string
	target string
	kind   domain.Kind
	// typed columns are copied as they are
	typed bool
}

// Normalize returns a new table where every declared raw column has its target kind.
// Columns that are already typed and undeclared columns pass through untouched, which
// makes the operation idempotent. Rows whose date does not parse are dropped; a table
// without a Date column yields an empty table.
func (n *Normalizer) Normalize(t *domain.Table) (*domain.Table, Report) {
	report := Report{
		InputRows: t.Len(),
		Degraded:  make(map[string]int),
		Renamed:   make(map[string]string),
	}

	plans := n.plan(t, &report)
	out := domain.NewTable()
	for _, p := range plans {
		out.AddColumn(p.target, p.kind)
	}

	if !out.Has(domain.ColDate) {
		report.MissingDate = true
		report.DroppedRows = report.InputRows
		log.Warn().Int("rows", report.InputRows).Msg("normalize: no Date column, returning empty table")
		return out, report
	}

	out.Records = make([]domain.Record, 0, t.Len())
	for _, src := range t.Records {
		rec, ok := n.convert(src, plans, &report)
		if !ok {
			report.DroppedRows++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	report.OutputRows = out.Len()

	if report.DroppedRows > 0 || len(report.Degraded) > 0 {
		log.Debug().
			Int("dropped_rows", report.DroppedRows).
			Interface("degraded", report.Degraded).
			Msg("normalize: degraded cells")
	}

	return out, report
}

func (n *Normalizer) plan(t *domain.Table, report *Report) []columnPlan {
	plans := make([]columnPlan, 0, len(t.Columns()))
	taken := make(map[string]bool)

	for _, col := range t.Columns() {
		if col.Kind != domain.KindRaw {
			plans = append(plans, columnPlan{source: col.Name, target: col.Name, kind: col.Kind, typed: true})
			taken[col.Name] = true
			continue
		}

		spec, ok := n.schema.Lookup(col.Name)
		if !ok {
			if taken[col.Name] {
				continue
			}
			plans = append(plans, columnPlan{source: col.Name, target: col.Name, kind: domain.KindRaw})
			taken[col.Name] = true
			continue
		}
		if taken[spec.Name] {
			// a second header resolving to the same canonical column is ignored
			continue
		}
		if spec.Name != col.Name {
			report.Renamed[col.Name] = spec.Name
		}
		plans = append(plans, columnPlan{source: col.Name, target: spec.Name, kind: spec.Kind})
		taken[spec.Name] = true
	}
	return plans
}

func (n *Normalizer) convert(src domain.Record, plans []columnPlan, report *Report) (domain.Record, bool) {
	rec := domain.NewRecord()
	for _, p := range plans {
		if p.typed {
			copyCell(src, rec, p.source, p.kind)
			if p.kind == domain.KindDate {
				if _, ok := rec.Date(p.target); !ok && p.target == domain.ColDate {
					return rec, false
				}
			}
			continue
		}

		raw := src.Str(p.source)
		switch p.kind {
		case domain.KindCurrency:
			n.setNumber(rec, p.target, raw, ParseCurrency, report)
		case domain.KindPercentage:
			n.setNumber(rec, p.target, raw, ParsePercentage, report)
		case domain.KindNumber:
			n.setNumber(rec, p.target, raw, ParseNumber, report)
		case domain.KindDate:
			d, ok := ParseDate(raw)
			if !ok {
				if p.target == domain.ColDate {
					return rec, false
				}
				report.Degraded[p.target]++
				continue
			}
			rec.SetDate(p.target, d)
		case domain.KindCategorical:
			v := Categorical(raw)
			if v == NotAvailable && raw != NotAvailable {
				report.Degraded[p.target]++
			}
			rec.SetText(p.target, v)
		case domain.KindIdentifier:
			rec.SetText(p.target, Identifier(raw))
		default:
			rec.SetText(p.target, raw)
		}
	}
	return rec, true
}

func (n *Normalizer) setNumber(rec domain.Record, col, raw string, parse func(string) (float64, bool), report *Report) {
	v, ok := parse(raw)
	if !ok {
		if raw != "" {
			report.Degraded[col]++
		}
		return
	}
	rec.SetNumber(col, v)
}

func copyCell(src, dst domain.Record, col string, kind domain.Kind) {
	switch {
	case kind.Numeric():
		if v, ok := src.Number(col); ok {
			dst.SetNumber(col, v)
		}
	case kind == domain.KindDate:
		if v, ok := src.Date(col); ok {
			dst.SetDate(col, v)
		}
	case kind == domain.KindFlag:
		dst.SetFlag(col, src.Flag(col))
	default:
		if v, ok := src.Text(col); ok {
			dst.SetText(col, v)
		}
	}
}
