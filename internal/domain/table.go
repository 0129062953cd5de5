package domain

import (
	"strconv"
	"time"
)

// Kind is the target type of a column after normalization.
type Kind int

const (
	KindRaw Kind = iota
	KindCurrency
	KindPercentage
	KindNumber
	KindDate
	KindIdentifier
	KindCategorical
	KindFlag
)

var kindNames = map[Kind]string{
	KindRaw:         "raw",
	KindCurrency:    "currency",
	KindPercentage:  "percentage",
	KindNumber:      "number",
	KindDate:        "date",
	KindIdentifier:  "identifier",
	KindCategorical: "categorical",
	KindFlag:        "flag",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Numeric reports whether values of this kind live in the numeric cell map.
func (k Kind) Numeric() bool {
	return k == KindCurrency || k == KindPercentage || k == KindNumber
}

// DisplayDateLayout is the day-first layout used when a typed table is rendered back to strings.
const DisplayDateLayout = "02/01/2006"

// Column is a named, typed column of a Table.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Record is one row. Text, numeric, date and flag cells are kept apart; a numeric
// cell absent from its map is missing, which is not the same as zero.
type Record struct {
	text  map[string]string
	nums  map[string]float64
	dates map[string]time.Time
	flags map[string]bool
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{
		text:  make(map[string]string),
		nums:  make(map[string]float64),
		dates: make(map[string]time.Time),
		flags: make(map[string]bool),
	}
}

// Clone returns a deep copy so derived columns can be added without touching the source row.
func (r Record) Clone() Record {
	c := NewRecord()
	for k, v := range r.text {
		c.text[k] = v
	}
	for k, v := range r.nums {
		c.nums[k] = v
	}
	for k, v := range r.dates {
		c.dates[k] = v
	}
	for k, v := range r.flags {
		c.flags[k] = v
	}
	return c
}

func (r Record) Text(col string) (string, bool) {
	v, ok := r.text[col]
	return v, ok
}

// Str returns the text cell or "" when absent.
func (r Record) Str(col string) string {
	return r.text[col]
}

func (r Record) Number(col string) (float64, bool) {
	v, ok := r.nums[col]
	return v, ok
}

// NumberOrZero treats a missing cell as 0, the null-safe accumulation rule for sums.
func (r Record) NumberOrZero(col string) float64 {
	return r.nums[col]
}

func (r Record) Date(col string) (time.Time, bool) {
	v, ok := r.dates[col]
	return v, ok
}

func (r Record) Flag(col string) bool {
	return r.flags[col]
}

func (r Record) SetText(col, v string) {
	delete(r.nums, col)
	delete(r.dates, col)
	r.text[col] = v
}

func (r Record) SetNumber(col string, v float64) {
	delete(r.text, col)
	r.nums[col] = v
}

func (r Record) SetDate(col string, v time.Time) {
	delete(r.text, col)
	r.dates[col] = v
}

func (r Record) SetFlag(col string, v bool) {
	r.flags[col] = v
}

// Unset marks col as missing in every cell map.
func (r Record) Unset(col string) {
	delete(r.text, col)
	delete(r.nums, col)
	delete(r.dates, col)
	delete(r.flags, col)
}

// Table is an ordered set of typed columns and their records.
type Table struct {
	columns []Column
	index   map[string]int
	Records []Record
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...Column) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.AddColumn(c.Name, c.Kind)
	}
	return t
}

// FromRows builds an untyped table from a header row and raw string rows. Short rows
// are padded with empty cells, surplus cells beyond the header are ignored, and a
// repeated or blank header keeps only its first occurrence.
func FromRows(headers []string, rows [][]string) *Table {
	t := NewTable()
	positions := make([]int, 0, len(headers))
	for i, h := range headers {
		if h == "" || t.Has(h) {
			continue
		}
		t.AddColumn(h, KindRaw)
		positions = append(positions, i)
	}

	t.Records = make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := NewRecord()
		for _, pos := range positions {
			val := ""
			if pos < len(row) {
				val = row[pos]
			}
			rec.text[headers[pos]] = val
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// HasAll reports whether every named column is present.
func (t *Table) HasAll(names ...string) bool {
	for _, n := range names {
		if !t.Has(n) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one named column is present.
func (t *Table) HasAny(names ...string) bool {
	for _, n := range names {
		if t.Has(n) {
			return true
		}
	}
	return false
}

func (t *Table) Kind(name string) (Kind, bool) {
	i, ok := t.index[name]
	if !ok {
		return KindRaw, false
	}
	return t.columns[i].Kind, true
}

// AddColumn appends a column, or updates the kind when it already exists.
func (t *Table) AddColumn(name string, kind Kind) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[name]; ok {
		t.columns[i].Kind = kind
		return
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, Column{Name: name, Kind: kind})
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func (t *Table) Empty() bool {
	return t.Len() == 0
}

// WithRecords returns a table with the same columns over a different record set.
// Records are shared, never copied; callers treat them as read-only.
func (t *Table) WithRecords(records []Record) *Table {
	out := NewTable(t.columns...)
	out.Records = records
	return out
}

// Raw renders the table back to header + string rows. Typed cells are formatted so that
// normalizing the output again yields the same values.
func (t *Table) Raw() ([]string, [][]string) {
	headers := t.ColumnNames()
	rows := make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		row := make([]string, len(t.columns))
		for i, c := range t.columns {
			row[i] = rec.render(c)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func (r Record) render(c Column) string {
	switch {
	case c.Kind.Numeric():
		if v, ok := r.nums[c.Name]; ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return ""
	case c.Kind == KindDate:
		if v, ok := r.dates[c.Name]; ok {
			return v.Format(DisplayDateLayout)
		}
		return ""
	case c.Kind == KindFlag:
		return strconv.FormatBool(r.flags[c.Name])
	default:
		return r.text[c.Name]
	}
}
