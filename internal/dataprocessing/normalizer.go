package dataprocessing

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// SaleDateLayout is the month/day/2-digit-year format of the sale date column
const SaleDateLayout = "01/02/06"

// saleDateLayouts also accepts unpadded months and days and the 4-digit year
// excelize renders for date-formatted cells.
var saleDateLayouts = []string{SaleDateLayout, "1/2/06", "01/02/2006", "1/2/2006", "2006-01-02"}

// ColumnSets assigns every column that survives normalization to exactly one kind
type ColumnSets struct {
	Numeric  []string
	String   []string
	Currency []string
	Date     []string
}

// DefaultColumnSets are the column kinds of the rolling sales extracts
func DefaultColumnSets() ColumnSets {
	return ColumnSets{
		Numeric: []string{
			domain.ColResidentialUnits, domain.ColCommercialUnits, domain.ColTotalUnits,
			domain.ColLandSquareFeet, domain.ColGrossSquareFeet, domain.ColYearBuilt, domain.ColZipCode,
		},
		String: []string{
			domain.ColBorough, domain.ColNeighborhood, domain.ColAddress,
			domain.ColApartmentNumber, domain.ColBuildingClass,
		},
		Currency: []string{domain.ColSalePrice},
		Date:     []string{domain.ColSaleDate},
	}
}

// Validate checks that no column appears in two sets
func (c ColumnSets) Validate() error {
	seen := make(map[string]string)
	for kind, cols := range c.byKind() {
		for _, col := range cols {
			if prev, ok := seen[col]; ok && prev != kind {
				return fmt.Errorf("column %s declared as both %s and %s", col, prev, kind)
			}
			seen[col] = kind
		}
	}
	return nil
}

// Fingerprint identifies the column sets independent of declaration order
func (c ColumnSets) Fingerprint() string {
	var parts []string
	for kind, cols := range c.byKind() {
		sorted := slices.Clone(cols)
		slices.Sort(sorted)
		parts = append(parts, kind+"="+strings.Join(sorted, ","))
	}
	slices.Sort(parts)
	return strings.Join(parts, ";")
}

func (c ColumnSets) byKind() map[string][]string {
	return map[string][]string{
		"numeric":  c.Numeric,
		"string":   c.String,
		"currency": c.Currency,
		"date":     c.Date,
	}
}

// Date is a parsed date cell. Valid is false when the cell was missing or malformed.
type Date struct {
	Time  time.Time
	Valid bool
}

// Table is a normalized, column-oriented sales table. Numeric and currency
// columns hold NaN for missing cells.
type Table struct {
	// Borough is the label of the source table, BoroughUnknown once merged
	Borough domain.Borough
	// Labels holds the per-row borough assigned by Merge
	Labels []domain.Borough
	// Conflicts counts merged rows whose BOROUGH code named another borough
	Conflicts int

	Numeric map[string][]float64
	Text    map[string][]string
	Dates   map[string][]Date

	fingerprint string
	n           int
}

// Len returns the number of rows
func (t *Table) Len() int { return t.n }

// Fingerprint returns the column-set fingerprint the table was normalized with
func (t *Table) Fingerprint() string { return t.fingerprint }

// Float returns a numeric cell, NaN if the column is absent
func (t *Table) Float(col string, i int) float64 {
	if vals, ok := t.Numeric[col]; ok {
		return vals[i]
	}
	return math.NaN()
}

// String returns a text cell, "" if the column is absent
func (t *Table) String(col string, i int) string {
	if vals, ok := t.Text[col]; ok {
		return vals[i]
	}
	return ""
}

// Label returns the borough of row i
func (t *Table) Label(i int) domain.Borough {
	if t.Labels == nil {
		return t.Borough
	}
	return t.Labels[i]
}

// Record materializes row i as a SaleRecord
func (t *Table) Record(i int) domain.SaleRecord {
	var saleDate time.Time
	if d, ok := t.Dates[domain.ColSaleDate]; ok && d[i].Valid {
		saleDate = d[i].Time
	}
	return domain.SaleRecord{
		Borough:          t.Label(i),
		Neighborhood:     t.String(domain.ColNeighborhood, i),
		ResidentialUnits: t.Float(domain.ColResidentialUnits, i),
		CommercialUnits:  t.Float(domain.ColCommercialUnits, i),
		TotalUnits:       t.Float(domain.ColTotalUnits, i),
		LandSquareFeet:   t.Float(domain.ColLandSquareFeet, i),
		GrossSquareFeet:  t.Float(domain.ColGrossSquareFeet, i),
		YearBuilt:        t.Float(domain.ColYearBuilt, i),
		ZipCode:          t.Float(domain.ColZipCode, i),
		Address:          t.String(domain.ColAddress, i),
		ApartmentNumber:  t.String(domain.ColApartmentNumber, i),
		BuildingClass:    t.String(domain.ColBuildingClass, i),
		SalePrice:        t.Float(domain.ColSalePrice, i),
		SaleDate:         saleDate,
	}
}

// NormalizeStats counts cells that became missing, per column
type NormalizeStats struct {
	Rows          int
	MissingCells  map[string]int
	AbsentColumns []string
}

// TotalMissing sums missing cells over all columns
func (s NormalizeStats) TotalMissing() int {
	total := 0
	for _, n := range s.MissingCells {
		total += n
	}
	return total
}

// Normalize coerces the columns of raw to the kinds declared in cols. Cells
// that do not parse become missing; no row is dropped. Columns of raw that
// are not declared are discarded, declared columns absent from raw are all
// missing.
func Normalize(raw *RawTable, cols ColumnSets) (*Table, NormalizeStats) {
	n := raw.Len()
	t := &Table{
		Borough:     raw.Borough,
		Numeric:     make(map[string][]float64),
		Text:        make(map[string][]string),
		Dates:       make(map[string][]Date),
		fingerprint: cols.Fingerprint(),
		n:           n,
	}
	stats := NormalizeStats{Rows: n, MissingCells: make(map[string]int)}

	noteAbsent := func(col string) {
		if !raw.Has(col) {
			stats.AbsentColumns = append(stats.AbsentColumns, col)
		}
	}

	for _, col := range cols.Numeric {
		noteAbsent(col)
		t.Numeric[col] = normalizeFloats(raw, col, parseNumeric, &stats)
	}
	for _, col := range cols.Currency {
		noteAbsent(col)
		t.Numeric[col] = normalizeFloats(raw, col, parseCurrency, &stats)
	}
	for _, col := range cols.String {
		noteAbsent(col)
		vals := make([]string, n)
		for i := range vals {
			cell, ok := raw.Cell(i, col)
			if !ok {
				stats.MissingCells[col]++
			}
			vals[i] = cell
		}
		t.Text[col] = vals
	}
	for _, col := range cols.Date {
		noteAbsent(col)
		vals := make([]Date, n)
		for i := range vals {
			cell, _ := raw.Cell(i, col)
			vals[i] = parseDate(cell)
			if !vals[i].Valid {
				stats.MissingCells[col]++
			}
		}
		t.Dates[col] = vals
	}

	return t, stats
}

func normalizeFloats(raw *RawTable, col string, parse func(string) (float64, bool), stats *NormalizeStats) []float64 {
	vals := make([]float64, raw.Len())
	for i := range vals {
		cell, _ := raw.Cell(i, col)
		v, ok := parse(cell)
		if !ok {
			v = math.NaN()
			stats.MissingCells[col]++
		}
		vals[i] = v
	}
	return vals
}

// parseNumeric converts a plain numeric cell. Thousands separators are
// tolerated since the spreadsheet exports format areas as "1,250".
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "-" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseCurrency strips "$" and "," before numeric parsing
func parseCurrency(s string) (float64, bool) {
	return parseNumeric(strings.NewReplacer("$", "", ",", "").Replace(s))
}

func parseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	// datetime cells may carry a time part
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Valid: true}
		}
	}
	return Date{}
}
