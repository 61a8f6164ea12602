package dataprocessing

import (
	"strings"

	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// Merge concatenates normalized borough tables in borough-code order and
// labels each row with its source borough. A row whose own BOROUGH code is
// blank or names another borough takes the table label; the latter are counted
// in Conflicts. A non-blank code that does not parse leaves the row unlabeled
// (BoroughUnknown). All tables must have been normalized with the same column
// sets.
func Merge(tables map[domain.Borough]*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "no tables to merge", apperrors.ErrNoRows)
	}

	order := make([]domain.Borough, 0, len(tables))
	for _, b := range domain.Boroughs {
		if _, ok := tables[b]; ok {
			order = append(order, b)
		}
	}
	if _, ok := tables[domain.BoroughUnknown]; ok {
		order = append(order, domain.BoroughUnknown)
	}

	var first *Table
	total := 0
	for _, b := range order {
		t := tables[b]
		if first == nil {
			first = t
		} else if t.fingerprint != first.fingerprint {
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "cannot merge tables", apperrors.ErrColumnMismatch).
				WithContext("borough", b.String())
		}
		total += t.Len()
	}

	merged := &Table{
		Borough:     domain.BoroughUnknown,
		Labels:      make([]domain.Borough, 0, total),
		Numeric:     make(map[string][]float64, len(first.Numeric)),
		Text:        make(map[string][]string, len(first.Text)),
		Dates:       make(map[string][]Date, len(first.Dates)),
		fingerprint: first.fingerprint,
		n:           total,
	}

	for _, b := range order {
		t := tables[b]
		for col, vals := range t.Numeric {
			merged.Numeric[col] = append(merged.Numeric[col], vals...)
		}
		for col, vals := range t.Text {
			merged.Text[col] = append(merged.Text[col], vals...)
		}
		for col, vals := range t.Dates {
			merged.Dates[col] = append(merged.Dates[col], vals...)
		}
		for i := 0; i < t.Len(); i++ {
			label, conflict := rowBorough(t, i, b)
			if conflict {
				merged.Conflicts++
			}
			merged.Labels = append(merged.Labels, label)
		}
	}

	return merged, nil
}

// rowBorough reports the row label and whether its code disagreed with the
// source table
func rowBorough(t *Table, i int, label domain.Borough) (domain.Borough, bool) {
	code := strings.TrimSpace(t.String(domain.ColBorough, i))
	if code == "" {
		return label, false
	}
	b, err := domain.ParseBoroughCode(code)
	if err != nil {
		return domain.BoroughUnknown, false
	}
	return label, b != label
}

// FilterConfig holds the residential building predicates
type FilterConfig struct {
	ExcludedClassCodes    []string
	ResidentialClassChars string
}

// FilterStats counts rejected rows by the first predicate that failed
type FilterStats struct {
	Input           int
	Kept            int
	ApartmentNumber int
	MultiAddress    int
	ExcludedClass   int
	NonResidential  int
	UnknownBorough  int
}

// Dropped returns the number of rows removed
func (s FilterStats) Dropped() int {
	return s.Input - s.Kept
}

// FilterResidential keeps whole-building residential sales: no apartment
// number (the cell is a single space), a single address (no comma), a
// building class outside the excluded rental set that contains one of the
// residential class characters, and a known borough.
func FilterResidential(t *Table, cfg FilterConfig) (*Table, FilterStats) {
	excluded := make(map[string]struct{}, len(cfg.ExcludedClassCodes))
	for _, code := range cfg.ExcludedClassCodes {
		excluded[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}
	chars := strings.ToUpper(cfg.ResidentialClassChars)

	stats := FilterStats{Input: t.Len()}
	keep := make([]int, 0, t.Len())

	for i := 0; i < t.Len(); i++ {
		class := strings.ToUpper(strings.TrimSpace(t.String(domain.ColBuildingClass, i)))
		switch {
		case t.String(domain.ColApartmentNumber, i) != " ":
			stats.ApartmentNumber++
		case strings.Contains(t.String(domain.ColAddress, i), ","):
			stats.MultiAddress++
		case isExcluded(excluded, class):
			stats.ExcludedClass++
		case !strings.ContainsAny(class, chars):
			stats.NonResidential++
		case !t.Label(i).Valid():
			stats.UnknownBorough++
		default:
			keep = append(keep, i)
		}
	}

	stats.Kept = len(keep)
	return t.subset(keep), stats
}

func isExcluded(excluded map[string]struct{}, class string) bool {
	_, ok := excluded[class]
	return ok
}

// subset returns a new table holding the given rows in order
func (t *Table) subset(rows []int) *Table {
	out := &Table{
		Borough:     t.Borough,
		Labels:      make([]domain.Borough, len(rows)),
		Numeric:     make(map[string][]float64, len(t.Numeric)),
		Text:        make(map[string][]string, len(t.Text)),
		Dates:       make(map[string][]Date, len(t.Dates)),
		fingerprint: t.fingerprint,
		n:           len(rows),
	}
	for col, vals := range t.Numeric {
		sel := make([]float64, len(rows))
		for j, i := range rows {
			sel[j] = vals[i]
		}
		out.Numeric[col] = sel
	}
	for col, vals := range t.Text {
		sel := make([]string, len(rows))
		for j, i := range rows {
			sel[j] = vals[i]
		}
		out.Text[col] = sel
	}
	for col, vals := range t.Dates {
		sel := make([]Date, len(rows))
		for j, i := range rows {
			sel[j] = vals[i]
		}
		out.Dates[col] = sel
	}
	for j, i := range rows {
		out.Labels[j] = t.Label(i)
	}
	return out
}
