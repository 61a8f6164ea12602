package dataprocessing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

const salesHeader = "BOROUGH,NEIGHBORHOOD,ADDRESS,APARTMENT NUMBER,ZIP CODE,RESIDENTIAL UNITS,COMMERCIAL UNITS,TOTAL UNITS,LAND SQUARE FEET,GROSS SQUARE FEET,YEAR BUILT,BUILDING CLASS AT TIME OF SALE,SALE PRICE,SALE DATE"

// sale is one test row; empty strings become blank cells
type sale struct {
	code, address, apt, units, land, gross, year, class, price string
}

func (s sale) csv() string {
	return strings.Join([]string{
		s.code, "HOOD", quote(s.address), s.apt, "10001", s.units, "0", s.units,
		quote(s.land), quote(s.gross), s.year, s.class, quote(s.price), "01/15/18",
	}, ",")
}

func quote(s string) string {
	if strings.ContainsAny(s, ",\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// house returns a residential sale that passes every filter
func house(code, land, gross, year, price string) sale {
	return sale{code: code, address: "1 MAIN ST", apt: " ", units: "1", land: land, gross: gross, year: year, class: "A1", price: price}
}

func rawTable(t *testing.T, b domain.Borough, rows ...sale) *RawTable {
	t.Helper()
	lines := []string{salesHeader}
	for _, r := range rows {
		lines = append(lines, r.csv())
	}
	raw, err := ReadCSV(strings.NewReader(strings.Join(lines, "\n")+"\n"), "test.csv", b)
	require.NoError(t, err)
	return raw
}

func normalizedTable(t *testing.T, b domain.Borough, rows ...sale) *Table {
	t.Helper()
	table, _ := Normalize(rawTable(t, b, rows...), DefaultColumnSets())
	return table
}
