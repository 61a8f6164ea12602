package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// missingValue is written for NaN cells, matching R's convention
const missingValue = "NA"

// formatFloat formats a float64 with at most six decimals and no trailing zeros
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return missingValue
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return "Inf"
		}
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatCell renders one table cell
func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case int:
		return formatInt(x)
	case bool:
		return formatBool(x)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = formatCell(v)
	}
	return out
}
