package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// RawTable is one borough file as read from disk: a header row and string
// cells addressed by header name.
type RawTable struct {
	Source  string
	Borough domain.Borough
	Header  []string
	Rows    [][]string

	index map[string]int
}

// NewRawTable builds a RawTable, canonicalizing header names
func NewRawTable(source string, borough domain.Borough, header []string, rows [][]string) *RawTable {
	t := &RawTable{
		Source:  source,
		Borough: borough,
		Header:  make([]string, len(header)),
		Rows:    rows,
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := CanonicalColumn(h)
		t.Header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	return t
}

// Len returns the number of data rows
func (t *RawTable) Len() int { return len(t.Rows) }

// Has reports whether the table has the column
func (t *RawTable) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Cell returns the raw cell of row i in col. Short rows and unknown columns
// yield ok=false.
func (t *RawTable) Cell(i int, col string) (string, bool) {
	j, ok := t.index[col]
	if !ok || j >= len(t.Rows[i]) {
		return "", false
	}
	return t.Rows[i][j], true
}

// CanonicalColumn maps header spellings like "LAND SQUARE FEET" or
// "land_square_feet" onto the dotted form "LAND.SQUARE.FEET".
func CanonicalColumn(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToUpper(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), ".")
}

// LoadBoroughs reads the file of every borough resolved by paths.
func LoadBoroughs(ctx context.Context, paths *config.Paths, logger *slog.Logger) (map[domain.Borough]*RawTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables := make(map[domain.Borough]*RawTable, len(domain.Boroughs))
	for _, b := range domain.Boroughs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := paths.InputFile(b)
		t, err := LoadFile(path, b)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Loaded borough file",
			slog.String("borough", b.String()),
			slog.String("path", path),
			slog.Int("rows", t.Len()),
			slog.Int("columns", len(t.Header)))
		tables[b] = t
	}
	return tables, nil
}

// LoadFile reads a .csv or .xlsx rolling sales file
func LoadFile(path string, borough domain.Borough) (*RawTable, error) {
	if !config.FileExists(path) {
		return nil, apperrors.NewNotFoundError("borough file").
			WithContext("path", path).
			WithContext("borough", borough.String())
	}

	var (
		t   *RawTable
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		t, err = loadExcel(path, borough)
	default:
		t, err = loadCSV(path, borough)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read borough file", err).
			WithContext("path", path)
	}
	if !t.Has(domain.ColSalePrice) {
		return nil, apperrors.NewParsingError("borough file has no sale price column", apperrors.ErrMissingColumn).
			WithContext("path", path).
			WithContext("column", domain.ColSalePrice)
	}
	return t, nil
}

func loadCSV(path string, borough domain.Borough) (*RawTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadCSV(bytes.NewReader(content), path, borough)
}

// ReadCSV parses a delimited rolling sales extract. A UTF-8 BOM is tolerated.
func ReadCSV(r io.Reader, source string, borough domain.Borough) (*RawTable, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, apperrors.ErrNoRows
	}
	return NewRawTable(source, borough, records[0], records[1:]), nil
}

// loadExcel reads the first sheet that has a BOROUGH header. The published
// workbooks carry a few title rows above the header.
func loadExcel(path string, borough domain.Borough) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for i, row := range rows {
			if !isHeaderRow(row) {
				continue
			}
			data := rows[i+1:]
			// trailing empty rows
			for len(data) > 0 && isBlankRow(data[len(data)-1]) {
				data = data[:len(data)-1]
			}
			return NewRawTable(path, borough, row, data), nil
		}
	}
	return nil, fmt.Errorf("could not find header row in %s", filepath.Base(path))
}

func isHeaderRow(row []string) bool {
	var hasBorough, hasPrice bool
	for _, cell := range row {
		switch CanonicalColumn(cell) {
		case domain.ColBorough:
			hasBorough = true
		case domain.ColSalePrice:
			hasPrice = true
		}
	}
	return hasBorough && hasPrice
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
