package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
)

// Workbook sheet names
const (
	SheetSummary        = "Summary"
	SheetEDA            = "EDA"
	SheetModelA         = "ModelA"
	SheetModelB         = "ModelB"
	SheetPPC            = "PPC"
	SheetCounterfactual = "Counterfactual"
)

// WriteWorkbook writes the report as an Excel workbook with one sheet per
// section, a density chart on the PPC sheet and a histogram of differences on
// the Counterfactual sheet.
func WriteWorkbook(path string, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	wb := &workbook{f: f, bold: bold}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := wb.summary(r); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	if r.EDA != nil {
		if err := wb.newSheet(SheetEDA); err != nil {
			return err
		}
		eda := EDATable(r.EDA)
		if err := wb.table(SheetEDA, 1, 1, eda); err != nil {
			return fmt.Errorf("eda sheet: %w", err)
		}
		if err := wb.table(SheetEDA, 1, len(eda.Rows)+3, CorrelationTable(r.EDA)); err != nil {
			return fmt.Errorf("eda sheet: %w", err)
		}
	}

	for _, m := range []struct {
		sheet string
		fit   *bayes.Fit
	}{{SheetModelA, r.ModelA}, {SheetModelB, r.ModelB}} {
		if m.fit == nil {
			continue
		}
		if err := wb.newSheet(m.sheet); err != nil {
			return err
		}
		if err := wb.table(m.sheet, 1, 1, ModelTable(m.fit)); err != nil {
			return fmt.Errorf("%s sheet: %w", m.sheet, err)
		}
	}

	if r.PPC != nil {
		if err := wb.ppc(r); err != nil {
			return fmt.Errorf("ppc sheet: %w", err)
		}
	}
	if r.Counterfactual != nil {
		if err := wb.counterfactual(r); err != nil {
			return fmt.Errorf("counterfactual sheet: %w", err)
		}
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

type workbook struct {
	f    *excelize.File
	bold int
}

func (w *workbook) newSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

// table writes t with its header at (col, row), both 1-based
func (w *workbook) table(sheet string, col, row int, t Table) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := w.row(sheet, col, row, header); err != nil {
		return err
	}
	from, _ := excelize.CoordinatesToCellName(col, row)
	to, _ := excelize.CoordinatesToCellName(col+len(t.Headers)-1, row)
	if err := w.f.SetCellStyle(sheet, from, to, w.bold); err != nil {
		return err
	}
	for i, values := range t.Rows {
		if err := w.row(sheet, col, row+1+i, cellValues(values)); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) row(sheet string, col, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

// cellValues leaves numbers numeric but writes NaN as text, which Excel
// cannot store as a number
func cellValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if x, ok := v.(float64); ok && formatFloat(x) == missingValue {
			out[i] = missingValue
			continue
		}
		out[i] = v
	}
	return out
}

func (w *workbook) summary(r *Report) error {
	rows := [][]any{
		{"run", r.RunID},
	}
	if !r.Started.IsZero() {
		rows = append(rows, []any{"started", r.Started.Format("2006-01-02 15:04:05")})
	}
	if c := r.Config; c != nil {
		rows = append(rows,
			[]any{"reference year", c.Analysis.ReferenceYear},
			[]any{"log price threshold", c.Analysis.LogPriceThreshold},
			[]any{"chains", c.Sampler.Chains},
			[]any{"iterations", c.Sampler.Iterations},
			[]any{"warmup", c.Sampler.Warmup},
			[]any{"seed", fmt.Sprint(c.Sampler.Seed)},
		)
	}
	if r.Imputation.Observed > 0 {
		rows = append(rows,
			[]any{"observed prices", r.Imputation.Observed},
			[]any{"imputed prices", r.Imputation.Imputed},
		)
	}
	if c := r.Counterfactual; c != nil && c.Summary.N > 0 {
		rows = append(rows,
			[]any{"counterfactual records", c.Summary.N},
			[]any{"mean difference", c.Summary.Mean},
			[]any{"expected shift", c.MeanShift},
		)
	}
	for _, warning := range r.Warnings() {
		rows = append(rows, []any{"warning", warning})
	}

	for i, values := range rows {
		if err := w.row(SheetSummary, 1, i+1, values); err != nil {
			return err
		}
	}
	if err := w.f.SetColWidth(SheetSummary, "A", "A", 24); err != nil {
		return err
	}
	if len(r.Stages) > 0 {
		return w.table(SheetSummary, 1, len(rows)+2, StageTable(r.Stages))
	}
	return nil
}

func (w *workbook) ppc(r *Report) error {
	if err := w.newSheet(SheetPPC); err != nil {
		return err
	}
	dens := PPCDensityTable(r.PPC)
	if err := w.table(SheetPPC, 1, 1, dens); err != nil {
		return err
	}
	stats := PPCStatsTable(r.PPC)
	if err := w.table(SheetPPC, 8, 1, stats); err != nil {
		return err
	}

	last := len(dens.Rows) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", SheetPPC, last)
	var series []excelize.ChartSeries
	for col := range dens.Headers[1:] {
		letter, _ := excelize.ColumnNumberToName(col + 2)
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", SheetPPC, letter),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetPPC, letter, letter, last),
		})
	}
	return w.f.AddChart(SheetPPC, "H8", &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: "Observed vs replicated price_log density"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{
			Width:  720,
			Height: 400,
		},
	})
}

func (w *workbook) counterfactual(r *Report) error {
	if err := w.newSheet(SheetCounterfactual); err != nil {
		return err
	}
	records := CounterfactualTable(r.Counterfactual)
	if err := w.table(SheetCounterfactual, 1, 1, records); err != nil {
		return err
	}
	if len(records.Rows) == 0 {
		return nil
	}

	hist := HistogramTable(r.Counterfactual)
	col := len(records.Headers) + 2
	if err := w.table(SheetCounterfactual, col, 1, hist); err != nil {
		return err
	}
	centers, _ := excelize.ColumnNumberToName(col)
	counts, _ := excelize.ColumnNumberToName(col + 1)
	last := len(hist.Rows) + 1
	anchor, _ := excelize.CoordinatesToCellName(col+3, 2)
	return w.f.AddChart(SheetCounterfactual, anchor, &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$%s$1", SheetCounterfactual, counts),
			Categories: fmt.Sprintf("%s!$%s$2:$%s$%d", SheetCounterfactual, centers, centers, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetCounterfactual, counts, counts, last),
		}},
		Title: []excelize.RichTextRun{{Text: fmt.Sprintf("%s minus %s predicted log price",
			r.Counterfactual.From, r.Counterfactual.To)}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}
