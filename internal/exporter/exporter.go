package exporter

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
)

// Report file names inside the run directory
const (
	FileSummary        = "summary.txt"
	FileCoefficients   = "coefficients.csv"
	FileEDA            = "eda.csv"
	FileCorrelations   = "correlations.csv"
	FilePPCDensity     = "ppc_density.csv"
	FilePPCStats       = "ppc_stats.csv"
	FileCounterfactual = "counterfactual.csv"
	FileWorkbook       = "report.xlsx"
)

// Exporter writes every report file of a run
type Exporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// New creates an exporter writing into paths.RunDir
func New(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{paths: paths, csv: NewCSVWriter(paths, logger), logger: logger}
}

// WriteAll writes the text summary, the CSV tables and the workbook for the
// sections present in r, and returns the written paths.
func (e *Exporter) WriteAll(ctx context.Context, r *Report) ([]string, error) {
	start := time.Now()
	if err := os.MkdirAll(e.paths.RunDir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create run directory", err).
			WithContext("path", e.paths.RunDir)
	}

	var written []string
	summary := e.paths.GetReportPath(FileSummary)
	if err := writeSummaryFile(summary, r); err != nil {
		return written, apperrors.NewStorageError("failed to write summary", err).WithContext("path", summary)
	}
	written = append(written, summary)

	var tables []struct {
		file  string
		table Table
	}
	add := func(file string, t Table) {
		tables = append(tables, struct {
			file  string
			table Table
		}{file, t})
	}
	if fits := r.Fits(); len(fits) > 0 {
		add(FileCoefficients, CoefficientTable(fits...))
	}
	if r.EDA != nil {
		add(FileEDA, EDATable(r.EDA))
		add(FileCorrelations, CorrelationTable(r.EDA))
	}
	if r.PPC != nil {
		add(FilePPCDensity, PPCDensityTable(r.PPC))
		add(FilePPCStats, PPCStatsTable(r.PPC))
	}
	if r.Counterfactual != nil {
		add(FileCounterfactual, CounterfactualTable(r.Counterfactual))
	}

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := e.csv.WriteTable(t.file, t.table)
		if err != nil {
			return written, apperrors.NewStorageError("failed to write table", err).WithContext("file", t.file)
		}
		written = append(written, path)
	}

	workbook := e.paths.GetReportPath(FileWorkbook)
	if err := WriteWorkbook(workbook, r); err != nil {
		return written, apperrors.NewStorageError("failed to write workbook", err).WithContext("path", workbook)
	}
	written = append(written, workbook)

	e.logger.InfoContext(ctx, "Reports written",
		slog.String("dir", e.paths.RunDir),
		slog.Int("files", len(written)),
		slog.Duration("elapsed", time.Since(start)))
	return written, nil
}

func writeSummaryFile(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSummary(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
