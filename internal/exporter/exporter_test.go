package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/dataprocessing"
)

func TestExporter_WriteAll(t *testing.T) {
	paths := testPaths(t)
	r := sampleReport(t)

	written, err := New(paths, nil).WriteAll(context.Background(), r)
	require.NoError(t, err)

	for _, name := range []string{
		FileSummary, FileCoefficients, FileEDA, FileCorrelations,
		FilePPCDensity, FilePPCStats, FileCounterfactual, FileWorkbook,
	} {
		path := filepath.Join(paths.RunDir, name)
		assert.Contains(t, written, path)
		assert.FileExists(t, path)
	}

	summary, err := os.ReadFile(filepath.Join(paths.RunDir, FileSummary))
	require.NoError(t, err)
	for _, want := range []string{
		"run:      run-test",
		"Rows per stage",
		"Model model_a",
		"Model model_b",
		"land_std:boroughqueens",
		"Posterior predictive check",
		"manhattan sales with price_log >= 15.5 predicted as queens",
	} {
		assert.Contains(t, string(summary), want)
	}

	coef, err := os.ReadFile(filepath.Join(paths.RunDir, FileCoefficients))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(coef), "model,term,mean,se,median,mad_sd,q2.5,q97.5,rhat,ess\n"))

	t.Run("workbook", func(t *testing.T) {
		f, err := excelize.OpenFile(filepath.Join(paths.RunDir, FileWorkbook))
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{
			SheetSummary, SheetEDA, SheetModelA, SheetModelB, SheetPPC, SheetCounterfactual,
		}, f.GetSheetList())

		v, err := f.GetCellValue(SheetSummary, "B1")
		require.NoError(t, err)
		assert.Equal(t, "run-test", v)

		rows, err := f.GetRows(SheetModelB)
		require.NoError(t, err)
		assert.Len(t, rows, 1+13+1)
		assert.Equal(t, "term", rows[0][0])

		ppc, err := f.GetRows(SheetPPC)
		require.NoError(t, err)
		assert.Len(t, ppc, 1+64)
	})
}

func TestExporter_WriteAll_EDAOnly(t *testing.T) {
	paths := testPaths(t)
	full := sampleReport(t)
	r := &Report{RunID: "eda-only", EDA: full.EDA, Stages: full.Stages}

	written, err := New(paths, nil).WriteAll(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, written, 4)
	assert.NoFileExists(t, filepath.Join(paths.RunDir, FileCoefficients))

	f, err := excelize.OpenFile(filepath.Join(paths.RunDir, FileWorkbook))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetSummary, SheetEDA}, f.GetSheetList())
}

func TestExporter_EmptyCounterfactual(t *testing.T) {
	r := sampleReport(t)
	r.Counterfactual.Records = nil
	r.Counterfactual.Summary.N = 0

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, r))

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, r))
	assert.Contains(t, buf.String(), "records          0")
}

func TestRenderConsole(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, RenderConsole(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "run-test")
	assert.Contains(t, out, "Rows per stage")
	assert.Contains(t, out, "model_b")
	assert.Contains(t, out, "Counterfactual manhattan -> queens")
	assert.NotContains(t, out, "mad_sd")

	t.Run("eda only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderConsole(&buf, &Report{RunID: "x", EDA: r.EDA}))
		assert.Contains(t, buf.String(), "Boroughs")
		assert.Contains(t, buf.String(), "staten island")
	})
}

func TestReportWarnings(t *testing.T) {
	r := &Report{EDA: &dataprocessing.EDAReport{}}
	assert.Empty(t, r.Warnings())
	assert.Empty(t, r.Fits())
}
