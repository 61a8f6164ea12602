package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

func TestCaptureHandler(t *testing.T) {
	logger, h := NewTestLogger(t)

	logger.With(slog.String("component", "loader")).Info("loaded", slog.Int("rows", 4))
	logger.Warn("empty selection")

	require.Len(t, h.Records(), 2)
	r := AssertLogContains(t, h, slog.LevelInfo, "load")
	assert.Equal(t, "loader", r.Attrs["component"])
	assert.Equal(t, int64(4), r.Attrs["rows"])

	_, ok := h.Find(slog.LevelError, "empty")
	assert.False(t, ok)
	assert.Len(t, h.RecordsAt(slog.LevelWarn), 1)
	AssertNoErrors(t, h)
}

func TestWriteSalesFiles(t *testing.T) {
	dir := t.TempDir()
	sales := GeneratedSales(3)
	for _, b := range domain.Boroughs {
		require.Len(t, sales[b], 3)
	}

	WriteSalesFiles(t, dir, sales)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	data, err := os.ReadFile(filepath.Join(dir, "rollingsales_statenisland.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), SalesHeader)
	assert.Contains(t, string(data), `5,NEIGHBORHOOD 0,01 FAMILY`)
}
