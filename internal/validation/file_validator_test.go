package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/shared/testutil"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

func resolve(t *testing.T, dir string) *config.Paths {
	t.Helper()
	p, err := config.ResolvePaths(config.PathsConfig{
		DataDir:     dir,
		ReportsDir:  filepath.Join(dir, "reports"),
		FilePattern: config.DefaultFilePattern,
	}, config.LoggingConfig{}, "run")
	require.NoError(t, err)
	return p
}

func TestFileValidator_ValidateInputs(t *testing.T) {
	t.Run("all boroughs present", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteSalesFiles(t, dir, testutil.GeneratedSales(2))

		logger, h := testutil.NewTestLogger(t)
		require.NoError(t, NewFileValidator(logger).ValidateInputs(resolve(t, dir)))
		testutil.AssertLogContains(t, h, slog.LevelInfo, "Input directory validated")
		testutil.AssertNoErrors(t, h)
	})

	t.Run("missing boroughs are listed together", func(t *testing.T) {
		dir := t.TempDir()
		sales := testutil.GeneratedSales(2)
		delete(sales, domain.BoroughQueens)
		delete(sales, domain.BoroughBronx)
		testutil.WriteSalesFiles(t, dir, sales)

		logger, h := testutil.NewTestLogger(t)
		err := NewFileValidator(logger).ValidateInputs(resolve(t, dir))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
		assert.Contains(t, err.Error(), "rollingsales_bronx.csv, rollingsales_queens.csv")
		assert.Len(t, h.RecordsAt(slog.LevelError), 2)
	})

	t.Run("spreadsheet extract accepted", func(t *testing.T) {
		dir := t.TempDir()
		sales := testutil.GeneratedSales(2)
		delete(sales, domain.BoroughBrooklyn)
		testutil.WriteSalesFiles(t, dir, sales)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rollingsales_brooklyn.xlsx"), []byte("PK"), 0644))

		require.NoError(t, NewFileValidator(nil).ValidateInputs(resolve(t, dir)))
	})

	t.Run("missing directory", func(t *testing.T) {
		err := NewFileValidator(nil).ValidateInputs(resolve(t, filepath.Join(t.TempDir(), "nope")))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})
}

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	require.NoError(t, v.ValidateInputDirectory(t.TempDir()))

	file := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	err := v.ValidateInputDirectory(file)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestFileValidator_ValidateSalesFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		errType apperrors.ErrorType
	}{
		{name: "csv", path: write("a.csv", "BOROUGH\n")},
		{name: "xlsx", path: write("a.xlsx", "PK")},
		{name: "missing", path: filepath.Join(dir, "missing.csv"), errType: apperrors.ErrTypeNotFound},
		{name: "wrong extension", path: write("a.txt", "x"), errType: apperrors.ErrTypeValidation},
		{name: "excel lock file", path: write("~$a.xlsx", "x"), errType: apperrors.ErrTypeValidation},
		{name: "empty", path: write("empty.csv", ""), errType: apperrors.ErrTypeValidation},
		{name: "directory", path: dir, errType: apperrors.ErrTypeValidation},
	}

	v := NewFileValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSalesFile(tt.path)
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.errType, apperrors.TypeOf(err))
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "run-1")
	require.NoError(t, NewFileValidator(nil).ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, ".write_test"))

	file := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	err := NewFileValidator(nil).ValidateOutputDirectory(filepath.Join(file, "sub"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
