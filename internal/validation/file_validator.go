package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// FileValidator checks the input and output locations of a run before any
// data is read
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputs checks that the data directory exists and holds a readable
// extract for every borough. All missing boroughs are reported at once.
func (v *FileValidator) ValidateInputs(paths *config.Paths) error {
	if err := v.ValidateInputDirectory(paths.DataDir); err != nil {
		return err
	}

	var missing []string
	for b, path := range paths.InputFiles() {
		if err := v.ValidateSalesFile(path); err != nil {
			v.logger.Error("Borough extract unusable",
				slog.String("borough", b.String()),
				slog.String("file", path),
				slog.String("error", err.Error()))
			missing = append(missing, filepath.Base(path))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.NewNotFoundError("sales files "+strings.Join(missing, ", ")).
			WithContext("directory", paths.DataDir)
	}

	v.logger.Info("Input directory validated",
		slog.String("directory", paths.DataDir),
		slog.Int("files_found", len(domain.Boroughs)))
	return nil
}

// ValidateInputDirectory validates that the input directory exists
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewNotFoundError("input directory " + dir)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat input directory", err).
			WithContext("directory", dir)
	}
	if !info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a directory", dir))
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).
			WithContext("directory", dir)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return apperrors.NewStorageError("output directory is not writable", err).
			WithContext("directory", dir)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateSalesFile checks that path is a readable CSV or spreadsheet extract
func (v *FileValidator) ValidateSalesFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewNotFoundError("file " + path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat file", err).WithContext("file", path)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s has unsupported extension %q", path, ext))
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError("file is not readable", err).WithContext("file", path)
	}
	file.Close()

	if info.Size() == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is empty", path))
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
