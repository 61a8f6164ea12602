package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// Paths contains the resolved locations used by a single run
type Paths struct {
	DataDir    string
	ReportsDir string
	RunDir     string
	LogsDir    string

	filePattern string
}

// ResolvePaths turns the configured directories into absolute paths. Reports
// of a run are written to ReportsDir/<runID>.
func ResolvePaths(cfg PathsConfig, logging LoggingConfig, runID string) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	reportsDir, err := filepath.Abs(cfg.ReportsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve reports dir: %w", err)
	}

	p := &Paths{
		DataDir:     dataDir,
		ReportsDir:  reportsDir,
		RunDir:      filepath.Join(reportsDir, runID),
		filePattern: cfg.FilePattern,
	}
	if logging.FilePath != "" {
		p.LogsDir = filepath.Dir(logging.FilePath)
	}
	return p, nil
}

// EnsureDirectories creates the output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.ReportsDir, p.RunDir}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// BoroughSlug is the file-name form of a borough ("staten island" -> "statenisland")
func BoroughSlug(b domain.Borough) string {
	return strings.ReplaceAll(b.String(), " ", "")
}

// InputFile returns the expected CSV path for a borough. When no CSV exists but
// an .xlsx with the same stem does, the spreadsheet path is returned instead.
func (p *Paths) InputFile(b domain.Borough) string {
	name := filepath.Join(p.DataDir, fmt.Sprintf(p.filePattern, BoroughSlug(b)))
	if FileExists(name) {
		return name
	}
	xlsx := strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
	if FileExists(xlsx) {
		return xlsx
	}
	return name
}

// InputFiles returns the input path of every borough
func (p *Paths) InputFiles() map[domain.Borough]string {
	files := make(map[domain.Borough]string, len(domain.Boroughs))
	for _, b := range domain.Boroughs {
		files[b] = p.InputFile(b)
	}
	return files
}

// GetReportPath returns a path inside the run directory
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.RunDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// isBoroughName validates borough names in configuration
func isBoroughName(fl validator.FieldLevel) bool {
	_, err := domain.ParseBoroughName(fl.Field().String())
	return err == nil
}
