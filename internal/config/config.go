package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/jk4088/NYHousing-Bayesian-Modeling/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Priors    PriorConfig     `yaml:"priors" envconfig:"PRIORS"`
	Sampler   SamplerConfig   `yaml:"sampler" envconfig:"SAMPLER"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig holds the constants of the sales analysis. Changing any of
// them changes the results, so they are printed at the top of every report.
type AnalysisConfig struct {
	ReferenceYear         int      `yaml:"reference_year" envconfig:"REFERENCE_YEAR" validate:"gt=1700"`
	LogPriceThreshold     float64  `yaml:"log_price_threshold" envconfig:"LOG_PRICE_THRESHOLD" validate:"gt=0"`
	ExcludedClassCodes    []string `yaml:"excluded_class_codes" envconfig:"EXCLUDED_CLASS_CODES"`
	ResidentialClassChars string   `yaml:"residential_class_chars" envconfig:"RESIDENTIAL_CLASS_CHARS" validate:"required"`
	MinArea               float64  `yaml:"min_area" envconfig:"MIN_AREA" validate:"gte=0"`
	PPCDraws              int      `yaml:"ppc_draws" envconfig:"PPC_DRAWS" validate:"gt=0"`
	DensityPoints         int      `yaml:"density_points" envconfig:"DENSITY_POINTS" validate:"gte=16"`
	CounterfactualFrom    string   `yaml:"counterfactual_from" envconfig:"COUNTERFACTUAL_FROM" validate:"required,borough"`
	CounterfactualTo      string   `yaml:"counterfactual_to" envconfig:"COUNTERFACTUAL_TO" validate:"required,borough,nefield=CounterfactualFrom"`
}

// PriorConfig makes the regression priors explicit instead of relying on
// library defaults. Coefficients get Normal(CoefficientMean, CoefficientScale),
// the intercept Normal(InterceptMean, InterceptScale) on centered predictors and
// the residual scale Exponential(AuxRate). With Autoscale the scales are
// multiplied by sd(y)/sd(x) and the rate divided by sd(y).
type PriorConfig struct {
	CoefficientMean  float64 `yaml:"coefficient_mean" envconfig:"COEFFICIENT_MEAN"`
	CoefficientScale float64 `yaml:"coefficient_scale" envconfig:"COEFFICIENT_SCALE" validate:"gt=0"`
	InterceptMean    float64 `yaml:"intercept_mean" envconfig:"INTERCEPT_MEAN"`
	InterceptScale   float64 `yaml:"intercept_scale" envconfig:"INTERCEPT_SCALE" validate:"gt=0"`
	AuxRate          float64 `yaml:"aux_rate" envconfig:"AUX_RATE" validate:"gt=0"`
	Autoscale        bool    `yaml:"autoscale" envconfig:"AUTOSCALE"`
}

// SamplerConfig controls posterior sampling
type SamplerConfig struct {
	Chains      int    `yaml:"chains" envconfig:"CHAINS" validate:"gte=1,lte=64"`
	Iterations  int    `yaml:"iterations" envconfig:"ITERATIONS" validate:"gtfield=Warmup"`
	Warmup      int    `yaml:"warmup" envconfig:"WARMUP" validate:"gte=0"`
	Seed        uint64 `yaml:"seed" envconfig:"SEED"`
	Parallelism int    `yaml:"parallelism" envconfig:"PARALLELISM" validate:"gte=0"`
}

// Draws returns the number of retained draws per chain
func (s SamplerConfig) Draws() int {
	return s.Iterations - s.Warmup
}

// Workers returns the number of chains that may run at once
func (s SamplerConfig) Workers() int {
	if s.Parallelism <= 0 {
		return runtime.NumCPU()
	}
	return s.Parallelism
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	FilePattern string `yaml:"file_pattern" envconfig:"FILE_PATTERN" validate:"required,contains=%s"`
}

// TelemetryConfig controls tracing and the metrics textfile
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// NYCSALES_* environment variables, in increasing order of precedence. A .env
// file in the working directory is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", configFile)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML settings onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"nycsales.yaml",
		"configs/nycsales.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Validate checks struct constraints and normalizes a few fields in place
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("borough", isBoroughName); err != nil {
		return apperrors.NewConfigError("register validators", err)
	}

	if err := v.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return apperrors.NewConfigError("config validation failed", fmt.Errorf("%s", strings.Join(msgs, "; ")))
	}

	for i, code := range c.Analysis.ExcludedClassCodes {
		c.Analysis.ExcludedClassCodes[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	c.Analysis.ResidentialClassChars = strings.ToUpper(c.Analysis.ResidentialClassChars)

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			ReferenceYear:         DefaultReferenceYear,
			LogPriceThreshold:     DefaultLogPriceThreshold,
			ExcludedClassCodes:    append([]string(nil), DefaultExcludedClassCodes...),
			ResidentialClassChars: DefaultResidentialClassChars,
			MinArea:               DefaultMinArea,
			PPCDraws:              DefaultPPCDraws,
			DensityPoints:         DefaultDensityPoints,
			CounterfactualFrom:    "manhattan",
			CounterfactualTo:      "queens",
		},
		Priors: PriorConfig{
			CoefficientMean:  0,
			CoefficientScale: 2.5,
			InterceptMean:    0,
			InterceptScale:   2.5,
			AuxRate:          1,
			Autoscale:        true,
		},
		Sampler: SamplerConfig{
			Chains:      4,
			Iterations:  2000,
			Warmup:      1000,
			Seed:        DefaultSeed,
			Parallelism: 0,
		},
		Paths: PathsConfig{
			DataDir:     DefaultDataDir,
			ReportsDir:  DefaultReportsDir,
			FilePattern: DefaultFilePattern,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			EnableMetrics: true,
			MetricsFile:   "metrics.prom",
		},
	}
}
