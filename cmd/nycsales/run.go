package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/exporter"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/infrastructure"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/pipeline"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/validation"
)

// options holds the command line overrides shared by every command
type options struct {
	configFile string
	dataDir    string
	outDir     string
	seed       uint64
	chains     int
	iter       int
	warmup     int
	parallel   int
	logLevel   string
	noProgress bool
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.configFile, "config", "", "config file (default: nycsales.yaml or configs/nycsales.yaml)")
	fs.StringVar(&o.dataDir, "data-dir", "", "directory with the borough files")
	fs.StringVar(&o.outDir, "out", "", "reports directory; each run writes a subdirectory")
	fs.Uint64Var(&o.seed, "seed", 0, "random seed")
	fs.IntVar(&o.chains, "chains", 0, "number of sampler chains")
	fs.IntVar(&o.iter, "iter", 0, "iterations per chain, including warmup")
	fs.IntVar(&o.warmup, "warmup", 0, "warmup iterations per chain")
	fs.IntVar(&o.parallel, "parallel", 0, "chains sampled at once (0 = number of CPUs)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&o.noProgress, "no-progress", false, "hide sampler progress bars")
}

// apply overlays the flags that were set on the command line onto cfg and
// validates the result
func (o *options) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("data-dir") {
		cfg.Paths.DataDir = o.dataDir
	}
	if fs.Changed("out") {
		cfg.Paths.ReportsDir = o.outDir
	}
	if fs.Changed("seed") {
		cfg.Sampler.Seed = o.seed
	}
	if fs.Changed("chains") {
		cfg.Sampler.Chains = o.chains
	}
	if fs.Changed("iter") {
		cfg.Sampler.Iterations = o.iter
	}
	if fs.Changed("warmup") {
		cfg.Sampler.Warmup = o.warmup
	}
	if fs.Changed("parallel") {
		cfg.Sampler.Parallelism = o.parallel
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	return cfg.Validate()
}

func runCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis and write reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, o, (*pipeline.Runner).Run)
		},
	}
}

func edaCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "eda",
		Short: "Clean the data and write the exploratory summary only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, o, (*pipeline.Runner).RunEDA)
		},
	}
}

type runFunc func(*pipeline.Runner, context.Context) (*pipeline.Result, error)

func execute(cmd *cobra.Command, o *options, run runFunc) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if err := o.apply(cmd.Flags(), cfg); err != nil {
		return err
	}

	runID := time.Now().Format("20060102-150405") + "-" + infrastructure.GenerateRunID()[:8]
	paths, err := config.ResolvePaths(cfg.Paths, cfg.Logging, runID)
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	validator := validation.NewFileValidator(infrastructure.WithComponent(logger, "preflight"))
	if err := validator.ValidateOutputDirectory(paths.RunDir); err != nil {
		return err
	}
	if err := validator.ValidateInputs(paths); err != nil {
		return err
	}

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			infrastructure.WithError(logger, err).Warn("Telemetry shutdown failed")
		}
	}()

	opts := pipeline.Options{
		Config:    cfg,
		Paths:     paths,
		Telemetry: telemetry,
		Logger:    logger,
	}
	if !o.noProgress {
		opts.Progress = progressFactory(cmd)
	}
	runner, err := pipeline.NewRunner(opts)
	if err != nil {
		return err
	}

	res, err := run(runner, cmd.Context())
	if err != nil {
		return err
	}

	if err := exporter.RenderConsole(cmd.OutOrStdout(), res.Report); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nReports written to %s\n", paths.RunDir)
	return nil
}

// progressFactory draws one progress bar per sampling stage on stderr
func progressFactory(cmd *cobra.Command) pipeline.ProgressFactory {
	return func(model string, total int) bayes.Progress {
		return progressbar.NewOptions(total,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("sampling "+model),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(cmd.ErrOrStderr())
			}),
		)
	}
}
