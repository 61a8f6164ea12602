package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/dataprocessing"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/evaluation"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/exporter"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/infrastructure"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/modeling"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// Stage identifiers, in execution order
const (
	StageLoad           = "load"
	StageNormalize      = "normalize"
	StageMerge          = "merge"
	StageFilter         = "filter"
	StageFeatures       = "features"
	StageEDA            = "eda"
	StageImpute         = "impute"
	StageFit            = "fit"
	StagePPC            = "ppc"
	StageCounterfactual = "counterfactual"
	StageExport         = "export"
)

// AllStages is the full analysis
var AllStages = []string{
	StageLoad, StageNormalize, StageMerge, StageFilter, StageFeatures, StageEDA,
	StageImpute, StageFit, StagePPC, StageCounterfactual, StageExport,
}

// EDAStages stops after the exploratory summary
var EDAStages = []string{
	StageLoad, StageNormalize, StageMerge, StageFilter, StageFeatures, StageEDA, StageExport,
}

// ProgressFactory creates a progress sink for a sampling run of total
// iterations. It may return nil.
type ProgressFactory func(model string, total int) bayes.Progress

// Options configures a Runner
type Options struct {
	Config    *config.Config
	Paths     *config.Paths
	Telemetry *infrastructure.Telemetry
	Logger    *slog.Logger
	Progress  ProgressFactory
}

// Runner executes the sales analysis stage by stage
type Runner struct {
	cfg       *config.Config
	paths     *config.Paths
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
	progress  ProgressFactory
}

// Result is the outcome of a run
type Result struct {
	State    *RunState
	Report   *exporter.Report
	Features *dataprocessing.FeatureTable
	Imputed  *modeling.ImputedTable
	Models   *modeling.Models
	Files    []string
}

// NewRunner validates opts and creates a runner. A nil Telemetry gets a
// no-op one.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Config == nil || opts.Paths == nil {
		return nil, errors.New("pipeline needs a config and resolved paths")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	telemetry := opts.Telemetry
	if telemetry == nil {
		var err error
		telemetry, err = infrastructure.InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none"}, logger)
		if err != nil {
			return nil, err
		}
	}
	return &Runner{
		cfg:       opts.Config,
		paths:     opts.Paths,
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		progress:  opts.Progress,
	}, nil
}

// SamplerConfig maps the sampler and prior settings to a sampler run
func SamplerConfig(cfg *config.Config) bayes.Config {
	return bayes.Config{
		Chains:      cfg.Sampler.Chains,
		Iterations:  cfg.Sampler.Iterations,
		Warmup:      cfg.Sampler.Warmup,
		Seed:        cfg.Sampler.Seed,
		Parallelism: cfg.Sampler.Workers(),
		Priors: bayes.Priors{
			CoefficientMean:  cfg.Priors.CoefficientMean,
			CoefficientScale: cfg.Priors.CoefficientScale,
			InterceptMean:    cfg.Priors.InterceptMean,
			InterceptScale:   cfg.Priors.InterceptScale,
			AuxRate:          cfg.Priors.AuxRate,
			Autoscale:        cfg.Priors.Autoscale,
		},
	}
}

// Run executes the full analysis and writes the reports
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.execute(ctx, AllStages)
}

// RunEDA stops after the exploratory summary and writes its reports
func (r *Runner) RunEDA(ctx context.Context) (*Result, error) {
	return r.execute(ctx, EDAStages)
}

// run carries data between stages
type run struct {
	raw        map[domain.Borough]*dataprocessing.RawTable
	normalized map[domain.Borough]*dataprocessing.Table
	merged     *dataprocessing.Table
	filtered   *dataprocessing.Table
	result     *Result
}

func (r *Runner) execute(ctx context.Context, stages []string) (*Result, error) {
	runID := filepath.Base(r.paths.RunDir)
	ctx = infrastructure.WithRunID(ctx, runID)

	state := NewRunState(runID, stages)
	state.Start()
	res := &Result{
		State:  state,
		Report: &exporter.Report{RunID: runID, Started: state.StartTime, Config: r.cfg},
	}
	data := &run{result: res}

	ctx, span := r.telemetry.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("stages", len(stages)),
	))
	defer span.End()

	r.logger.InfoContext(ctx, "Pipeline started",
		slog.String("data_dir", r.paths.DataDir),
		slog.String("run_dir", r.paths.RunDir),
		slog.Any("stages", stages))

	for _, id := range stages {
		if err := r.step(ctx, state.Step(id), data); err != nil {
			if ctx.Err() != nil {
				state.Cancel()
			} else {
				state.Fail(err)
			}
			span.RecordError(err)
			infrastructure.WithError(r.logger, err).ErrorContext(ctx, "Pipeline failed",
				slog.String("stage", id))
			return res, fmt.Errorf("stage %s: %w", id, err)
		}
	}

	state.Complete()
	res.Report.Duration = state.Duration()
	r.writeMetrics(ctx)

	r.logger.InfoContext(ctx, "Pipeline completed",
		slog.Duration("elapsed", state.Duration()),
		slog.Int("files", len(res.Files)))
	return res, nil
}

// step runs one stage inside a span and records its duration
func (r *Runner) step(ctx context.Context, st *StepState, data *run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := r.telemetry.StartStage(ctx, st.ID)
	st.Start()
	start := time.Now()

	err := r.stageFunc(st.ID)(ctx, data)

	r.telemetry.RecordStage(ctx, span, st.ID, time.Since(start), err)
	if err != nil {
		st.Fail(err)
		return err
	}
	st.Complete()
	r.logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", st.ID),
		slog.Duration("elapsed", st.Duration()))
	return nil
}

func (r *Runner) stageFunc(id string) func(context.Context, *run) error {
	switch id {
	case StageLoad:
		return r.load
	case StageNormalize:
		return r.normalize
	case StageMerge:
		return r.merge
	case StageFilter:
		return r.filter
	case StageFeatures:
		return r.features
	case StageEDA:
		return r.eda
	case StageImpute:
		return r.impute
	case StageFit:
		return r.fit
	case StagePPC:
		return r.ppc
	case StageCounterfactual:
		return r.counterfactual
	case StageExport:
		return r.export
	}
	return func(context.Context, *run) error { return fmt.Errorf("unknown stage %q", id) }
}

// count appends a stage row count to the report and records it as metrics
func (r *Runner) count(ctx context.Context, data *run, c exporter.StageCount) {
	data.result.Report.Stages = append(data.result.Report.Stages, c)
	r.telemetry.RecordRows(ctx, c.Stage, infrastructure.OutcomeKept, c.Output)
	r.telemetry.RecordRows(ctx, c.Stage, infrastructure.OutcomeDropped, c.Dropped)
	r.telemetry.RecordRows(ctx, c.Stage, infrastructure.OutcomeImputed, c.Imputed)
	infrastructure.SetSpanAttributes(ctx, map[string]any{
		"rows.input":   c.Input,
		"rows.output":  c.Output,
		"rows.dropped": c.Dropped,
	})
	r.logger.InfoContext(ctx, "Stage rows",
		slog.String("stage", c.Stage),
		slog.Int("input", c.Input),
		slog.Int("output", c.Output),
		slog.Int("dropped", c.Dropped),
		slog.Int("imputed", c.Imputed))
}

func (r *Runner) load(ctx context.Context, data *run) error {
	raw, err := dataprocessing.LoadBoroughs(ctx, r.paths, r.logger)
	if err != nil {
		return err
	}
	data.raw = raw
	total := 0
	for _, t := range raw {
		total += t.Len()
	}
	r.count(ctx, data, exporter.StageCount{Stage: StageLoad, Input: total, Output: total})
	return nil
}

func (r *Runner) normalize(ctx context.Context, data *run) error {
	cols := dataprocessing.DefaultColumnSets()
	if err := cols.Validate(); err != nil {
		return err
	}
	data.normalized = make(map[domain.Borough]*dataprocessing.Table, len(data.raw))
	total, missing := 0, 0
	for b, raw := range data.raw {
		t, stats := dataprocessing.Normalize(raw, cols)
		data.normalized[b] = t
		total += t.Len()
		missing += stats.TotalMissing()
		if len(stats.AbsentColumns) > 0 {
			r.logger.WarnContext(ctx, "Borough file lacks columns",
				slog.String("borough", b.String()),
				slog.Any("columns", stats.AbsentColumns))
		}
	}
	r.count(ctx, data, exporter.StageCount{
		Stage: StageNormalize, Input: total, Output: total,
		Note: fmt.Sprintf("%d missing cells", missing),
	})
	data.raw = nil
	return nil
}

func (r *Runner) merge(ctx context.Context, data *run) error {
	merged, err := dataprocessing.Merge(data.normalized)
	if err != nil {
		return err
	}
	data.merged = merged
	data.normalized = nil
	if merged.Conflicts > 0 {
		r.logger.WarnContext(ctx, "Borough code disagrees with source file",
			slog.Int("rows", merged.Conflicts))
	}
	r.count(ctx, data, exporter.StageCount{Stage: StageMerge, Input: merged.Len(), Output: merged.Len()})
	return nil
}

func (r *Runner) filter(ctx context.Context, data *run) error {
	filtered, stats := dataprocessing.FilterResidential(data.merged, dataprocessing.FilterConfig{
		ExcludedClassCodes:    r.cfg.Analysis.ExcludedClassCodes,
		ResidentialClassChars: r.cfg.Analysis.ResidentialClassChars,
	})
	data.filtered = filtered
	data.merged = nil
	r.count(ctx, data, exporter.StageCount{
		Stage: StageFilter, Input: stats.Input, Output: stats.Kept, Dropped: stats.Dropped(),
		Note: fmt.Sprintf("apartment %d, multi-address %d, excluded class %d, non-residential %d, unknown borough %d",
			stats.ApartmentNumber, stats.MultiAddress, stats.ExcludedClass, stats.NonResidential, stats.UnknownBorough),
	})
	return nil
}

func (r *Runner) features(ctx context.Context, data *run) error {
	ft, stats, err := dataprocessing.BuildFeatures(data.filtered, dataprocessing.FeatureConfig{
		ReferenceYear: r.cfg.Analysis.ReferenceYear,
		MinArea:       r.cfg.Analysis.MinArea,
	})
	if err != nil {
		return err
	}
	data.filtered = nil
	data.result.Features = ft
	data.result.Report.Scaling = ft.Scaling
	r.count(ctx, data, exporter.StageCount{
		Stage: StageFeatures, Input: stats.Input, Output: stats.Kept, Dropped: stats.Dropped(),
		Note: fmt.Sprintf("area below floor %d, bad year built %d, %d missing prices",
			stats.BelowAreaFloor, stats.BadYearBuilt, ft.MissingPrice()),
	})
	return nil
}

func (r *Runner) eda(ctx context.Context, data *run) error {
	data.result.Report.EDA = dataprocessing.Describe(data.result.Features)
	infrastructure.AddSpanEvent(ctx, "eda.described", map[string]any{
		"boroughs": len(data.result.Report.EDA.Boroughs),
	})
	return nil
}

// sampler builds the sampler settings for a stage fitting the given number
// of models
func (r *Runner) sampler(name string, models int) bayes.Config {
	scfg := SamplerConfig(r.cfg)
	scfg.Logger = r.logger
	if r.progress != nil {
		scfg.Progress = r.progress(name, models*scfg.Chains*scfg.Iterations)
	}
	return scfg
}

func (r *Runner) impute(ctx context.Context, data *run) error {
	ft := data.result.Features
	it, stats, err := modeling.Impute(ctx, ft, modeling.ImputeConfig{
		Sampler: r.sampler(modeling.ImputationFormula.Name, 1),
		Logger:  r.logger,
	})
	if err != nil {
		return err
	}
	if it.Fit != nil {
		r.telemetry.RecordDraws(ctx, it.Fit.Name, it.Fit.NumDraws())
	}
	data.result.Imputed = it
	data.result.Report.Imputation = stats
	r.count(ctx, data, exporter.StageCount{
		Stage: StageImpute, Input: ft.Len(), Output: it.Len(), Imputed: stats.Imputed,
	})
	return nil
}

func (r *Runner) fit(ctx context.Context, data *run) error {
	models, err := modeling.FitModels(ctx, data.result.Imputed, modeling.FitConfig{
		Sampler: r.sampler("models", 2),
		Logger:  r.logger,
	})
	if err != nil {
		return err
	}
	for _, f := range []*bayes.Fit{models.A, models.B} {
		r.telemetry.RecordDraws(ctx, f.Name, f.NumDraws())
	}
	data.result.Models = models
	data.result.Report.ModelA = models.A
	data.result.Report.ModelB = models.B
	return nil
}

func (r *Runner) ppc(ctx context.Context, data *run) error {
	m := data.result.Models
	res, err := evaluation.PosteriorPredictiveCheck(ctx, m.B, m.DesignB, m.Outcome, evaluation.PPCConfig{
		Draws:      r.cfg.Analysis.PPCDraws,
		GridPoints: r.cfg.Analysis.DensityPoints,
		Seed:       r.cfg.Sampler.Seed,
	})
	if err != nil {
		return err
	}
	data.result.Report.PPC = res
	return nil
}

func (r *Runner) counterfactual(ctx context.Context, data *run) error {
	from, err := domain.ParseBoroughName(r.cfg.Analysis.CounterfactualFrom)
	if err != nil {
		return err
	}
	to, err := domain.ParseBoroughName(r.cfg.Analysis.CounterfactualTo)
	if err != nil {
		return err
	}
	res, err := evaluation.Counterfactual(ctx, data.result.Models.B, data.result.Imputed, evaluation.CounterfactualConfig{
		Formula:   modeling.FormulaB,
		From:      from,
		To:        to,
		Threshold: r.cfg.Analysis.LogPriceThreshold,
		Seed:      r.cfg.Sampler.Seed,
		Logger:    r.logger,
	})
	if err != nil {
		return err
	}
	data.result.Report.Counterfactual = res
	r.count(ctx, data, exporter.StageCount{
		Stage: StageCounterfactual, Input: data.result.Imputed.Len(), Output: len(res.Records),
		Note: fmt.Sprintf("%s sales with price_log >= %g", from, res.Threshold),
	})
	return nil
}

func (r *Runner) export(ctx context.Context, data *run) error {
	if err := r.paths.EnsureDirectories(); err != nil {
		return err
	}
	data.result.Report.Duration = time.Since(data.result.State.StartTime)
	files, err := exporter.New(r.paths, r.logger).WriteAll(ctx, data.result.Report)
	data.result.Files = files
	return err
}

// writeMetrics dumps the run metrics next to the reports
func (r *Runner) writeMetrics(ctx context.Context) {
	name := r.cfg.Telemetry.MetricsFile
	if name == "" {
		return
	}
	path := name
	if !filepath.IsAbs(path) {
		path = r.paths.GetReportPath(name)
	}
	if err := r.telemetry.WriteMetrics(path); err != nil {
		infrastructure.WithError(r.logger, err).WarnContext(ctx, "Failed to write metrics")
		return
	}
	if r.telemetry.MeterProvider != nil {
		r.logger.DebugContext(ctx, "Metrics written", slog.String("path", path))
	}
}
