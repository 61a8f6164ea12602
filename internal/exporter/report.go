package exporter

import (
	"time"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/bayes"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/dataprocessing"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/evaluation"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/modeling"
)

// StageCount records how many rows entered and left a pipeline stage
type StageCount struct {
	Stage   string `json:"stage"`
	Input   int    `json:"input"`
	Output  int    `json:"output"`
	Dropped int    `json:"dropped"`
	Imputed int    `json:"imputed"`
	Note    string `json:"note,omitempty"`
}

// Report is everything a run produced. Sections that were not computed are
// nil and are skipped by every writer.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Config   *config.Config

	Stages         []StageCount
	Scaling        dataprocessing.Scaling
	EDA            *dataprocessing.EDAReport
	Imputation     modeling.ImputeStats
	ModelA         *bayes.Fit
	ModelB         *bayes.Fit
	PPC            *evaluation.PPCResult
	Counterfactual *evaluation.CounterfactualResult
}

// Fits returns the fitted models present in the report
func (r *Report) Fits() []*bayes.Fit {
	var fits []*bayes.Fit
	for _, f := range []*bayes.Fit{r.ModelA, r.ModelB} {
		if f != nil {
			fits = append(fits, f)
		}
	}
	return fits
}

// Warnings lists sampler diagnostics that flag poorly mixed coefficients
func (r *Report) Warnings() []string {
	var out []string
	for _, f := range r.Fits() {
		for _, s := range f.Flagged() {
			out = append(out, f.Name+": "+s.Name+" rhat="+formatFloat(s.Rhat)+" ess="+formatFloat(s.ESS))
		}
	}
	return out
}
