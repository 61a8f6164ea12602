package exporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// textWriter keeps the first write error so sections can be printed without
// checking every line
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) table(tbl Table) {
	if t.err != nil {
		return
	}
	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(tbl.Headers, "\t")+"\t")
	for _, rec := range tbl.Records() {
		fmt.Fprintln(tw, strings.Join(rec, "\t")+"\t")
	}
	t.err = tw.Flush()
}

func (t *textWriter) section(title string) {
	t.printf("\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

// WriteSummary writes the plain-text run summary
func WriteSummary(w io.Writer, r *Report) error {
	t := &textWriter{w: w}

	t.printf("NYC property sales analysis\n")
	t.printf("run:      %s\n", r.RunID)
	if !r.Started.IsZero() {
		t.printf("started:  %s\n", r.Started.Format(time.RFC3339))
	}
	if r.Duration > 0 {
		t.printf("duration: %s\n", r.Duration.Round(time.Millisecond))
	}

	if c := r.Config; c != nil {
		t.section("Settings")
		t.printf("reference year       %d\n", c.Analysis.ReferenceYear)
		t.printf("log price threshold  %s\n", formatFloat(c.Analysis.LogPriceThreshold))
		t.printf("excluded classes     %s\n", strings.Join(c.Analysis.ExcludedClassCodes, " "))
		t.printf("minimum area         %s\n", formatFloat(c.Analysis.MinArea))
		t.printf("sampler              %d chains, %d iterations, %d warmup, seed %d\n",
			c.Sampler.Chains, c.Sampler.Iterations, c.Sampler.Warmup, c.Sampler.Seed)
		t.printf("priors               coef N(%s, %s), intercept N(%s, %s), sigma Exp(%s), autoscale %t\n",
			formatFloat(c.Priors.CoefficientMean), formatFloat(c.Priors.CoefficientScale),
			formatFloat(c.Priors.InterceptMean), formatFloat(c.Priors.InterceptScale),
			formatFloat(c.Priors.AuxRate), c.Priors.Autoscale)
	}

	if len(r.Stages) > 0 {
		t.section("Rows per stage")
		t.table(StageTable(r.Stages))
	}

	if r.Scaling.N > 0 {
		t.section("Feature scaling")
		t.printf("land area   mean %s sd %s\n", formatFloat(r.Scaling.LandMean), formatFloat(r.Scaling.LandSD))
		t.printf("gross area  mean %s sd %s\n", formatFloat(r.Scaling.GrossMean), formatFloat(r.Scaling.GrossSD))
		t.printf("total units mean %s\n", formatFloat(r.Scaling.UnitsMean))
	}

	if r.EDA != nil {
		t.section("Exploratory summary")
		t.table(EDATable(r.EDA))
		t.printf("\n")
		t.table(CorrelationTable(r.EDA))
	}

	if r.Imputation.Observed > 0 {
		t.section("Imputation")
		t.printf("observed prices %d, imputed %d\n", r.Imputation.Observed, r.Imputation.Imputed)
	}

	for _, f := range r.Fits() {
		t.section("Model " + f.Name)
		t.printf("%d observations, %d chains x %d draws, sigma acceptance %s\n",
			f.Observations, f.Chains, f.Draws, joinFloats(f.AcceptanceRates()))
		t.table(ModelTable(f))
	}

	if warnings := r.Warnings(); len(warnings) > 0 {
		t.section("Sampler warnings")
		for _, w := range warnings {
			t.printf("- %s\n", w)
		}
	}

	if r.PPC != nil {
		t.section("Posterior predictive check")
		t.printf("%d replicated datasets on a %d point grid\n", len(r.PPC.Replicates), len(r.PPC.Grid))
		t.table(PPCStatsTable(r.PPC))
	}

	if c := r.Counterfactual; c != nil {
		t.section("Counterfactual")
		t.printf("%s sales with price_log >= %s predicted as %s\n", c.From, formatFloat(c.Threshold), c.To)
		t.printf("records          %d\n", c.Summary.N)
		if c.Summary.N > 0 {
			t.printf("mean difference  %s (sd %s)\n", formatFloat(c.Summary.Mean), formatFloat(c.Summary.SD))
			t.printf("median           %s\n", formatFloat(c.Summary.Median))
			t.printf("95%% interval     [%s, %s]\n", formatFloat(c.Summary.Q025), formatFloat(c.Summary.Q975))
			t.printf("expected shift   %s\n", formatFloat(c.MeanShift))
		}
	}

	return t.err
}

func joinFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatFloat(x)
	}
	return strings.Join(parts, " ")
}
