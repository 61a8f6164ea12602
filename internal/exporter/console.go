package exporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))
)

// consoleColumns limits the coefficient table printed to the terminal
var consoleColumns = []string{"term", "mean", "se", "q2.5", "q97.5", "rhat", "ess"}

// RenderConsole prints a short styled summary of the run to w
func RenderConsole(w io.Writer, r *Report) error {
	t := &textWriter{w: w}

	t.printf("%s\n", titleStyle.Render("NYC property sales · run "+r.RunID))

	if len(r.Stages) > 0 {
		t.printf("\n%s\n", headerStyle.Render("Rows per stage"))
		t.styledTable(StageTable(r.Stages))
	}

	if r.EDA != nil && r.ModelA == nil {
		t.printf("\n%s\n", headerStyle.Render("Boroughs"))
		t.styledTable(EDATable(r.EDA))
	}

	for _, f := range r.Fits() {
		t.printf("\n%s %s\n", headerStyle.Render("Model "+f.Name),
			subtleStyle.Render(fmt.Sprintf("(%d obs, %d draws)", f.Observations, f.NumDraws())))
		t.styledTable(selectColumns(ModelTable(f), consoleColumns))
	}

	for _, warning := range r.Warnings() {
		t.printf("%s\n", warningStyle.Render("! "+warning))
	}

	if r.PPC != nil {
		t.printf("\n%s\n", headerStyle.Render("Posterior predictive p-values"))
		parts := make([]string, len(r.PPC.Stats))
		for i, s := range r.PPC.Stats {
			parts[i] = s.Name + "=" + formatFloat(s.PValue)
		}
		t.printf("%s\n", strings.Join(parts, "  "))
	}

	if c := r.Counterfactual; c != nil {
		t.printf("\n%s\n", headerStyle.Render(fmt.Sprintf("Counterfactual %s -> %s", c.From, c.To)))
		if c.Summary.N == 0 {
			t.printf("%s\n", subtleStyle.Render("no sales above the threshold"))
		} else {
			t.printf("%d sales, mean difference %s [%s, %s], expected %s\n",
				c.Summary.N, formatFloat(c.Summary.Mean),
				formatFloat(c.Summary.Q025), formatFloat(c.Summary.Q975),
				formatFloat(c.MeanShift))
		}
	}

	return t.err
}

func (t *textWriter) styledTable(tbl Table) {
	if t.err != nil {
		return
	}
	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	header := make([]string, len(tbl.Headers))
	for i, h := range tbl.Headers {
		header[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, rec := range tbl.Records() {
		fmt.Fprintln(tw, strings.Join(rec, "\t"))
	}
	t.err = tw.Flush()
}

// selectColumns keeps the named columns of t in the given order
func selectColumns(t Table, names []string) Table {
	idx := make([]int, 0, len(names))
	out := Table{Name: t.Name}
	for _, name := range names {
		for i, h := range t.Headers {
			if h == name {
				idx = append(idx, i)
				out.Headers = append(out.Headers, h)
			}
		}
	}
	for _, row := range t.Rows {
		sel := make([]any, len(idx))
		for j, i := range idx {
			sel[j] = row[i]
		}
		out.Rows = append(out.Rows, sel)
	}
	return out
}
