// Package exporter writes the reports of a sales analysis run.
//
// A Report collects the outputs of every stage. Exporter.WriteAll turns it
// into a plain-text summary, one CSV file per table and an Excel workbook with
// a density chart for the posterior predictive check and a histogram of the
// counterfactual differences. RenderConsole prints a short styled version to
// the terminal.
//
// CSVWriter is the low-level writer: relative paths land in the run
// directory, and tables above a thousand rows are streamed.
package exporter
