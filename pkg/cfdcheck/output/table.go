package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

var tableHeader = []string{"RESOURCE", "ACTUAL", "TARGET", "RATIO", "STATUS"}

func status(sufficient bool) string {
	if sufficient {
		return "ok"
	}
	return "insufficient"
}

// TSVFormatter formats the ranking as tab-separated values with raw numbers.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	w.WriteString(strings.Join(tableHeader, "\t"))
	w.WriteString("\n")
	for _, row := range Rows(r) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Resource,
			strconv.FormatFloat(row.Actual, 'g', -1, 64),
			strconv.FormatFloat(row.Required, 'g', -1, 64),
			strconv.FormatFloat(row.Ratio, 'g', -1, 64),
			status(row.Sufficient))
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter formats the ranking as RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(tableHeader); err != nil {
		return err
	}
	for _, row := range Rows(r) {
		record := []string{
			string(row.Resource),
			strconv.FormatFloat(row.Actual, 'g', -1, 64),
			strconv.FormatFloat(row.Required, 'g', -1, 64),
			strconv.FormatFloat(row.Ratio, 'g', -1, 64),
			status(row.Sufficient),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter formats the report as a GitHub-flavored Markdown table
// followed by the advisories as a bullet list.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	w.WriteString("| Resource | Actual | Target | Ratio | |\n")
	w.WriteString("|---|---:|---:|---:|:-:|\n")
	for _, row := range Rows(r) {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			escapeMarkdownPipe(row.Label), row.ActualText, row.RequiredText, row.Percent, row.Mark)
	}

	if len(r.Advisories) > 0 {
		w.WriteString("\n")
		for _, adv := range r.Advisories {
			fmt.Fprintf(w, "- %s\n", adv.Message)
		}
	}
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
