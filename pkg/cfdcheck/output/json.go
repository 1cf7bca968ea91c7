package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// document is the structured form shared by the json and yaml formatters.
type document struct {
	Summary    Summary               `json:"summary" yaml:"summary"`
	Profile    types.HardwareProfile `json:"profile" yaml:"profile"`
	Results    []Row                 `json:"results" yaml:"results"`
	Advisories []types.Advisory      `json:"advisories" yaml:"advisories"`
}

func buildDocument(r *types.Report) document {
	advisories := r.Advisories
	if advisories == nil {
		advisories = []types.Advisory{}
	}
	return document{
		Summary:    Summarize(r),
		Profile:    r.Profile,
		Results:    Rows(r),
		Advisories: advisories,
	}
}

// JSONFormatter formats the report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per ranked resource.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	for _, row := range Rows(r) {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
