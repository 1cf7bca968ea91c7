package output

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// TemplateFormatter formats the report with a user-supplied text/template.
//
// The template receives the report plus Rows and Summary fields, and can
// call value, percent, mark, cells and bytes.
type TemplateFormatter struct {
	templateStr string
	template    *template.Template
	mu          sync.Mutex
}

type templateData struct {
	*types.Report
	Rows    []Row
	Summary Summary
}

// NewTemplateFormatter creates a template formatter.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	return &TemplateFormatter{templateStr: templateStr}
}

// SetTemplate replaces the template string.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// Usage: {{value .Actual}}
		"value": FormatValue,
		// Usage: {{percent .Ratio}}
		"percent": FormatPercent,
		// Usage: {{mark .Sufficient}}
		"mark": Mark,
		// Usage: {{cells .Profile.Cells}}
		"cells": types.FormatCells,
		// Usage: {{bytes 1500000000}}
		"bytes": func(n float64) string {
			if n < 0 {
				return "-" + humanize.Bytes(uint64(-n))
			}
			return humanize.Bytes(uint64(n))
		},
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.templateStr)
		if err != nil {
			return err
		}
		f.template = tmpl
	}

	return f.template.Execute(w, templateData{
		Report:  r,
		Rows:    Rows(r),
		Summary: Summarize(r),
	})
}

const defaultTemplate = `{{range .Rows}}{{.Resource}}	{{percent .Ratio}}	{{mark .Sufficient}}
{{end}}`

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(defaultTemplate)
	})
}

// Ensure TemplateFormatter implements Formatter.
var _ Formatter = (*TemplateFormatter)(nil)
