package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// PlainFormatter renders the classic fixed-width report with no styling.
//
//	RAM Capacity (GB)      Actual: 64.0       Target: 20.0       320 % [✓]
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	w.WriteString(Title(r))
	w.WriteString("\n")

	for _, row := range Rows(r) {
		line := fmt.Sprintf("%-22s Actual: %-10s Target: %-10s %-5s %s",
			row.Label, row.ActualText, row.RequiredText, row.Percent, row.Mark)
		w.WriteString(strings.TrimRight(line, " "))
		w.WriteString("\n")
	}

	for _, adv := range r.Advisories {
		w.WriteString(adv.Message)
		w.WriteString("\n")
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
