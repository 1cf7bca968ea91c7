package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// PrettyFormatter renders the report with colors and boxes using lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")
	w.WriteString(RenderTable(Rows(r)))

	if len(r.Advisories) > 0 {
		w.WriteString("\n")
		w.WriteString(f.advisories(r.Advisories))
	}

	w.WriteString(f.footer(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) header(r *types.Report) string {
	p := r.Profile
	lines := []string{
		TitleStyle.Render("CFD hardware bottlenecks"),
		fmt.Sprintf("%s %s  %s %s  %s %s",
			LabelStyle.Render("Mesh:"), ValueStyle.Render(types.FormatCells(p.Cells)+" cells"),
			LabelStyle.Render("Cores:"), ValueStyle.Render(fmt.Sprintf("%d x %d", p.ProcessorCount(), p.Cores)),
			LabelStyle.Render("RAM:"), ValueStyle.Render(fmt.Sprintf("%s GB, %d ch @ %s MT/s",
				FormatValue(p.RAMCapacityGB), p.RAMChannels, FormatValue(p.RAMSpeedMTs)))),
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// RenderTable renders rows as a styled, column-aligned table. The first row
// is highlighted as the constraining resource.
func RenderTable(rows []Row) string {
	if len(rows) == 0 {
		return MutedStyle.Render("  No resources scored\n")
	}

	labelW, actualW, targetW := len("RESOURCE"), len("ACTUAL"), len("TARGET")
	for _, row := range rows {
		labelW = max(labelW, lipgloss.Width(row.Label))
		actualW = max(actualW, lipgloss.Width(row.ActualText))
		targetW = max(targetW, lipgloss.Width(row.RequiredText))
	}

	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-*s  %*s  %*s  %6s  %s",
		labelW, "RESOURCE", actualW, "ACTUAL", targetW, "TARGET", "RATIO", "")))
	sb.WriteString("\n")

	for i, row := range rows {
		label := ValueStyle.Render(padRight(row.Label, labelW))
		if i == 0 && !row.Sufficient {
			label = ConstrainingStyle.Render(padRight(row.Label, labelW))
		}
		verdict := VerdictStyle(row.Sufficient)
		fmt.Fprintf(&sb, "  %s  %s  %s  %s  %s\n",
			label,
			ValueStyle.Render(padLeft(row.ActualText, actualW)),
			MutedStyle.Render(padLeft(row.RequiredText, targetW)),
			verdict.Render(padLeft(row.Percent, 6)),
			verdict.Render(row.Mark),
		)
	}
	return sb.String()
}

func (f *PrettyFormatter) advisories(advs []types.Advisory) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Advisories:"))
	sb.WriteString("\n")
	for _, adv := range advs {
		style := WarningStyle
		if adv.Kind == types.AdvisoryNoGPU {
			style = MutedStyle
		}
		sb.WriteString(style.Render("  " + adv.Message))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) footer(r *types.Report) string {
	s := Summarize(r)
	var parts []string

	if s.Insufficient == 0 {
		parts = append(parts, SuccessStyle.Render("All resources sufficient"))
	} else {
		parts = append(parts,
			LabelStyle.Render("Constraining:")+" "+ConstrainingStyle.Render(s.Constraining.Label()),
			LabelStyle.Render("Insufficient:")+" "+ValueStyle.Render(fmt.Sprintf("%d/%d", s.Insufficient, s.Total)),
		)
	}
	parts = append(parts, MutedStyle.Render("Use -o plain for unformatted output"))

	return FooterBox.Render(strings.Join(parts, "  "))
}

func padLeft(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
