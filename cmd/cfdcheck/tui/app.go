package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/output"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// gpuPresets are the VRAM sizes the GPU key cycles through, in GB.
var gpuPresets = []float64{0, 8, 16, 24, 48, 80}

// Limits for the what-if adjustments.
const (
	minCells = 1_000
	maxCells = 100_000_000_000
	minRAMGB = 1
)

// Options configures the explorer.
type Options struct {
	// Profile is the starting hardware profile.
	Profile types.HardwareProfile
}

// Model is the Bubble Tea model of the explorer. Every adjustment
// re-evaluates the current profile.
type Model struct {
	base    types.HardwareProfile
	profile types.HardwareProfile
	report  *types.Report
	err     error

	keys keyMap
	help help.Model
	logs logViewer

	width  int
	height int
}

// NewModel creates the explorer model and evaluates the starting profile.
func NewModel(opts Options) Model {
	m := Model{
		base:    opts.Profile,
		profile: opts.Profile,
		keys:    defaultKeyMap(),
		help:    help.New(),
		logs: logViewer{
			filter: logging.LevelInfo,
			buffer: logging.Buffer(),
		},
		width: 80,
	}
	m.evaluate()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Profile returns the profile currently shown.
func (m Model) Profile() types.HardwareProfile {
	return m.profile
}

// Report returns the current evaluation, or nil when the profile is invalid.
func (m Model) Report() *types.Report {
	return m.report
}

// Err returns the validation error of the current profile.
func (m Model) Err() error {
	return m.err
}

func (m *Model) evaluate() {
	m.report, m.err = estimate.Evaluate(m.profile)
	log := logging.Get("explore")
	if m.err != nil {
		log.Warn("profile rejected", "error", m.err)
		return
	}
	if c := m.report.Constraining(); c != nil {
		log.Debug("evaluated", "cells", m.profile.Cells, "constraining", c.Resource, "ratio", c.Ratio)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.profile

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		m.logs.open = !m.logs.open
		return m, nil
	case m.logs.open && m.setLogFilter(msg.String()):
		return m, nil

	case key.Matches(msg, m.keys.CellsUp):
		p.Cells = min(p.Cells*2, maxCells)
	case key.Matches(msg, m.keys.CellsDown):
		p.Cells = max(p.Cells/2, minCells)
	case key.Matches(msg, m.keys.CoresUp):
		p.Cores++
	case key.Matches(msg, m.keys.CoresDown):
		p.Cores = max(p.Cores-1, 1)
	case key.Matches(msg, m.keys.RAMUp):
		p.RAMCapacityGB *= 2
	case key.Matches(msg, m.keys.RAMDown):
		p.RAMCapacityGB = max(p.RAMCapacityGB/2, minRAMGB)
	case key.Matches(msg, m.keys.ChannelsUp):
		p.RAMChannels++
	case key.Matches(msg, m.keys.ChannelsDown):
		p.RAMChannels = max(p.RAMChannels-1, 1)
	case key.Matches(msg, m.keys.GPU):
		p.GPUVRAMGB = nextGPUPreset(p.GPUVRAMGB)
	case key.Matches(msg, m.keys.Reset):
		m.profile = m.base
	default:
		return m, nil
	}

	m.evaluate()
	return m, nil
}

// setLogFilter maps the keys 1-4 to a minimum log level.
func (m *Model) setLogFilter(s string) bool {
	levels := map[string]logging.Level{
		"1": logging.LevelDebug,
		"2": logging.LevelInfo,
		"3": logging.LevelWarn,
		"4": logging.LevelError,
	}
	level, ok := levels[s]
	if ok {
		m.logs.filter = level
	}
	return ok
}

// nextGPUPreset returns the first preset larger than current, wrapping to 0.
func nextGPUPreset(current float64) float64 {
	for _, v := range gpuPresets {
		if v > current {
			return v
		}
	}
	return gpuPresets[0]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cfdcheck explorer"))
	b.WriteString("\n")
	b.WriteString(m.renderProfile())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorTextStyle.Render("Invalid profile: " + m.err.Error()))
		b.WriteString("\n")
	} else {
		b.WriteString(output.RenderTable(output.Rows(m.report)))
		b.WriteString("\n")
		for _, adv := range m.report.Advisories {
			b.WriteString(warningTextStyle.Render("! " + adv.Message))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	if logs := m.logs.View(m.width - 4); logs != "" {
		b.WriteString("\n\n")
		b.WriteString(logs)
	}

	return outerBoxStyle.Render(b.String())
}

// renderProfile renders the adjustable fields, marking those that differ
// from the starting profile.
func (m Model) renderProfile() string {
	p, base := m.profile, m.base

	gpu := "none"
	if p.GPUVRAMGB > 0 {
		gpu = fmt.Sprintf("%s GB", output.FormatValue(p.GPUVRAMGB))
	}

	fields := []string{
		mark(types.FormatCells(p.Cells)+" cells", p.Cells != base.Cells),
		mark(fmt.Sprintf("%d×%d cores @ %s GHz", p.ProcessorCount(), p.Cores, output.FormatValue(p.ClockGHz)), p.Cores != base.Cores),
		mark(fmt.Sprintf("%s GB RAM", output.FormatValue(p.RAMCapacityGB)), p.RAMCapacityGB != base.RAMCapacityGB),
		mark(fmt.Sprintf("%d ch @ %s MT/s", p.RAMChannels, output.FormatValue(p.RAMSpeedMTs)), p.RAMChannels != base.RAMChannels),
		mark("GPU "+gpu, p.GPUVRAMGB != base.GPUVRAMGB),
	}
	return strings.Join(fields, mutedTextStyle.Render(" • "))
}

func mark(s string, changed bool) string {
	if changed {
		return changedStyle.Render(s + "*")
	}
	return mutedTextStyle.Render(s)
}

func (m Model) renderSummary() string {
	s := output.Summarize(m.report)
	if s.Insufficient == 0 {
		return successTextStyle.Render(fmt.Sprintf("All %d resources sufficient", s.Total))
	}
	return errorTextStyle.Render(fmt.Sprintf("%d of %d resources insufficient, most constraining: %s",
		s.Insufficient, s.Total, s.Constraining.Label()))
}

// Run starts the explorer and blocks until the user quits.
func Run(opts Options) error {
	model := NewModel(opts)

	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
