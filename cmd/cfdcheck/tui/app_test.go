package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

func testProfile() types.HardwareProfile {
	return types.HardwareProfile{
		Cells:         10_000_000,
		RAMCapacityGB: 64,
		RAMChannels:   4,
		RAMSpeedMTs:   2700,
		Processors:    1,
		Cores:         20,
		ClockGHz:      2.0,
		L3CacheMB:     64,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("Update returned %T, want Model", next)
		}
	}
	return m
}

func TestNewModel_Evaluates(t *testing.T) {
	m := NewModel(Options{Profile: testProfile()})

	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}
	r := m.Report()
	if r == nil || len(r.Results) != 7 {
		t.Fatalf("expected 7 results, got %+v", r)
	}
	if r.Results[0].Resource != types.ResourceGPUVRAM {
		t.Errorf("expected GPU first, got %s", r.Results[0].Resource)
	}
}

func TestModel_Adjustments(t *testing.T) {
	tests := []struct {
		name  string
		keys  []tea.Msg
		check func(p types.HardwareProfile) bool
	}{
		{"cells up", []tea.Msg{tea.KeyMsg{Type: tea.KeyUp}}, func(p types.HardwareProfile) bool { return p.Cells == 20_000_000 }},
		{"cells down", []tea.Msg{runes("j")}, func(p types.HardwareProfile) bool { return p.Cells == 5_000_000 }},
		{"cores up", []tea.Msg{tea.KeyMsg{Type: tea.KeyRight}}, func(p types.HardwareProfile) bool { return p.Cores == 21 }},
		{"cores down", []tea.Msg{runes("h"), runes("h")}, func(p types.HardwareProfile) bool { return p.Cores == 18 }},
		{"ram up", []tea.Msg{runes("]")}, func(p types.HardwareProfile) bool { return p.RAMCapacityGB == 128 }},
		{"ram down", []tea.Msg{runes("[")}, func(p types.HardwareProfile) bool { return p.RAMCapacityGB == 32 }},
		{"channels", []tea.Msg{runes("}"), runes("}"), runes("{")}, func(p types.HardwareProfile) bool { return p.RAMChannels == 5 }},
		{"gpu", []tea.Msg{runes("g"), runes("g")}, func(p types.HardwareProfile) bool { return p.GPUVRAMGB == 16 }},
		{"reset", []tea.Msg{tea.KeyMsg{Type: tea.KeyUp}, runes("g"), runes("r")}, func(p types.HardwareProfile) bool { return p == testProfile() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, NewModel(Options{Profile: testProfile()}), tt.keys...)
			if !tt.check(m.Profile()) {
				t.Errorf("unexpected profile %+v", m.Profile())
			}
			if m.Report() == nil {
				t.Error("expected a report after adjusting")
			}
		})
	}
}

func TestModel_Floors(t *testing.T) {
	p := testProfile()
	p.Cells = 1_500
	p.Cores = 1
	p.RAMCapacityGB = 1
	p.RAMChannels = 1

	m := press(t, NewModel(Options{Profile: p}), runes("j"), runes("h"), runes("["), runes("{"))
	got := m.Profile()

	if got.Cells != minCells {
		t.Errorf("cells = %d, want %d", got.Cells, minCells)
	}
	if got.Cores != 1 || got.RAMChannels != 1 || got.RAMCapacityGB != minRAMGB {
		t.Errorf("floors not applied: %+v", got)
	}
}

func TestModel_ReevaluatesRanking(t *testing.T) {
	m := NewModel(Options{Profile: testProfile()})
	before := m.Report().Results[1].Ratio

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	var cores float64
	for _, r := range m.Report().Results {
		if r.Resource == types.ResourceCPUCores {
			cores = r.Ratio
		}
	}
	if cores >= before {
		t.Errorf("doubling cells should lower the core ratio: before %v, after %v", before, cores)
	}
}

func TestModel_InvalidProfileRecovers(t *testing.T) {
	p := testProfile()
	p.Cores = 0

	m := NewModel(Options{Profile: p})
	if m.Err() == nil {
		t.Fatal("expected an error for zero cores")
	}
	if !strings.Contains(m.View(), "Invalid profile") {
		t.Error("view should show the validation error")
	}

	m = press(t, m, runes("l"))
	if m.Err() != nil {
		t.Fatalf("expected the profile to recover, got %v", m.Err())
	}
}

func TestNextGPUPreset(t *testing.T) {
	tests := []struct {
		current float64
		want    float64
	}{
		{0, 8},
		{8, 16},
		{12, 16},
		{48, 80},
		{80, 0},
		{96, 0},
	}
	for _, tt := range tests {
		if got := nextGPUPreset(tt.current); got != tt.want {
			t.Errorf("nextGPUPreset(%v) = %v, want %v", tt.current, got, tt.want)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(Options{Profile: testProfile()})
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_View(t *testing.T) {
	m := press(t, NewModel(Options{Profile: testProfile()}), tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()

	for _, want := range []string{"cfdcheck explorer", types.ResourceGPUVRAM.Label(), types.ResourceRAMCapacity.Label(), "insufficient"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if !strings.Contains(m.View(), "*") {
		t.Error("changed fields should be marked")
	}
}

func TestModel_LogPane(t *testing.T) {
	m := NewModel(Options{Profile: testProfile()})
	if strings.Contains(m.View(), "Logs [") {
		t.Fatal("log pane should start closed")
	}

	m = press(t, m, runes("L"))
	if !strings.Contains(m.View(), "Logs [info]") {
		t.Error("expected open log pane with info filter")
	}

	m = press(t, m, runes("3"))
	if m.logs.filter != logging.LevelWarn {
		t.Errorf("filter = %s, want warn", m.logs.filter)
	}
	if m.Profile() != testProfile() {
		t.Error("filter keys must not change the profile")
	}
}
