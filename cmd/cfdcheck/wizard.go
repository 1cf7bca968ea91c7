package main

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/config"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// wizardValues holds the form fields as strings for huh.
type wizardValues struct {
	name           string
	cells          string
	ramGB          string
	ramChannels    string
	ramSpeed       string
	processors     string
	cores          string
	clockGHz       string
	l3MB           string
	l3PerProcessor bool
	gpuVRAMGB      string
	writeSpeed     string
}

func newWizardValues(p types.HardwareProfile) *wizardValues {
	hw := config.HardwareFromProfile(p)
	return &wizardValues{
		cells:          hw.Cells,
		ramGB:          formatFloat(hw.RAMCapacityGB),
		ramChannels:    strconv.Itoa(hw.RAMChannels),
		ramSpeed:       formatFloat(hw.RAMSpeedMTs),
		processors:     strconv.Itoa(max(hw.Processors, 1)),
		cores:          strconv.Itoa(hw.Cores),
		clockGHz:       formatFloat(hw.ClockGHz),
		l3MB:           formatFloat(hw.L3CacheMB),
		l3PerProcessor: hw.L3PerProcessor,
		gpuVRAMGB:      formatFloat(hw.GPUVRAMGB),
		writeSpeed:     formatFloat(hw.StorageWriteGBs),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// hardware converts the answers to a config section.
func (v *wizardValues) hardware() (config.HardwareConfig, error) {
	var errs []error
	num := func(field, s string) float64 {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", field, s))
		}
		return f
	}
	integer := func(field, s string) int {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a whole number", field, s))
		}
		return n
	}

	if _, err := types.ParseCells(v.cells); err != nil {
		errs = append(errs, fmt.Errorf("cells: %w", err))
	}

	hw := config.HardwareConfig{
		Cells:           strings.TrimSpace(v.cells),
		RAMCapacityGB:   num("ram_capacity_gb", v.ramGB),
		RAMChannels:     integer("ram_channels", v.ramChannels),
		RAMSpeedMTs:     num("ram_speed_mts", v.ramSpeed),
		Processors:      integer("processors", v.processors),
		Cores:           integer("cores", v.cores),
		ClockGHz:        num("clock_ghz", v.clockGHz),
		L3CacheMB:       num("l3_cache_mb", v.l3MB),
		L3PerProcessor:  v.l3PerProcessor,
		GPUVRAMGB:       num("gpu_vram_gb", v.gpuVRAMGB),
		StorageWriteGBs: num("storage_write_gbs", v.writeSpeed),
	}
	return hw, errors.Join(errs...)
}

var profileNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func validateProfileName(s string) error {
	if s == "" || profileNamePattern.MatchString(s) {
		return nil
	}
	return errors.New("use lower-case letters, digits, '-' and '_'")
}

func validateCells(s string) error {
	n, err := types.ParseCells(s)
	if err != nil {
		return errors.New("enter a count like 10000000, 10M or 2.5M")
	}
	if n <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a whole number above zero")
	}
	return nil
}

func validateNonNegative(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return errors.New("enter a number, zero or above")
	}
	return nil
}

// wizardTheme follows the pretty formatter's palette.
func wizardTheme() *huh.Theme {
	t := huh.ThemeBase()

	primary := lipgloss.Color("#7D56F4")
	accent := lipgloss.Color("#00D9FF")
	muted := lipgloss.Color("#666666")
	danger := lipgloss.Color("#DC3545")

	t.Group.Title = lipgloss.NewStyle().Foreground(primary).Bold(true).MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().Foreground(muted).MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(primary)
	t.Focused.Title = lipgloss.NewStyle().Foreground(accent).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(muted)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(danger).SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(danger)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(primary)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(muted)

	return t
}

func newWizardForm(v *wizardValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Profile name").
				Description("Leave empty to replace the default hardware section").
				Placeholder("e.g. workstation").
				Value(&v.name).
				Validate(validateProfileName),
			huh.NewInput().
				Title("Mesh cells").
				Description("Cell count of the simulation mesh").
				Placeholder("10M").
				Value(&v.cells).
				Validate(validateCells),
		).Title("Step 1: Simulation").
			Description("Name the profile and size the mesh"),

		huh.NewGroup(
			huh.NewInput().
				Title("Processors").
				Description("Physical processor packages (sockets)").
				Value(&v.processors).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Cores per processor").
				Value(&v.cores).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Clock speed (GHz)").
				Value(&v.clockGHz).
				Validate(validateNonNegative),
			huh.NewInput().
				Title("L3 cache (MB)").
				Value(&v.l3MB).
				Validate(validateNonNegative),
			huh.NewConfirm().
				Title("Is the L3 figure per processor?").
				Value(&v.l3PerProcessor),
		).Title("Step 2: CPU"),

		huh.NewGroup(
			huh.NewInput().
				Title("RAM capacity (GB)").
				Value(&v.ramGB).
				Validate(validateNonNegative),
			huh.NewInput().
				Title("RAM channels").
				Description("Populated memory channels across all processors").
				Value(&v.ramChannels).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("RAM speed (MT/s)").
				Value(&v.ramSpeed).
				Validate(validateNonNegative),
		).Title("Step 3: Memory"),

		huh.NewGroup(
			huh.NewInput().
				Title("GPU VRAM (GB)").
				Description("0 when the machine has no GPU").
				Value(&v.gpuVRAMGB).
				Validate(validateNonNegative),
			huh.NewInput().
				Title("Storage write speed (GB/s)").
				Description("0 skips the snapshot write estimate").
				Value(&v.writeSpeed).
				Validate(validateNonNegative),
		).Title("Step 4: GPU and storage"),
	).WithTheme(wizardTheme())
}
