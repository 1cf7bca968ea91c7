package main

import (
	"strings"
	"testing"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

func TestWizardValues_RoundTrip(t *testing.T) {
	p := types.HardwareProfile{
		Cells:           2_500_000,
		RAMCapacityGB:   128,
		RAMChannels:     8,
		RAMSpeedMTs:     3200,
		Processors:      2,
		Cores:           16,
		ClockGHz:        2.9,
		L3CacheMB:       32,
		L3PerProcessor:  true,
		GPUVRAMGB:       24,
		StorageWriteGBs: 1.5,
	}

	v := newWizardValues(p)
	if v.cells != "2.5M" {
		t.Errorf("cells = %q, want 2.5M", v.cells)
	}

	hw, err := v.hardware()
	if err != nil {
		t.Fatalf("hardware() error = %v", err)
	}
	got, err := hw.Profile()
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if got != p {
		t.Errorf("round trip = %+v, want %+v", got, p)
	}
}

func TestWizardValues_ZeroProcessors(t *testing.T) {
	v := newWizardValues(types.HardwareProfile{Cells: 1000, Cores: 4})
	if v.processors != "1" {
		t.Errorf("processors = %q, want 1", v.processors)
	}
}

func TestWizardValues_ReportsEveryBadField(t *testing.T) {
	v := newWizardValues(types.HardwareProfile{Cells: 1000, Cores: 4, Processors: 1})
	v.cells = "many"
	v.cores = "four"
	v.ramGB = "lots"

	_, err := v.hardware()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, field := range []string{"cells", "cores", "ram_capacity_gb"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestWizardValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr bool
	}{
		{"empty profile name", validateProfileName, "", false},
		{"profile name", validateProfileName, "lab-2", false},
		{"upper-case profile name", validateProfileName, "Lab", true},
		{"profile name with space", validateProfileName, "my lab", true},
		{"cells SI", validateCells, "10M", false},
		{"cells plain", validateCells, "1500000", false},
		{"cells zero", validateCells, "0", true},
		{"cells text", validateCells, "ten", true},
		{"positive int", validatePositiveInt, " 8 ", false},
		{"positive int zero", validatePositiveInt, "0", true},
		{"positive int float", validatePositiveInt, "1.5", true},
		{"non-negative zero", validateNonNegative, "0", false},
		{"non-negative float", validateNonNegative, "2.7", false},
		{"non-negative negative", validateNonNegative, "-1", true},
		{"non-negative text", validateNonNegative, "fast", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewWizardForm(t *testing.T) {
	v := newWizardValues(types.HardwareProfile{Cells: 10_000_000, Cores: 20, Processors: 1})
	if newWizardForm(v) == nil {
		t.Fatal("expected a form")
	}
}
