package main

import (
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/history"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

func TestFormatHistoryTable(t *testing.T) {
	report, err := estimate.Evaluate(types.HardwareProfile{
		Cells:         10_000_000,
		RAMCapacityGB: 64,
		RAMChannels:   4,
		RAMSpeedMTs:   2700,
		Processors:    2,
		Cores:         20,
		ClockGHz:      2,
		L3CacheMB:     64,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	entries := []*history.Entry{{
		ID:     "0123456789abcdef",
		Time:   time.Now().Add(-2 * time.Hour),
		Source: "serve",
		Report: *report,
	}}

	got := formatHistoryTable(entries)
	for _, want := range []string{"01234567", "2 hours ago", "serve", "10,000,000", "40", string(types.ResourceGPUVRAM)} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "0123456789abcdef") {
		t.Error("table should show the short ID")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"check", 6, "check"},
		{"explore", 6, "exp..."},
		{"abcdef", 3, "abc"},
		{"", 6, ""},
	}
	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
