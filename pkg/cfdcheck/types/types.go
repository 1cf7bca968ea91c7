// Package types provides core data types for the cfdcheck bottleneck estimator.
// It includes the hardware profile fed into an evaluation, the per-resource
// results and advisories it produces, and helpers for parsing mesh sizes.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// HardwareProfile describes one single-node machine and the mesh it must solve.
// A profile is built once at the program boundary and passed by value; the
// engine never modifies it.
type HardwareProfile struct {
	// Cells is the number of cells in the simulation mesh.
	Cells int64 `json:"cells" yaml:"cells"`

	// RAMCapacityGB is the installed RAM in gigabytes.
	RAMCapacityGB float64 `json:"ram_capacity_gb" yaml:"ram_capacity_gb"`

	// RAMChannels is the number of populated memory channels on the node.
	RAMChannels int `json:"ram_channels" yaml:"ram_channels"`

	// RAMSpeedMTs is the memory transfer rate in mega-transfers per second.
	RAMSpeedMTs float64 `json:"ram_speed_mts" yaml:"ram_speed_mts"`

	// Processors is the number of physical processor packages.
	// Zero is treated as one.
	Processors int `json:"processors" yaml:"processors"`

	// Cores is the number of cores per processor. With a single processor
	// this is the total core count.
	Cores int `json:"cores" yaml:"cores"`

	// ClockGHz is the CPU clock speed in gigahertz.
	ClockGHz float64 `json:"clock_ghz" yaml:"clock_ghz"`

	// L3CacheMB is the L3 cache size in megabytes.
	L3CacheMB float64 `json:"l3_cache_mb" yaml:"l3_cache_mb"`

	// L3PerProcessor marks L3CacheMB as a per-package figure.
	L3PerProcessor bool `json:"l3_per_processor" yaml:"l3_per_processor"`

	// GPUVRAMGB is the GPU memory in gigabytes. Zero means no GPU.
	GPUVRAMGB float64 `json:"gpu_vram_gb" yaml:"gpu_vram_gb"`

	// StorageWriteGBs is the sustained storage write speed in GB/s.
	// Zero disables the storage advisory.
	StorageWriteGBs float64 `json:"storage_write_gbs,omitempty" yaml:"storage_write_gbs,omitempty"`
}

// ProcessorCount returns the number of processors, treating zero as one.
func (p HardwareProfile) ProcessorCount() int {
	if p.Processors <= 0 {
		return 1
	}
	return p.Processors
}

// TotalCores returns cores per processor times the processor count.
func (p HardwareProfile) TotalCores() int {
	return p.Cores * p.ProcessorCount()
}

// TotalL3MB returns the node-wide L3 cache size.
func (p HardwareProfile) TotalL3MB() float64 {
	if p.L3PerProcessor {
		return p.L3CacheMB * float64(p.ProcessorCount())
	}
	return p.L3CacheMB
}

// MillionCells returns the mesh size in millions of cells.
func (p HardwareProfile) MillionCells() float64 {
	return float64(p.Cells) / 1_000_000
}

// Resource identifies one hardware dimension scored by the engine.
type Resource string

// Scored resources.
const (
	ResourceCPUCores     Resource = "cpu_cores"
	ResourceCPUClock     Resource = "cpu_clock"
	ResourceL3Cache      Resource = "l3_cache"
	ResourceRAMCapacity  Resource = "ram_capacity"
	ResourceRAMChannels  Resource = "ram_channels"
	ResourceRAMBandwidth Resource = "ram_bandwidth"
	ResourceGPUVRAM      Resource = "gpu_vram"
)

// resourceMeta holds display metadata for a resource.
type resourceMeta struct {
	label string
	unit  string
}

var resources = map[Resource]resourceMeta{
	ResourceCPUCores:     {label: "CPU Cores", unit: "cores"},
	ResourceCPUClock:     {label: "CPU Clock-Speed (GHz)", unit: "GHz"},
	ResourceL3Cache:      {label: "CPU L3 Cache (MB)", unit: "MB"},
	ResourceRAMCapacity:  {label: "RAM Capacity (GB)", unit: "GB"},
	ResourceRAMChannels:  {label: "RAM Channels", unit: "channels"},
	ResourceRAMBandwidth: {label: "RAM Bandwidth (GB/s)", unit: "GB/s"},
	ResourceGPUVRAM:      {label: "GPU VRAM (GB)", unit: "GB"},
}

// Label returns the human-readable name of the resource.
func (r Resource) Label() string {
	if m, ok := resources[r]; ok {
		return m.label
	}
	return string(r)
}

// Unit returns the unit the resource is measured in.
func (r Resource) Unit() string {
	return resources[r].unit
}

// String returns the resource identifier.
func (r Resource) String() string {
	return string(r)
}

// BottleneckResult is the outcome of scoring one resource.
type BottleneckResult struct {
	// Resource identifies the scored hardware dimension.
	Resource Resource `json:"resource"`

	// Ratio is Actual divided by Required. Below one means under-provisioned.
	Ratio float64 `json:"ratio"`

	// Actual is the installed capacity.
	Actual float64 `json:"actual"`

	// Required is the capacity the heuristic asks for.
	Required float64 `json:"required"`
}

// Sufficient reports whether the installed capacity meets the requirement.
func (r BottleneckResult) Sufficient() bool {
	return r.Ratio >= 1
}

// MarshalJSON adds the derived verdict as "sufficient".
func (r BottleneckResult) MarshalJSON() ([]byte, error) {
	type result BottleneckResult
	return json.Marshal(struct {
		result
		Sufficient bool `json:"sufficient"`
	}{result(r), r.Sufficient()})
}

// AdvisoryKind classifies an advisory.
type AdvisoryKind string

// Advisory kinds.
const (
	// AdvisoryCoreCap suggests not using every core for the solver.
	AdvisoryCoreCap AdvisoryKind = "core_cap"

	// AdvisoryNoGPU notes that the GPU row reflects a machine without a GPU.
	AdvisoryNoGPU AdvisoryKind = "no_gpu"

	// AdvisoryStorage reports the time to write one field snapshot.
	AdvisoryStorage AdvisoryKind = "storage"
)

// Advisory is informational guidance produced alongside the ranking.
// Advisories never affect a ratio or verdict.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind" yaml:"kind"`
	Message string       `json:"message" yaml:"message"`

	// Core cap details.
	CellsPerCore   float64 `json:"cells_per_core,omitempty" yaml:"cells_per_core,omitempty"`
	AdvisedCells   int64   `json:"advised_cells,omitempty" yaml:"advised_cells,omitempty"`
	MaxUsefulCores int     `json:"max_useful_cores,omitempty" yaml:"max_useful_cores,omitempty"`

	// Storage details.
	SnapshotGB   float64 `json:"snapshot_gb,omitempty" yaml:"snapshot_gb,omitempty"`
	WriteSeconds float64 `json:"write_seconds,omitempty" yaml:"write_seconds,omitempty"`
}

// Report is the complete output of one evaluation.
type Report struct {
	// Profile is the evaluated hardware profile.
	Profile HardwareProfile `json:"profile"`

	// Results holds one entry per resource, most constrained first.
	Results []BottleneckResult `json:"results"`

	// Advisories holds zero or more informational notes.
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Constraining returns the most constrained resource, or nil for an empty report.
func (r *Report) Constraining() *BottleneckResult {
	if len(r.Results) == 0 {
		return nil
	}
	return &r.Results[0]
}

// Insufficient returns the number of resources whose verdict failed.
func (r *Report) Insufficient() int {
	n := 0
	for _, res := range r.Results {
		if !res.Sufficient() {
			n++
		}
	}
	return n
}

// ErrInvalidCells indicates that a cell count string could not be parsed.
var ErrInvalidCells = errors.New("invalid cell count")

// ParseCells parses a mesh size such as "10000000", "10_000_000", "10M" or
// "2.5M". SI suffixes (k, M, G) are accepted.
func ParseCells(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidCells)
	}
	s = strings.NewReplacer("_", "", ",", "").Replace(s)

	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidCells, s)
	}

	// The SI table only knows lower-case kilo and upper-case mega; milli-cells
	// make no sense, so both cases of k and m are accepted.
	switch {
	case strings.HasSuffix(s, "K"):
		s = strings.TrimSuffix(s, "K") + "k"
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m") + "M"
	}
	value, unit, err := humanize.ParseSI(s)
	if err != nil || unit != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCells, s)
	}
	if value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCells, s)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if value = math.Round(value); value >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidCells, s)
	}
	return int64(value), nil
}

// FormatCells renders a cell count with thousands separators.
func FormatCells(n int64) string {
	return humanize.Comma(n)
}
