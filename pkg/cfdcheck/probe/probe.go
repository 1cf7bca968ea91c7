// Package probe detects the hardware of the local machine so a profile can
// be filled in without looking up datasheets. It reads what the platform
// exposes (core counts, RAM, L3 cache and maximum clock); values that cannot
// be detected stay zero. Memory channels and transfer rate are never probed.
package probe

import (
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Resources contains detected system resources. Zero means unknown.
type Resources struct {
	// LogicalCPUs is the number of logical CPUs (hardware threads).
	LogicalCPUs int `json:"logical_cpus"`

	// PhysicalCores is the number of physical cores on the node.
	PhysicalCores int `json:"physical_cores"`

	// Packages is the number of processor sockets.
	Packages int `json:"packages"`

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM uint64 `json:"total_ram"`

	// L3CachePerPackage is the L3 cache of one package in bytes.
	L3CachePerPackage uint64 `json:"l3_cache_per_package"`

	// MaxClockGHz is the highest advertised core clock.
	MaxClockGHz float64 `json:"max_clock_ghz"`
}

const (
	bytesPerGiB = 1 << 30
	bytesPerMiB = 1 << 20
)

// Apply returns p with every detected field of r filled in. Fields that were
// not detected keep the value from p.
func Apply(p types.HardwareProfile, r Resources) types.HardwareProfile {
	packages := max(r.Packages, 1)

	switch {
	case r.PhysicalCores > 0:
		p.Processors = packages
		p.Cores = r.PhysicalCores / packages
	case r.LogicalCPUs > 0:
		p.Processors = packages
		p.Cores = r.LogicalCPUs / packages
	}

	if r.TotalRAM > 0 {
		p.RAMCapacityGB = float64(r.TotalRAM) / bytesPerGiB
	}
	if r.L3CachePerPackage > 0 {
		p.L3CacheMB = float64(r.L3CachePerPackage) / bytesPerMiB
		p.L3PerProcessor = packages > 1
	}
	if r.MaxClockGHz > 0 {
		p.ClockGHz = r.MaxClockGHz
	}
	return p
}

// Detect detects the local machine's resources. A partial result is returned
// alongside an error when some values could not be read.
func Detect() (Resources, error) {
	r, err := detect()
	logging.Get("probe").Debug("detected hardware",
		"logical", r.LogicalCPUs,
		"physical", r.PhysicalCores,
		"packages", r.Packages,
		"ram", r.TotalRAM,
		"l3", r.L3CachePerPackage,
		"clock_ghz", r.MaxClockGHz,
		"error", err,
	)
	return r, err
}
