package estimate

import (
	"fmt"
	"math"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Rule-of-thumb thresholds from CFD practitioner guidance.
const (
	// MinCellsPerCore is the floor below which a core is starved of work.
	MinCellsPerCore = 50_000

	// MaxCellsPerCore is the load at which a core is fully used.
	MaxCellsPerCore = 100_000

	// ReferenceClockGHz is the clock speed solvers are measured against.
	// Solvers speed up almost linearly with clock up to about 3.5 GHz.
	ReferenceClockGHz = 3.0

	// CacheMBPerCore is the practical L3 baseline per core.
	CacheMBPerCore = 2.0

	// RAMGBPerMillionCells is the memory needed per million cells (1.5 to 2.0 observed).
	RAMGBPerMillionCells = 2.0

	// MaxCoresPerChannel is the number of cores one memory channel can feed.
	MaxCoresPerChannel = 4.0

	// BandwidthGBsPerCore is the per-core bandwidth below which solvers saturate.
	BandwidthGBsPerCore = 2.0

	// BytesPerTransfer is the width of one DDR channel transfer.
	BytesPerTransfer = 8

	// BandwidthEfficiency is the achievable fraction of theoretical bandwidth.
	BandwidthEfficiency = 0.7

	// MillionCellsPerVRAMGB is how many million cells one GB of VRAM renders.
	MillionCellsPerVRAMGB = 12.0

	// SnapshotGBPerMillionCells is the disk footprint of one field snapshot.
	SnapshotGBPerMillionCells = 1.0
)

// Estimator scores one resource of a profile.
type Estimator func(p types.HardwareProfile) (types.BottleneckResult, error)

// Estimators returns the seven estimators in reporting order.
// Ties in the ranking keep this order.
func Estimators() []Estimator {
	return []Estimator{
		RAMCapacity,
		RAMChannels,
		RAMBandwidth,
		CPUCores,
		CPUClock,
		L3Cache,
		GPUVRAM,
	}
}

// CPUCores scores the core count against one core per MaxCellsPerCore cells.
func CPUCores(p types.HardwareProfile) (types.BottleneckResult, error) {
	required := float64(p.Cells) / MaxCellsPerCore
	return Score(types.ResourceCPUCores, float64(p.TotalCores()), required)
}

// CPUClock scores the clock speed against ReferenceClockGHz.
func CPUClock(p types.HardwareProfile) (types.BottleneckResult, error) {
	return Score(types.ResourceCPUClock, p.ClockGHz, ReferenceClockGHz)
}

// L3Cache scores the node's L3 cache against CacheMBPerCore for every core.
func L3Cache(p types.HardwareProfile) (types.BottleneckResult, error) {
	required := float64(p.TotalCores()) * CacheMBPerCore
	return Score(types.ResourceL3Cache, p.TotalL3MB(), required)
}

// RAMCapacity scores installed memory against RAMGBPerMillionCells.
func RAMCapacity(p types.HardwareProfile) (types.BottleneckResult, error) {
	required := p.MillionCells() * RAMGBPerMillionCells
	return Score(types.ResourceRAMCapacity, p.RAMCapacityGB, required)
}

// RAMChannels scores the channel count against one channel per
// MaxCoresPerChannel cores.
func RAMChannels(p types.HardwareProfile) (types.BottleneckResult, error) {
	required := float64(p.TotalCores()) / MaxCoresPerChannel
	return Score(types.ResourceRAMChannels, float64(p.RAMChannels), required)
}

// RAMBandwidth scores achievable memory bandwidth against BandwidthGBsPerCore
// for every core.
func RAMBandwidth(p types.HardwareProfile) (types.BottleneckResult, error) {
	required := float64(p.TotalCores()) * BandwidthGBsPerCore
	return Score(types.ResourceRAMBandwidth, EffectiveBandwidthGBs(p), required)
}

// GPUVRAM scores GPU memory against one GB per MillionCellsPerVRAMGB million
// cells. A machine without a GPU scores zero; that is not an error.
func GPUVRAM(p types.HardwareProfile) (types.BottleneckResult, error) {
	required := p.MillionCells() / MillionCellsPerVRAMGB
	return Score(types.ResourceGPUVRAM, p.GPUVRAMGB, required)
}

// TheoreticalBandwidthGBs returns the peak transfer bandwidth of all channels.
func TheoreticalBandwidthGBs(p types.HardwareProfile) float64 {
	return p.RAMSpeedMTs * 1e6 * BytesPerTransfer * float64(p.RAMChannels) / 1e9
}

// EffectiveBandwidthGBs returns the bandwidth a solver can actually use.
func EffectiveBandwidthGBs(p types.HardwareProfile) float64 {
	return TheoreticalBandwidthGBs(p) * BandwidthEfficiency
}

// CoreCapAdvisory returns an advisory when the mesh is too small to keep every
// core busy, that is when each core would get fewer than MinCellsPerCore cells.
func CoreCapAdvisory(p types.HardwareProfile) (types.Advisory, bool) {
	cores := p.TotalCores()
	if cores <= 0 || p.Cells <= 0 {
		return types.Advisory{}, false
	}

	cellsPerCore := float64(p.Cells) / float64(cores)
	minRatio := MinCellsPerCore / cellsPerCore
	if minRatio <= 1 {
		return types.Advisory{}, false
	}

	advised := int64(math.RoundToEven(float64(p.Cells) / minRatio))
	maxCores := max(int(p.Cells/MinCellsPerCore), 1)

	return types.Advisory{
		Kind: types.AdvisoryCoreCap,
		Message: fmt.Sprintf("Do not use all cores for computing: %s cells per core is below %s. Limit the simulation to %s (at most %d cores are useful)",
			types.FormatCells(int64(math.Round(cellsPerCore))), types.FormatCells(MinCellsPerCore),
			types.FormatCells(advised), maxCores),
		CellsPerCore:   cellsPerCore,
		AdvisedCells:   advised,
		MaxUsefulCores: maxCores,
	}, true
}
