// Package estimate scores a single-node machine against a CFD mesh and ranks
// the hardware resources from most to least constraining.
//
// The package is pure: Evaluate performs no I/O and keeps no state between
// calls, so callers may evaluate profiles from any number of goroutines.
package estimate

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Evaluate validates the profile, scores every resource and ranks them.
// A validation failure returns no partial report.
func Evaluate(p types.HardwareProfile) (*types.Report, error) {
	logger := logging.Get("estimate")

	if err := Validate(p); err != nil {
		logger.Debug("profile rejected", "error", err)
		return nil, err
	}

	estimators := Estimators()
	results := make([]types.BottleneckResult, 0, len(estimators))
	for _, estimate := range estimators {
		res, err := estimate(p)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	report := &types.Report{
		Profile:    p,
		Results:    Rank(results),
		Advisories: advisories(p),
	}

	if c := report.Constraining(); c != nil {
		logger.Debug("evaluated profile",
			"cells", p.Cells,
			"cores", p.TotalCores(),
			"constraining", c.Resource,
			"ratio", c.Ratio,
			"insufficient", report.Insufficient(),
		)
	}
	return report, nil
}

func advisories(p types.HardwareProfile) []types.Advisory {
	var out []types.Advisory

	if adv, ok := CoreCapAdvisory(p); ok {
		out = append(out, adv)
	}

	if p.GPUVRAMGB == 0 {
		out = append(out, types.Advisory{
			Kind:    types.AdvisoryNoGPU,
			Message: "No GPU memory given: the GPU VRAM row assumes a machine without a GPU and only matters for GPU rendering",
		})
	}

	if p.StorageWriteGBs > 0 {
		if est, err := EstimateStorage(p.Cells, p.StorageWriteGBs); err == nil {
			out = append(out, est.Advisory())
		}
	}

	return out
}

// StorageEstimate is the cost of writing one field snapshot to disk.
type StorageEstimate struct {
	SnapshotGB   float64 `json:"snapshot_gb"`
	WriteGBs     float64 `json:"write_gbs"`
	WriteSeconds float64 `json:"write_seconds"`
}

// EstimateStorage returns the snapshot size of a mesh and the time to write it
// at writeGBs.
func EstimateStorage(cells int64, writeGBs float64) (StorageEstimate, error) {
	if cells <= 0 {
		return StorageEstimate{}, &FieldError{Field: "cells", Value: cells, Reason: "must be positive", Err: ErrNonPositiveMesh}
	}
	if !(writeGBs > 0) {
		return StorageEstimate{}, invalid("storage_write_gbs", writeGBs, "must be positive")
	}

	size := float64(cells) / 1_000_000 * SnapshotGBPerMillionCells
	return StorageEstimate{
		SnapshotGB:   size,
		WriteGBs:     writeGBs,
		WriteSeconds: size / writeGBs,
	}, nil
}

// Advisory renders the estimate as a storage advisory.
func (s StorageEstimate) Advisory() types.Advisory {
	bytes := uint64(s.SnapshotGB * 1e9)
	return types.Advisory{
		Kind: types.AdvisoryStorage,
		Message: fmt.Sprintf("Each snapshot is about %s; writing it at %.3g GB/s takes %.3g s per saved timestep",
			humanize.Bytes(bytes), s.WriteGBs, s.WriteSeconds),
		SnapshotGB:   s.SnapshotGB,
		WriteSeconds: s.WriteSeconds,
	}
}
