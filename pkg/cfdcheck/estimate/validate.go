package estimate

import (
	"errors"
	"math"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Validate checks that every field of a profile yields a defined ratio.
// All problems are reported together; each one is a *FieldError and the
// joined error matches ErrInvalidInput (and ErrNonPositiveMesh for the mesh)
// with errors.Is.
func Validate(p types.HardwareProfile) error {
	var errs []error

	if p.Cells <= 0 {
		errs = append(errs, &FieldError{
			Field:  "cells",
			Value:  p.Cells,
			Reason: "must be positive",
			Err:    errors.Join(ErrNonPositiveMesh, ErrInvalidInput),
		})
	}
	if p.Cores <= 0 {
		errs = append(errs, invalid("cores", p.Cores, "must be positive"))
	}
	if p.Processors < 0 {
		errs = append(errs, invalid("processors", p.Processors, "must not be negative"))
	}
	if p.RAMChannels <= 0 {
		errs = append(errs, invalid("ram_channels", p.RAMChannels, "must be positive"))
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"ram_capacity_gb", p.RAMCapacityGB},
		{"ram_speed_mts", p.RAMSpeedMTs},
		{"clock_ghz", p.ClockGHz},
		{"l3_cache_mb", p.L3CacheMB},
		{"gpu_vram_gb", p.GPUVRAMGB},
		{"storage_write_gbs", p.StorageWriteGBs},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = append(errs, invalid(f.name, f.value, "must be a non-negative finite number"))
		}
	}

	return errors.Join(errs...)
}
