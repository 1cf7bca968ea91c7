package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/config"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/mesh"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/probe"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// addHardwareFlags registers the flags that build the evaluated profile.
func addHardwareFlags(fs *pflag.FlagSet) {
	// Profile sources
	fs.StringP("profile", "p", "", "named hardware profile from the config file")
	fs.String("case", "", "read the cell count from an OpenFOAM case directory")
	fs.Bool("detect", false, "detect cores, RAM, L3 cache and clock of this machine")

	// Field overrides
	fs.String("cells", "", "mesh cell count (e.g. 10M, 2.5M, 500k)")
	fs.Float64("ram-gb", 0, "installed RAM in GB")
	fs.Int("ram-channels", 0, "populated memory channels")
	fs.Float64("ram-speed", 0, "memory speed in MT/s")
	fs.Int("processors", 0, "processor packages")
	fs.Int("cores", 0, "cores per processor")
	fs.Float64("clock-ghz", 0, "CPU clock speed in GHz")
	fs.Float64("l3-mb", 0, "L3 cache in MB")
	fs.Bool("l3-per-processor", false, "--l3-mb is a per-processor figure")
	fs.Float64("gpu-vram-gb", 0, "GPU memory in GB (0 means no GPU)")
	fs.Float64("write-speed", 0, "storage write speed in GB/s (enables the snapshot estimate)")
}

// resolveProfile builds the profile to evaluate. Later sources win:
// config hardware section, named profile, detected machine, case mesh,
// explicitly set flags.
func resolveProfile(ctx context.Context, c *config.Config, fs *pflag.FlagSet) (types.HardwareProfile, error) {
	name, _ := fs.GetString("profile")
	p, err := c.Profile(name)
	if err != nil {
		return p, err
	}

	if detect, _ := fs.GetBool("detect"); detect {
		res, err := probe.Detect()
		if err != nil {
			return p, fmt.Errorf("detecting hardware: %w", err)
		}
		printVerbose("Detected %d packages, %d cores, %d bytes RAM, %d bytes L3, %.2f GHz",
			res.Packages, res.PhysicalCores, res.TotalRAM, res.L3CachePerPackage, res.MaxClockGHz)
		p = probe.Apply(p, res)
	}

	if dir, _ := fs.GetString("case"); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return p, err
		}
		count, err := mesh.CellCount(ctx, expanded)
		if err != nil {
			return p, err
		}
		printVerbose("Read %s cells from %d owner file(s)", types.FormatCells(count.Cells), len(count.Sources))
		p.Cells = count.Cells
	}

	return p, applyHardwareFlags(&p, fs)
}

// applyHardwareFlags overrides profile fields whose flag was set explicitly.
func applyHardwareFlags(p *types.HardwareProfile, fs *pflag.FlagSet) error {
	if fs.Changed("cells") {
		s, _ := fs.GetString("cells")
		cells, err := types.ParseCells(s)
		if err != nil {
			return fmt.Errorf("--cells: %w", err)
		}
		p.Cells = cells
	}

	override(fs, "ram-gb", fs.GetFloat64, &p.RAMCapacityGB)
	override(fs, "ram-channels", fs.GetInt, &p.RAMChannels)
	override(fs, "ram-speed", fs.GetFloat64, &p.RAMSpeedMTs)
	override(fs, "processors", fs.GetInt, &p.Processors)
	override(fs, "cores", fs.GetInt, &p.Cores)
	override(fs, "clock-ghz", fs.GetFloat64, &p.ClockGHz)
	override(fs, "l3-mb", fs.GetFloat64, &p.L3CacheMB)
	override(fs, "l3-per-processor", fs.GetBool, &p.L3PerProcessor)
	override(fs, "gpu-vram-gb", fs.GetFloat64, &p.GPUVRAMGB)
	override(fs, "write-speed", fs.GetFloat64, &p.StorageWriteGBs)
	return nil
}

func override[T any](fs *pflag.FlagSet, name string, get func(string) (T, error), dst *T) {
	if !fs.Changed(name) {
		return
	}
	if v, err := get(name); err == nil {
		*dst = v
	}
}
