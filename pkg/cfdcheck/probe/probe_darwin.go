//go:build darwin

package probe

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// detect reads the hw.* sysctl tree. Apple silicon does not report a
// maximum frequency or an L3 cache; those stay zero.
func detect() (Resources, error) {
	r := Resources{LogicalCPUs: runtime.NumCPU()}

	memsize, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return r, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	r.TotalRAM = memsize

	var errs []error
	if n, err := unix.SysctlUint32("hw.physicalcpu"); err == nil {
		r.PhysicalCores = int(n)
	} else {
		errs = append(errs, fmt.Errorf("sysctl hw.physicalcpu: %w", err))
	}
	if n, err := unix.SysctlUint32("hw.packages"); err == nil {
		r.Packages = int(n)
	}
	if n, err := unix.SysctlUint64("hw.l3cachesize"); err == nil {
		r.L3CachePerPackage = n
	}
	if hz, err := unix.SysctlUint64("hw.cpufrequency_max"); err == nil {
		r.MaxClockGHz = float64(hz) / 1e9
	}

	return r, errors.Join(errs...)
}
