//go:build linux

package probe

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

const sysfsCPU = "/sys/devices/system/cpu"

// detect reads topology, cache and clock from sysfs and memory from sysinfo(2).
func detect() (Resources, error) {
	var errs []error

	r, err := readSysfs(os.DirFS(sysfsCPU))
	if err != nil {
		errs = append(errs, fmt.Errorf("reading %s: %w", sysfsCPU, err))
	}
	if r.LogicalCPUs == 0 {
		r.LogicalCPUs = runtime.NumCPU()
	}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		errs = append(errs, fmt.Errorf("sysinfo: %w", err))
	} else {
		r.TotalRAM = uint64(info.Totalram) * uint64(info.Unit)
	}

	return r, errors.Join(errs...)
}
