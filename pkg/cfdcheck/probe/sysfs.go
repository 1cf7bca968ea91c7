package probe

import (
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// readSysfs reads CPU topology, L3 cache size and maximum frequency from a
// Linux sysfs tree rooted at fsys (normally /sys/devices/system/cpu).
func readSysfs(fsys fs.FS) (Resources, error) {
	var r Resources

	cpus, err := fs.Glob(fsys, "cpu[0-9]*")
	if err != nil {
		return r, err
	}
	if len(cpus) == 0 {
		return r, fmt.Errorf("no cpu entries in sysfs")
	}

	packages := map[string]struct{}{}
	cores := map[string]struct{}{}
	l3 := map[string]map[string]uint64{} // package -> L3 instance -> bytes
	var maxKHz int64

	for _, cpu := range cpus {
		r.LogicalCPUs++

		pkg, pkgErr := readTrimmed(fsys, path.Join(cpu, "topology", "physical_package_id"))
		core, coreErr := readTrimmed(fsys, path.Join(cpu, "topology", "core_id"))
		if pkgErr == nil {
			packages[pkg] = struct{}{}
			if coreErr == nil {
				cores[pkg+"/"+core] = struct{}{}
			}
		}

		if khz, err := readInt(fsys, path.Join(cpu, "cpufreq", "cpuinfo_max_freq")); err == nil && khz > maxKHz {
			maxKHz = khz
		}

		if size, instance := readL3(fsys, cpu); size > 0 {
			if l3[pkg] == nil {
				l3[pkg] = map[string]uint64{}
			}
			l3[pkg][instance] = size
		}
	}

	// A package may hold several L3 domains (one per CCX on AMD parts).
	for _, instances := range l3 {
		var total uint64
		for _, size := range instances {
			total += size
		}
		r.L3CachePerPackage = max(r.L3CachePerPackage, total)
	}

	r.Packages = len(packages)
	r.PhysicalCores = len(cores)
	r.MaxClockGHz = float64(maxKHz) / 1e6
	return r, nil
}

// readL3 returns the size of the level 3 cache visible to cpu, or zero, and
// a key identifying that cache instance within its package. The key is the
// cache id, else the shared CPU list; without either every CPU of a package
// is assumed to share one L3.
func readL3(fsys fs.FS, cpu string) (uint64, string) {
	indexes, _ := fs.Glob(fsys, path.Join(cpu, "cache", "index[0-9]*"))
	for _, idx := range indexes {
		level, err := readTrimmed(fsys, path.Join(idx, "level"))
		if err != nil || level != "3" {
			continue
		}
		size, err := readTrimmed(fsys, path.Join(idx, "size"))
		if err != nil {
			continue
		}
		n, err := parseCacheSize(size)
		if err != nil {
			continue
		}
		if id, err := readTrimmed(fsys, path.Join(idx, "id")); err == nil {
			return n, "id:" + id
		}
		if shared, err := readTrimmed(fsys, path.Join(idx, "shared_cpu_list")); err == nil {
			return n, "cpus:" + shared
		}
		return n, ""
	}
	return 0, ""
}

// parseCacheSize parses sysfs cache sizes such as "32768K" or "36M". sysfs
// uses binary units with a bare K/M suffix.
func parseCacheSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "K") || strings.HasSuffix(s, "M") || strings.HasSuffix(s, "G") {
		s += "iB"
	}
	return humanize.ParseBytes(s)
}

func readTrimmed(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readInt(fsys fs.FS, name string) (int64, error) {
	s, err := readTrimmed(fsys, name)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
