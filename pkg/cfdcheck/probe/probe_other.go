//go:build !linux && !darwin

package probe

import "runtime"

// detect only knows the logical CPU count on this platform.
func detect() (Resources, error) {
	return Resources{LogicalCPUs: runtime.NumCPU()}, nil
}
