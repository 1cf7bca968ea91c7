// Package config provides configuration management for cfdcheck.
package config

import "time"

// Default hardware profile: a 20-core single-socket workstation evaluated
// against a 10 million cell mesh.
const (
	DefaultCells          = "10M"
	DefaultRAMCapacityGB  = 64.0
	DefaultRAMChannels    = 4
	DefaultRAMSpeedMTs    = 2700.0
	DefaultProcessors     = 1
	DefaultCores          = 20
	DefaultClockGHz       = 2.0
	DefaultL3CacheMB      = 64.0
	DefaultGPUVRAMGB      = 0.0
	DefaultStorageWriteGB = 0.0
)

const (
	// DefaultOutputFormat is the formatter used when none is configured.
	DefaultOutputFormat = "pretty"

	// DefaultRetentionDays is how long recorded evaluations are kept.
	DefaultRetentionDays = 90

	// DefaultServerAddr is the listen address of the HTTP API.
	DefaultServerAddr = ":8080"

	// DefaultReadTimeout bounds reading a request.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds writing a response.
	DefaultWriteTimeout = 30 * time.Second
)
