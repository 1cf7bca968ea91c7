package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigTemplate = `# cfdcheck configuration

# Default hardware profile evaluated by 'cfdcheck check'
hardware:
  # Mesh size; SI suffixes are accepted (10M, 2.5M, 500k)
  cells: %s
  ram_capacity_gb: %g
  ram_channels: %d
  ram_speed_mts: %g
  # Physical processor packages; cores is per processor
  processors: %d
  cores: %d
  clock_ghz: %g
  l3_cache_mb: %g
  # true when l3_cache_mb is per processor rather than per node
  l3_per_processor: false
  # 0 means no GPU
  gpu_vram_gb: %g
  # Sustained write speed in GB/s; 0 disables the storage advisory
  storage_write_gbs: %g

# Named profiles override individual hardware fields, e.g.:
#   cfdcheck check --profile cluster-node
profiles: {}
#  cluster-node:
#    processors: 2
#    cores: 32
#    ram_channels: 16

output:
  # Formatter: pretty, plain, json, jsonl, yaml, tsv, csv, markdown, template
  format: %s
  # text/template used by the template formatter
  template: ""

logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means $XDG_STATE_HOME/cfdcheck/cfdcheck.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels (estimate, mesh, probe, history, server, tui)
  components: {}

history:
  # Record every evaluation (same as passing --record)
  enabled: false
  # Database directory (empty means $XDG_DATA_HOME/cfdcheck/history)
  path: ""
  retention_days: %d

server:
  addr: "%s"
  read_timeout: %s
  write_timeout: %s
`

// DefaultConfigYAML returns the commented default config file.
func DefaultConfigYAML() string {
	return fmt.Sprintf(defaultConfigTemplate,
		DefaultCells, DefaultRAMCapacityGB, DefaultRAMChannels, DefaultRAMSpeedMTs,
		DefaultProcessors, DefaultCores, DefaultClockGHz, DefaultL3CacheMB,
		DefaultGPUVRAMGB, DefaultStorageWriteGB,
		DefaultOutputFormat, DefaultRetentionDays,
		DefaultServerAddr, DefaultReadTimeout, DefaultWriteTimeout)
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(DefaultConfigYAML()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

// SaveProfile stores hw in the config file at path, either as the default
// hardware section (empty name) or under profiles.<name>. Other keys are
// preserved; comments are not.
func SaveProfile(path, name string, hw HardwareConfig) error {
	doc := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if name == "" {
		doc["hardware"] = hw
	} else {
		profiles, _ := doc["profiles"].(map[string]any)
		if profiles == nil {
			profiles = map[string]any{}
		}
		profiles[name] = hw
		doc["profiles"] = profiles
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
