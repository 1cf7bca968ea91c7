package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// ErrUnknownProfile is returned when a named profile is not configured.
var ErrUnknownProfile = errors.New("unknown profile")

// HardwareConfig is the default hardware profile as written in the config
// file. Cells accepts SI suffixes ("10M", "2.5M").
type HardwareConfig struct {
	Cells           string  `mapstructure:"cells" yaml:"cells"`
	RAMCapacityGB   float64 `mapstructure:"ram_capacity_gb" yaml:"ram_capacity_gb"`
	RAMChannels     int     `mapstructure:"ram_channels" yaml:"ram_channels"`
	RAMSpeedMTs     float64 `mapstructure:"ram_speed_mts" yaml:"ram_speed_mts"`
	Processors      int     `mapstructure:"processors" yaml:"processors"`
	Cores           int     `mapstructure:"cores" yaml:"cores"`
	ClockGHz        float64 `mapstructure:"clock_ghz" yaml:"clock_ghz"`
	L3CacheMB       float64 `mapstructure:"l3_cache_mb" yaml:"l3_cache_mb"`
	L3PerProcessor  bool    `mapstructure:"l3_per_processor" yaml:"l3_per_processor"`
	GPUVRAMGB       float64 `mapstructure:"gpu_vram_gb" yaml:"gpu_vram_gb"`
	StorageWriteGBs float64 `mapstructure:"storage_write_gbs" yaml:"storage_write_gbs"`
}

// ProfileOverride holds the fields a named profile changes. Nil fields keep
// the value of the default hardware section.
type ProfileOverride struct {
	Cells           *string  `mapstructure:"cells" yaml:"cells,omitempty"`
	RAMCapacityGB   *float64 `mapstructure:"ram_capacity_gb" yaml:"ram_capacity_gb,omitempty"`
	RAMChannels     *int     `mapstructure:"ram_channels" yaml:"ram_channels,omitempty"`
	RAMSpeedMTs     *float64 `mapstructure:"ram_speed_mts" yaml:"ram_speed_mts,omitempty"`
	Processors      *int     `mapstructure:"processors" yaml:"processors,omitempty"`
	Cores           *int     `mapstructure:"cores" yaml:"cores,omitempty"`
	ClockGHz        *float64 `mapstructure:"clock_ghz" yaml:"clock_ghz,omitempty"`
	L3CacheMB       *float64 `mapstructure:"l3_cache_mb" yaml:"l3_cache_mb,omitempty"`
	L3PerProcessor  *bool    `mapstructure:"l3_per_processor" yaml:"l3_per_processor,omitempty"`
	GPUVRAMGB       *float64 `mapstructure:"gpu_vram_gb" yaml:"gpu_vram_gb,omitempty"`
	StorageWriteGBs *float64 `mapstructure:"storage_write_gbs" yaml:"storage_write_gbs,omitempty"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// HistoryConfig configures the evaluation history store.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Config represents the application configuration.
type Config struct {
	Hardware HardwareConfig             `mapstructure:"hardware"`
	Profiles map[string]ProfileOverride `mapstructure:"profiles"`
	Output   struct {
		Format   string `mapstructure:"format"`
		Template string `mapstructure:"template"`
	} `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	History HistoryConfig `mapstructure:"history"`
	Server  ServerConfig  `mapstructure:"server"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("hardware.cells", DefaultCells)
	v.SetDefault("hardware.ram_capacity_gb", DefaultRAMCapacityGB)
	v.SetDefault("hardware.ram_channels", DefaultRAMChannels)
	v.SetDefault("hardware.ram_speed_mts", DefaultRAMSpeedMTs)
	v.SetDefault("hardware.processors", DefaultProcessors)
	v.SetDefault("hardware.cores", DefaultCores)
	v.SetDefault("hardware.clock_ghz", DefaultClockGHz)
	v.SetDefault("hardware.l3_cache_mb", DefaultL3CacheMB)
	v.SetDefault("hardware.l3_per_processor", false)
	v.SetDefault("hardware.gpu_vram_gb", DefaultGPUVRAMGB)
	v.SetDefault("hardware.storage_write_gbs", DefaultStorageWriteGB)

	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("output.template", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "") // empty means DefaultHistoryPath
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
}

// Configure points v at the config file search path and the CFDCHECK_
// environment. An explicit file replaces the search path.
func Configure(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("CFDCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load loads configuration from the config file and CFDCHECK_ environment
// variables. Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/cfdcheck/config.yaml
//   - $HOME/.config/cfdcheck/config.yaml
//
// A missing config file is not an error.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFile(file string) (*Config, error) {
	v := viper.New()
	Configure(v, file)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals an already configured viper instance.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Profile builds the hardware profile to evaluate. An empty name returns the
// hardware section; any other name applies that profile's overrides on top.
// Names are case-insensitive, as viper lower-cases keys.
func (c *Config) Profile(name string) (types.HardwareProfile, error) {
	hw := c.Hardware
	if name != "" {
		override, ok := c.Profiles[strings.ToLower(name)]
		if !ok {
			return types.HardwareProfile{}, fmt.Errorf("%w: %s (have %s)", ErrUnknownProfile, name, strings.Join(c.ProfileNames(), ", "))
		}
		hw = override.Apply(hw)
	}
	return hw.Profile()
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile converts the config section to a hardware profile.
func (h HardwareConfig) Profile() (types.HardwareProfile, error) {
	cells, err := types.ParseCells(h.Cells)
	if err != nil {
		return types.HardwareProfile{}, fmt.Errorf("hardware.cells: %w", err)
	}
	return types.HardwareProfile{
		Cells:           cells,
		RAMCapacityGB:   h.RAMCapacityGB,
		RAMChannels:     h.RAMChannels,
		RAMSpeedMTs:     h.RAMSpeedMTs,
		Processors:      h.Processors,
		Cores:           h.Cores,
		ClockGHz:        h.ClockGHz,
		L3CacheMB:       h.L3CacheMB,
		L3PerProcessor:  h.L3PerProcessor,
		GPUVRAMGB:       h.GPUVRAMGB,
		StorageWriteGBs: h.StorageWriteGBs,
	}, nil
}

// HardwareFromProfile converts a profile back to its config form.
func HardwareFromProfile(p types.HardwareProfile) HardwareConfig {
	return HardwareConfig{
		Cells:           cellsString(p.Cells),
		RAMCapacityGB:   p.RAMCapacityGB,
		RAMChannels:     p.RAMChannels,
		RAMSpeedMTs:     p.RAMSpeedMTs,
		Processors:      p.Processors,
		Cores:           p.Cores,
		ClockGHz:        p.ClockGHz,
		L3CacheMB:       p.L3CacheMB,
		L3PerProcessor:  p.L3PerProcessor,
		GPUVRAMGB:       p.GPUVRAMGB,
		StorageWriteGBs: p.StorageWriteGBs,
	}
}

// cellsString prefers the SI form ("10M") when it parses back exactly.
func cellsString(n int64) string {
	si := strings.ReplaceAll(humanize.SIWithDigits(float64(n), 3, ""), " ", "")
	if back, err := types.ParseCells(si); err == nil && back == n {
		return si
	}
	return strconv.FormatInt(n, 10)
}

// Apply returns base with the override's non-nil fields replaced.
func (o ProfileOverride) Apply(base HardwareConfig) HardwareConfig {
	set(&base.Cells, o.Cells)
	set(&base.RAMCapacityGB, o.RAMCapacityGB)
	set(&base.RAMChannels, o.RAMChannels)
	set(&base.RAMSpeedMTs, o.RAMSpeedMTs)
	set(&base.Processors, o.Processors)
	set(&base.Cores, o.Cores)
	set(&base.ClockGHz, o.ClockGHz)
	set(&base.L3CacheMB, o.L3CacheMB)
	set(&base.L3PerProcessor, o.L3PerProcessor)
	set(&base.GPUVRAMGB, o.GPUVRAMGB)
	set(&base.StorageWriteGBs, o.StorageWriteGBs)
	return base
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// LoggingSettings converts the logging section for logging.Init.
func (c *Config) LoggingSettings() (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if s := c.Logging.Rotation.MaxSize; s != "" {
		size, err := humanize.ParseBytes(s)
		if err != nil {
			return logging.Config{}, fmt.Errorf("logging.rotation.max_size: %w", err)
		}
		rotation.MaxSize = int64(size)
	}
	rotation.MaxAge = c.Logging.Rotation.MaxAge
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	rotation.Daily = c.Logging.Rotation.Daily

	path := c.Logging.Path
	if path == "" {
		path = DefaultLogPath()
	}

	return logging.Config{
		Level:      c.Logging.Level,
		Path:       path,
		Rotation:   rotation,
		Components: c.Logging.Components,
	}, nil
}

// HistoryPath returns the configured history directory or the default.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return DefaultHistoryPath()
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "cfdcheck"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cfdcheck"), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/cfdcheck/ for the history database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "cfdcheck")
}

// StateDir returns $XDG_STATE_HOME/cfdcheck/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "cfdcheck")
}

// DefaultHistoryPath returns the default history database directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "cfdcheck.log")
}
