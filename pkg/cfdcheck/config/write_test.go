package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if want := filepath.Join(home, ".config", "cfdcheck", "config.yaml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() after WriteDefault error = %v", err)
	}
	p, err := cfg.Profile("")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if p.Cells != 10_000_000 || p.Cores != DefaultCores {
		t.Errorf("default file profile = %+v", p)
	}

	// A second call must not overwrite user edits.
	if err := os.WriteFile(path, []byte("hardware:\n  cores: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "cores: 6") {
		t.Error("WriteDefault() overwrote an existing config")
	}
}

func TestSaveProfile(t *testing.T) {
	isolate(t)
	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}

	if err := SaveProfile(path, "", HardwareConfig{Cells: "5M", Cores: 16, RAMChannels: 4, RAMCapacityGB: 32}); err != nil {
		t.Fatalf("SaveProfile(default) error = %v", err)
	}
	if err := SaveProfile(path, "node", HardwareConfig{Cells: "50M", Cores: 64, RAMChannels: 8, Processors: 2}); err != nil {
		t.Fatalf("SaveProfile(node) error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	def, err := cfg.Profile("")
	if err != nil {
		t.Fatal(err)
	}
	if def.Cells != 5_000_000 || def.Cores != 16 {
		t.Errorf("default = %+v", def)
	}

	node, err := cfg.Profile("node")
	if err != nil {
		t.Fatal(err)
	}
	if node.TotalCores() != 128 || node.Cells != 50_000_000 {
		t.Errorf("node = %+v", node)
	}
}

func TestDefaultConfigYAML(t *testing.T) {
	yaml := DefaultConfigYAML()
	for _, want := range []string{"cells: 10M", "cores: 20", "ram_speed_mts: 2700", "format: pretty", `addr: ":8080"`, "read_timeout: 10s"} {
		if !strings.Contains(yaml, want) {
			t.Errorf("default config missing %q", want)
		}
	}
}
