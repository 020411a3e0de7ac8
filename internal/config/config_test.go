package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scheme != "galaxy" {
		t.Errorf("expected scheme galaxy, got %s", cfg.Scheme)
	}
	if cfg.Backend != compute.DefaultName {
		t.Errorf("expected backend %s, got %s", compute.DefaultName, cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero bodies", func(c *Config) { c.Bodies = 0 }},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }},
		{"unknown scheme", func(c *Config) { c.Scheme = "plummer" }},
		{"unknown backend", func(c *Config) { c.Backend = "tpu" }},
		{"zero softening", func(c *Config) { c.Soft = 0 }},
		{"negative dt", func(c *Config) { c.Dt = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Bodies = 321
	cfg.Backend = compute.NameGPU
	cfg.Device.MemoryMB = 64
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	partial := &struct {
		Bodies int `yaml:"bodies"`
	}{Bodies: 42}
	if err := saveAny(path, partial); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Bodies != 42 {
		t.Errorf("expected 42 bodies, got %d", cfg.Bodies)
	}
	if cfg.Soft != dynamo.DefaultSoft || cfg.Backend != compute.DefaultName {
		t.Errorf("defaults were not kept: %+v", cfg)
	}
}

func TestSimConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.Device.MemoryMB = 2

	sc := cfg.SimConfig()
	if sc.Bodies != cfg.Bodies || sc.Params.Dt != cfg.Dt {
		t.Errorf("unexpected conversion: %+v", sc)
	}
	if sc.Options.Device.MemoryBytes != 2<<20 {
		t.Errorf("expected 2 MiB, got %d", sc.Options.Device.MemoryBytes)
	}
	if sc.Options.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", sc.Options.Workers)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("galaxy", "small")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Bodies != 1000 {
		t.Errorf("expected 1000 bodies, got %d", cfg.Bodies)
	}

	cfg.Bodies = 1
	if GetPreset("galaxy", "small").Bodies != 1000 {
		t.Error("modifying a returned preset changed the preset table")
	}
}

func TestPresets_Validate(t *testing.T) {
	for scheme := range Presets {
		for _, name := range ListPresets(scheme) {
			if err := GetPreset(scheme, name).Validate(); err != nil {
				t.Errorf("preset %s/%s is invalid: %v", scheme, name, err)
			}
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("galaxy", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "small") != nil {
		t.Error("expected nil for nonexistent scheme")
	}
	if Lookup("galaxy") != nil {
		t.Error("expected nil for reference without preset")
	}
	if Lookup("two-body/unit") == nil {
		t.Error("expected two-body/unit to resolve")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("galaxy")
	if len(presets) != 3 || presets[0] != "large" {
		t.Errorf("expected sorted galaxy presets, got %v", presets)
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent scheme")
	}
}

func saveAny(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
