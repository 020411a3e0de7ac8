package config

import (
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/device"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	DefaultBodies     = 1000
	DefaultIterations = 100
	DefaultDriftEvery = 10
)

type Config struct {
	Bodies     int          `yaml:"bodies"`
	Scheme     string       `yaml:"scheme"`
	Seed       uint64       `yaml:"seed"`
	Soft       float32      `yaml:"soft"`
	Dt         float32      `yaml:"dt"`
	G          float32      `yaml:"g"`
	Iterations int          `yaml:"iterations"`
	Backend    string       `yaml:"backend"`
	Padding    int          `yaml:"padding"`
	Workers    int          `yaml:"workers"`
	Chunk      int          `yaml:"chunk"`
	LaneWidth  int          `yaml:"lane_width"`
	DriftEvery int          `yaml:"drift_every"`
	Device     DeviceConfig `yaml:"device"`
}

type DeviceConfig struct {
	ThreadsPerBlock int   `yaml:"threads_per_block"`
	MemoryMB        int64 `yaml:"memory_mb"`
}

func DefaultConfig() *Config {
	return &Config{
		Bodies:     DefaultBodies,
		Scheme:     body.SchemeGalaxy,
		Soft:       dynamo.DefaultSoft,
		Dt:         dynamo.DefaultDt,
		G:          dynamo.DefaultG,
		Iterations: DefaultIterations,
		Backend:    compute.DefaultName,
		Padding:    -1,
		DriftEvery: DefaultDriftEvery,
		Device: DeviceConfig{
			ThreadsPerBlock: device.DefaultThreadsPerBlock,
			MemoryMB:        device.DefaultMemoryBytes >> 20,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that are not checked again when the
// simulation is built.
func (c *Config) Validate() error {
	if c.Bodies <= 0 {
		return dynamo.InvalidArgument("bodies must be positive, got %d", c.Bodies)
	}
	if c.Iterations < 0 {
		return dynamo.InvalidArgument("iterations must be non-negative, got %d", c.Iterations)
	}
	if !slices.Contains(body.Schemes(), c.Scheme) {
		return dynamo.InvalidArgument("unknown scheme %q (available: %v)", c.Scheme, body.Schemes())
	}
	if !slices.Contains(compute.Names(), c.Backend) {
		return dynamo.InvalidArgument("unknown backend %q (available: %v)", c.Backend, compute.Names())
	}
	return c.Params().Validate()
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params{G: c.G, Soft: c.Soft, Dt: c.Dt}
}

// SimConfig converts the file representation into an engine config.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Bodies:  c.Bodies,
		Scheme:  c.Scheme,
		Seed:    c.Seed,
		Params:  c.Params(),
		Backend: c.Backend,
		Padding: c.Padding,
		Options: compute.Options{
			Workers:   c.Workers,
			Chunk:     c.Chunk,
			LaneWidth: c.LaneWidth,
			Device: device.Config{
				ThreadsPerBlock: c.Device.ThreadsPerBlock,
				MemoryBytes:     c.Device.MemoryMB << 20,
				Workers:         c.Workers,
			},
		},
	}
}
