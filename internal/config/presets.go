package config

import (
	"sort"
	"strings"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/device"
)

var Presets = map[string]map[string]*Config{
	"galaxy": {
		"small": {
			Bodies: 1000, Scheme: "galaxy", Iterations: 100, Backend: compute.NameSIMDPar,
			Soft: 0.035, Dt: 3600, G: 6.67430e-11, Padding: -1, DriftEvery: 10,
		},
		"medium": {
			Bodies: 5000, Scheme: "galaxy", Iterations: 20, Backend: compute.NameSIMDPar,
			Soft: 0.035, Dt: 3600, G: 6.67430e-11, Padding: -1, DriftEvery: 5,
		},
		"large": {
			Bodies: 20000, Scheme: "galaxy", Iterations: 5, Backend: compute.NameGPU,
			Soft: 0.035, Dt: 3600, G: 6.67430e-11, Padding: -1, DriftEvery: 5,
		},
	},
	"random": {
		"cube": {
			Bodies: 2000, Scheme: "random", Iterations: 50, Backend: compute.NamePar,
			Soft: 0.035, Dt: 3600, G: 6.67430e-11, Padding: -1, DriftEvery: 10,
		},
	},
	"two-body": {
		"unit": {
			Bodies: 2, Scheme: "two-body", Iterations: 10000, Backend: compute.NameOptim,
			Soft: 0.035, Dt: 0.001, G: 1, Padding: 0, DriftEvery: 100,
		},
	},
}

// GetPreset returns a copy of a preset, or nil if it does not exist.
func GetPreset(scheme, preset string) *Config {
	schemePresets, ok := Presets[scheme]
	if !ok {
		return nil
	}
	cfg, ok := schemePresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	if c.Device == (DeviceConfig{}) {
		c.Device = DeviceConfig{
			ThreadsPerBlock: device.DefaultThreadsPerBlock,
			MemoryMB:        device.DefaultMemoryBytes >> 20,
		}
	}
	return &c
}

// Lookup resolves a "scheme/preset" reference.
func Lookup(ref string) *Config {
	scheme, preset, ok := strings.Cut(ref, "/")
	if !ok {
		return nil
	}
	return GetPreset(scheme, preset)
}

func ListPresets(scheme string) []string {
	schemePresets, ok := Presets[scheme]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(schemePresets))
	for name := range schemePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
