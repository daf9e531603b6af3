package config

import "sort"

// Presets are named parameter sets. Box and solver settings come from
// DefaultConfig.
var Presets = map[string]Params{
	"sierpinski": {Points: 100000, P1: 1.0 / 3, P2: 1.0 / 3, R1: 0.5, R2: 0.5, R3: 0.5},
	"skewed":     {Points: 100000, P1: 0.6, P2: 0.2, R1: 0.5, R2: 0.5, R3: 0.5},
	"dust":       {Points: 50000, P1: 1.0 / 3, P2: 1.0 / 3, R1: 0.3, R2: 0.3, R3: 0.3},
	"mixed":      {Points: 100000, P1: 0.33, P2: 0.33, R1: 0.5, R2: 0.4, R3: 0.3},
	"overlap":    {Points: 100000, P1: 1.0 / 3, P2: 1.0 / 3, R1: 0.7, R2: 0.7, R3: 0.7},
	"line":       {Points: 20000, P1: 0.5, P2: 0.5, R1: 0.5, R2: 0.5, R3: 0.5},
}

// Params are the six scalars of the triangle game plus the point count.
type Params struct {
	Points     int
	P1, P2     float64
	R1, R2, R3 float64
}

// Apply copies p onto cfg.
func (p Params) Apply(cfg *Config) {
	cfg.Points = p.Points
	cfg.P1, cfg.P2 = p.P1, p.P2
	cfg.R1, cfg.R2, cfg.R3 = p.R1, p.R2, p.R3
}

// Matches reports whether cfg carries exactly these parameters.
func (p Params) Matches(cfg *Config) bool {
	return cfg.Points == p.Points &&
		cfg.P1 == p.P1 && cfg.P2 == p.P2 &&
		cfg.R1 == p.R1 && cfg.R2 == p.R2 && cfg.R3 == p.R3
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
