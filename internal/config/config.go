package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fracdim/internal/boxdim"
	"github.com/san-kum/fracdim/internal/critexp"
	"github.com/san-kum/fracdim/internal/fractal"
)

const (
	DefaultPoints  = 100000
	DefaultP       = 0.33
	DefaultR       = 0.5
	DefaultDecades = 4.0
)

type Config struct {
	Points int          `yaml:"points"`
	P1     float64      `yaml:"p1"`
	P2     float64      `yaml:"p2"`
	R1     float64      `yaml:"r1"`
	R2     float64      `yaml:"r2"`
	R3     float64      `yaml:"r3"`
	Seed   int64        `yaml:"seed"`
	Boxes  BoxConfig    `yaml:"boxes"`
	Solver SolverConfig `yaml:"solver"`
}

// BoxConfig selects the box sizes. With Relative set the range is measured
// down from the cloud's bounding-box extent instead of 10^MaxExp.
type BoxConfig struct {
	MinExp   float64 `yaml:"min_exp"`
	MaxExp   float64 `yaml:"max_exp"`
	Count    int     `yaml:"count"`
	Relative bool    `yaml:"relative"`
	Decades  float64 `yaml:"decades"`
}

type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	Lower         float64 `yaml:"lower"`
	Upper         float64 `yaml:"upper"`
	MaxExpansions int     `yaml:"max_expansions"`
	MaxIterations int     `yaml:"max_iterations"`
}

func DefaultConfig() *Config {
	return &Config{
		Points: DefaultPoints,
		P1:     DefaultP,
		P2:     DefaultP,
		R1:     DefaultR,
		R2:     DefaultR,
		R3:     DefaultR,
		Boxes: BoxConfig{
			MinExp:  boxdim.DefaultMinExp,
			MaxExp:  boxdim.DefaultMaxExp,
			Count:   boxdim.DefaultCount,
			Decades: DefaultDecades,
		},
		Solver: SolverConfig{
			Tolerance:     critexp.DefaultTolerance,
			Lower:         critexp.DefaultLower,
			Upper:         critexp.DefaultUpper,
			MaxExpansions: critexp.DefaultMaxExpansions,
			MaxIterations: critexp.DefaultMaxIterations,
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Validate checks the generator inputs and the box range. Ratios are only
// checked for finiteness; the solver applies its own (0,1] precondition.
func (c *Config) Validate() error {
	if c.Points < 1 {
		return fractal.Invalid("points", float64(c.Points), "must be at least 1")
	}
	if _, err := c.Weights(); err != nil {
		return err
	}
	if err := c.Ratios().Validate(); err != nil {
		return err
	}
	if c.Boxes.Count < 2 {
		return fractal.Invalid("boxes.count", float64(c.Boxes.Count), "need at least 2 sizes")
	}
	if c.Boxes.Relative {
		if !(c.Boxes.Decades > 0) {
			return fractal.Invalid("boxes.decades", c.Boxes.Decades, "must be positive")
		}
	} else if !(c.Boxes.MaxExp > c.Boxes.MinExp) {
		return fractal.Invalid("boxes.max_exp", c.Boxes.MaxExp, "must exceed boxes.min_exp")
	}
	return nil
}

func (c *Config) Weights() (fractal.Weights, error) {
	return fractal.NewTriangleWeights(c.P1, c.P2)
}

func (c *Config) Ratios() fractal.Ratios {
	return fractal.Ratios{c.R1, c.R2, c.R3}
}

// BoxSizes returns the sizes to count with for the given cloud.
func (c *Config) BoxSizes(points fractal.PointSequence) ([]float64, error) {
	if c.Boxes.Relative {
		return boxdim.RelativeSizes(points, c.Boxes.Decades, c.Boxes.Count)
	}
	return boxdim.LogSpace(c.Boxes.MinExp, c.Boxes.MaxExp, c.Boxes.Count), nil
}

func (c *Config) SolverOptions() []critexp.Option {
	return []critexp.Option{
		critexp.WithTolerance(c.Solver.Tolerance),
		critexp.WithBracket(c.Solver.Lower, c.Solver.Upper),
		critexp.WithMaxExpansions(c.Solver.MaxExpansions),
		critexp.WithMaxIterations(c.Solver.MaxIterations),
	}
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
