package config

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/san-kum/fracdim/internal/fractal"
)

// ParseQuery overlays parameters from a query string such as
// "num_points=5000&p1=0.5&r3=0.25" onto a copy of base. A leading '?' is
// ignored. Unknown keys are an error.
func ParseQuery(raw string, base *Config) (*Config, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, fmt.Errorf("parse params: %w", err)
	}

	cfg := base.Clone()
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch key {
		case "num_points", "points":
			// Accept "1e5" the way a float-typed form field would send it.
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", key, err)
			}
			n, err := PointCount(key, f)
			if err != nil {
				return nil, err
			}
			cfg.Points = n
		case "seed":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", key, err)
			}
			cfg.Seed = n
		case "p1", "p2", "r1", "r2", "r3":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", key, err)
			}
			*cfg.field(key) = f
		default:
			return nil, fmt.Errorf("unknown param: %s", key)
		}
	}
	return cfg, nil
}

// PointCount converts a point count given as a float. Fractional and
// out-of-range values are rejected rather than truncated.
func PointCount(param string, f float64) (int, error) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fractal.Invalid(param, f, "must be a whole number")
	}
	if f < 1 || f >= math.MaxInt {
		return 0, fractal.Invalid(param, f, "must be between 1 and MaxInt")
	}
	return int(f), nil
}

func (c *Config) field(name string) *float64 {
	switch name {
	case "p1":
		return &c.P1
	case "p2":
		return &c.P2
	case "r1":
		return &c.R1
	case "r2":
		return &c.R2
	case "r3":
		return &c.R3
	}
	return nil
}

// Query renders the generator parameters in the form ParseQuery reads.
func (c *Config) Query() string {
	v := url.Values{}
	v.Set("num_points", strconv.Itoa(c.Points))
	v.Set("p1", strconv.FormatFloat(c.P1, 'g', -1, 64))
	v.Set("p2", strconv.FormatFloat(c.P2, 'g', -1, 64))
	v.Set("r1", strconv.FormatFloat(c.R1, 'g', -1, 64))
	v.Set("r2", strconv.FormatFloat(c.R2, 'g', -1, 64))
	v.Set("r3", strconv.FormatFloat(c.R3, 'g', -1, 64))
	if c.Seed != 0 {
		v.Set("seed", strconv.FormatInt(c.Seed, 10))
	}
	return v.Encode()
}
