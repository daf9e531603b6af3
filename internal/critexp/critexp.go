package critexp

import (
	"fmt"
	"math"

	"github.com/san-kum/fracdim/internal/fractal"
)

const (
	DefaultTolerance     = 1e-6
	DefaultLower         = 0.0
	DefaultUpper         = 2.0
	DefaultMaxExpansions = 64
	DefaultMaxIterations = 200
)

type solverConfig struct {
	tol           float64
	lower, upper  float64
	maxExpansions int
	maxIter       int
}

type Option func(*solverConfig)

// WithTolerance sets the half bracket width at which bisection stops.
func WithTolerance(tol float64) Option {
	return func(c *solverConfig) { c.tol = tol }
}

// WithBracket sets the initial search interval.
func WithBracket(lower, upper float64) Option {
	return func(c *solverConfig) {
		c.lower = lower
		c.upper = upper
	}
}

// WithMaxExpansions bounds how many times the upper endpoint is doubled
// while looking for a sign change. Zero keeps the bracket fixed.
func WithMaxExpansions(n int) Option {
	return func(c *solverConfig) { c.maxExpansions = n }
}

func WithMaxIterations(n int) Option {
	return func(c *solverConfig) { c.maxIter = n }
}

func newSolverConfig(opts ...Option) solverConfig {
	c := solverConfig{
		tol:           DefaultTolerance,
		lower:         DefaultLower,
		upper:         DefaultUpper,
		maxExpansions: DefaultMaxExpansions,
		maxIter:       DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Solve returns d with x^d + y^d + z^d = 1.
func Solve(x, y, z float64, opts ...Option) (float64, error) {
	return SolveRatios([]float64{x, y, z}, opts...)
}

// SolveRatios returns the similarity dimension of an IFS with the given
// contraction ratios. Every ratio must lie in (0, 1]. If any ratio is 1 the
// sum never drops below one, and the error wraps fractal.ErrNonConvergent.
// Ratios close to 1 push the root far out; the bracket keeps doubling while
// that makes progress, bounded by WithMaxExpansions.
func SolveRatios(ratios []float64, opts ...Option) (float64, error) {
	if len(ratios) < 2 {
		return 0, fractal.Invalid("ratios", float64(len(ratios)), "need at least 2 ratios")
	}
	for i, r := range ratios {
		if !(r > 0 && r <= 1) {
			return 0, fractal.Invalid(fmt.Sprintf("r%d", i+1), r, "must lie in (0, 1]")
		}
	}

	cfg := newSolverConfig(opts...)
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	f := func(d float64) float64 {
		sum := -1.0
		for _, r := range ratios {
			sum += math.Pow(r, d)
		}
		return sum
	}

	lo, hi, err := expand(f, cfg.lower, cfg.upper, cfg.maxExpansions)
	if err != nil {
		return 0, err
	}
	return Bisect(f, lo, hi, cfg.tol, cfg.maxIter)
}

func (c solverConfig) validate() error {
	if !(c.tol > 0) {
		return fractal.Invalid("tolerance", c.tol, "must be positive")
	}
	if !(c.upper > c.lower) || math.IsInf(c.upper, 0) || math.IsInf(c.lower, 0) {
		return fractal.Invalid("bracket", c.upper-c.lower, "upper must exceed lower")
	}
	if c.maxExpansions < 0 {
		return fractal.Invalid("max_expansions", float64(c.maxExpansions), "must not be negative")
	}
	if c.maxIter < 1 {
		return fractal.Invalid("max_iterations", float64(c.maxIter), "must be at least 1")
	}
	return nil
}

// expand doubles the width of [lo, hi] until f changes sign across it. It
// gives up after maxExpansions doublings, or as soon as a doubling brings
// f(hi) no closer to zero, which is how a ratio of 1 shows up.
func expand(f func(float64) float64, lo, hi float64, maxExpansions int) (float64, float64, error) {
	flo, fhi := f(lo), f(hi)
	for i := 0; ; i++ {
		if flo*fhi < 0 {
			return lo, hi, nil
		}
		if i == maxExpansions {
			return 0, 0, fmt.Errorf("%w: no sign change on [%g, %g]", fractal.ErrNonConvergent, lo, hi)
		}
		next := lo + 2*(hi-lo)
		fnext := f(next)
		if flo*fnext < 0 {
			return lo, next, nil
		}
		if math.IsInf(next, 0) || math.IsNaN(fnext) || math.Abs(fnext) >= math.Abs(fhi) {
			return 0, 0, fmt.Errorf("%w: no sign change on [%g, %g], f stalls at %g",
				fractal.ErrNonConvergent, lo, next, fnext)
		}
		hi, fhi = next, fnext
	}
}

// Bisect finds a root of f in [lo, hi]. f(lo) and f(hi) must have opposite
// signs; otherwise the error wraps fractal.ErrNonConvergent. It stops once
// the half bracket width is at most tol and returns the midpoint.
func Bisect(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, error) {
	flo, fhi := f(lo), f(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi >= 0 {
		return 0, fmt.Errorf("%w: f(%g)=%g and f(%g)=%g do not bracket a root",
			fractal.ErrNonConvergent, lo, flo, hi, fhi)
	}

	for i := 0; i < maxIter; i++ {
		if (hi-lo)/2 <= tol {
			return (lo + hi) / 2, nil
		}
		mid := (lo + hi) / 2
		fmid := f(mid)
		if fmid == 0 {
			return mid, nil
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}

	if (hi-lo)/2 <= tol {
		return (lo + hi) / 2, nil
	}
	return 0, fmt.Errorf("%w: bracket [%g, %g] wider than %g after %d iterations",
		fractal.ErrNonConvergent, lo, hi, 2*tol, maxIter)
}
