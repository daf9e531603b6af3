package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/fracdim/internal/boxdim"
	"github.com/san-kum/fracdim/internal/chaos"
	"github.com/san-kum/fracdim/internal/config"
	"github.com/san-kum/fracdim/internal/critexp"
	"github.com/san-kum/fracdim/internal/fractal"
)

// Result pairs the empirical and theoretical dimension of one parameter set.
// CriticalExponent is NaN when the solver failed; the failure is in Errors.
type Result struct {
	Points           fractal.PointSequence
	Fit              *boxdim.Fit
	BoxDimension     float64
	CriticalExponent float64
	Elapsed          time.Duration
	Errors           []error
}

// HasCritical reports whether the solver produced a value.
func (r *Result) HasCritical() bool {
	return !math.IsNaN(r.CriticalExponent)
}

type Experiment struct {
	cfg        *config.Config
	randSource *rand.Rand
	logger     *slog.Logger
}

// New seeds the experiment's random source from cfg.Seed.
func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg.Clone(),
		randSource: rand.New(rand.NewSource(cfg.Seed)),
		logger:     slog.New(slog.DiscardHandler),
	}
}

func (e *Experiment) WithLogger(logger *slog.Logger) *Experiment {
	if logger != nil {
		e.logger = logger
	}
	return e
}

func (e *Experiment) Config() *config.Config { return e.cfg.Clone() }

// Run generates the point cloud, estimates its box dimension and solves for
// the critical exponent. Invalid parameters abort the run; a solver that
// does not converge is recorded in Result.Errors.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	c := e.cfg

	points, err := chaos.Generate(e.randSource, c.Points, c.P1, c.P2, c.R1, c.R2, c.R3)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	e.logger.Debug("generated points", "count", len(points), "seed", c.Seed)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sizes, err := c.BoxSizes(points)
	if err != nil {
		return nil, fmt.Errorf("box sizes: %w", err)
	}
	fit, err := boxdim.Analyze(points, sizes)
	if err != nil {
		return nil, fmt.Errorf("box dimension: %w", err)
	}

	result := &Result{
		Points:           points,
		Fit:              fit,
		BoxDimension:     fit.Dimension,
		CriticalExponent: math.NaN(),
	}

	d, err := critexp.Solve(c.R1, c.R2, c.R3, c.SolverOptions()...)
	switch {
	case err == nil:
		result.CriticalExponent = d
	case errors.Is(err, fractal.ErrNonConvergent), errors.Is(err, fractal.ErrInvalidArgument):
		// Ratios outside (0,1] still generate points; only the theory is undefined.
		e.logger.Warn("critical exponent unavailable", "error", err)
		result.Errors = append(result.Errors, fmt.Errorf("critical exponent: %w", err))
	default:
		return nil, err
	}

	result.Elapsed = time.Since(start)
	e.logger.Info("experiment complete",
		"points", len(points),
		"box_dimension", result.BoxDimension,
		"critical_exponent", result.CriticalExponent,
		"elapsed", result.Elapsed)

	return result, nil
}
