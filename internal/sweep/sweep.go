// Package sweep runs independent experiments over a parameter grid. Every
// cell gets its own random source, so cells can run concurrently.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fracdim/internal/config"
	"github.com/san-kum/fracdim/internal/experiment"
)

// Params lists the names a Grid may vary. "r" sets all three ratios.
var Params = []string{"points", "p1", "p2", "r1", "r2", "r3", "r"}

// Grid is the Cartesian product of Values[i] for each Params[i].
type Grid struct {
	Params []string
	Values [][]float64
}

// Row is the outcome of one grid cell.
type Row struct {
	Cell             int
	Params           map[string]float64
	Seed             int64
	BoxDimension     float64
	CriticalExponent float64
	Err              error
}

// Gap is |box - critical|, or +Inf when either value is missing.
func (r Row) Gap() float64 {
	if r.Err != nil || math.IsNaN(r.CriticalExponent) {
		return math.Inf(1)
	}
	return math.Abs(r.BoxDimension - r.CriticalExponent)
}

type Options struct {
	Workers int
	Logger  *slog.Logger
}

func (g Grid) Validate() error {
	if len(g.Params) != len(g.Values) {
		return fmt.Errorf("grid has %d params but %d value lists", len(g.Params), len(g.Values))
	}
	for i, name := range g.Params {
		if !known(name) {
			return fmt.Errorf("unknown sweep param: %s", name)
		}
		if len(g.Values[i]) == 0 {
			return fmt.Errorf("sweep param %s has no values", name)
		}
		if name == "points" {
			for _, v := range g.Values[i] {
				if _, err := config.PointCount(name, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Size is the number of cells.
func (g Grid) Size() int {
	n := 1
	for _, v := range g.Values {
		n *= len(v)
	}
	return n
}

// Cells enumerates the grid with the last param varying fastest.
func (g Grid) Cells() []map[string]float64 {
	cells := make([]map[string]float64, 0, g.Size())
	g.cellsRecursive(0, map[string]float64{}, &cells)
	return cells
}

func (g Grid) cellsRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.Params) {
		cell := make(map[string]float64, len(current))
		for k, v := range current {
			cell[k] = v
		}
		*out = append(*out, cell)
		return
	}
	name := g.Params[depth]
	for _, val := range g.Values[depth] {
		current[name] = val
		g.cellsRecursive(depth+1, current, out)
	}
	delete(current, name)
}

// Apply writes a cell's params onto cfg. Point counts are expected to have
// passed Grid.Validate.
func Apply(cfg *config.Config, params map[string]float64) {
	for name, v := range params {
		switch name {
		case "points":
			cfg.Points = int(v)
		case "p1":
			cfg.P1 = v
		case "p2":
			cfg.P2 = v
		case "r1":
			cfg.R1 = v
		case "r2":
			cfg.R2 = v
		case "r3":
			cfg.R3 = v
		case "r":
			cfg.R1, cfg.R2, cfg.R3 = v, v, v
		}
	}
}

// Run executes every cell of grid on top of base. Cell i is seeded with
// base.Seed + i. Per-cell failures land in Row.Err; only a canceled context
// stops the sweep early.
func Run(ctx context.Context, base *config.Config, grid Grid, opts Options) ([]Row, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cells := grid.Cells()
	rows := make([]Row, len(cells))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, params := range cells {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cfg := base.Clone()
			Apply(cfg, params)
			cfg.Seed = base.Seed + int64(i)

			row := Row{Cell: i, Params: params, Seed: cfg.Seed, BoxDimension: math.NaN(), CriticalExponent: math.NaN()}
			result, err := experiment.New(cfg).Run(ctx)
			switch {
			case err != nil && ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				row.Err = err
			default:
				row.BoxDimension = result.BoxDimension
				row.CriticalExponent = result.CriticalExponent
				if len(result.Errors) > 0 {
					row.Err = result.Errors[0]
				}
			}

			logger.Debug("sweep cell done", "cell", i, "params", params, "error", row.Err)
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Best returns the row with the lowest score. ok is false when rows is
// empty or every score is +Inf.
func Best(rows []Row, score func(Row) float64) (best Row, ok bool) {
	bestScore := math.Inf(1)
	for _, r := range rows {
		if s := score(r); s < bestScore {
			bestScore = s
			best = r
			ok = true
		}
	}
	return best, ok
}

func known(name string) bool {
	for _, p := range Params {
		if p == name {
			return true
		}
	}
	return false
}
