package boxdim

import (
	"fmt"
	"math"

	"github.com/san-kum/fracdim/internal/fractal"
)

// Default size range: 30 sizes log-spaced from 1e-4 to 1.
const (
	DefaultMinExp = -4.0
	DefaultMaxExp = 0.0
	DefaultCount  = 30
)

// Fit is the regression behind a dimension estimate.
type Fit struct {
	Sizes     []float64
	Counts    []int
	Slope     float64
	Intercept float64
	RSquared  float64
	Dimension float64
}

// cell is keyed on floored floats so divergent clouds never overflow an
// integer conversion.
type cell struct {
	x, y float64
}

// DefaultSizes returns LogSpace(DefaultMinExp, DefaultMaxExp, DefaultCount).
func DefaultSizes() []float64 {
	return LogSpace(DefaultMinExp, DefaultMaxExp, DefaultCount)
}

// LogSpace returns n values 10^start .. 10^stop, evenly spaced in log10 and
// including both endpoints.
func LogSpace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = math.Pow(10, start)
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = math.Pow(10, start+float64(i)*step)
	}
	return out
}

// RelativeSizes spans decades orders of magnitude below the cloud's
// bounding-box extent. A degenerate cloud (all points equal) falls back to
// an extent of 1.
func RelativeSizes(points fractal.PointSequence, decades float64, n int) ([]float64, error) {
	if len(points) == 0 {
		return nil, fractal.Invalid("points", 0, "point sequence is empty")
	}
	if !(decades > 0) || math.IsInf(decades, 0) {
		return nil, fractal.Invalid("decades", decades, "must be positive")
	}
	if n < 2 {
		return nil, fractal.Invalid("count", float64(n), "need at least 2 sizes")
	}
	extent := points.Bounds().Extent()
	if !(extent > 0) || math.IsInf(extent, 0) {
		extent = 1
	}
	top := math.Log10(extent)
	return LogSpace(top-decades, top, n), nil
}

// Count returns the number of occupied cells of side size.
func Count(points fractal.PointSequence, size float64) (int, error) {
	if err := checkPoints(points); err != nil {
		return 0, err
	}
	if err := checkSize(0, size); err != nil {
		return 0, err
	}
	return count(points, size), nil
}

// Counts returns one occupied-cell count per size.
func Counts(points fractal.PointSequence, sizes []float64) ([]int, error) {
	if err := checkPoints(points); err != nil {
		return nil, err
	}
	for i, s := range sizes {
		if err := checkSize(i, s); err != nil {
			return nil, err
		}
	}
	counts := make([]int, len(sizes))
	for i, s := range sizes {
		counts[i] = count(points, s)
	}
	return counts, nil
}

func count(points fractal.PointSequence, size float64) int {
	seen := make(map[cell]struct{}, min(len(points), 1<<16))
	for _, p := range points {
		seen[cell{math.Floor(p.X / size), math.Floor(p.Y / size)}] = struct{}{}
	}
	return len(seen)
}

// Analyze counts boxes at every size and fits the log-log line. A nil sizes
// slice selects DefaultSizes.
func Analyze(points fractal.PointSequence, sizes []float64) (*Fit, error) {
	if sizes == nil {
		sizes = DefaultSizes()
	}
	if len(sizes) < 2 {
		return nil, fractal.Invalid("box_sizes", float64(len(sizes)), "need at least 2 sizes")
	}

	counts, err := Counts(points, sizes)
	if err != nil {
		return nil, err
	}

	xs := make([]float64, len(sizes))
	ys := make([]float64, len(sizes))
	for i := range sizes {
		xs[i] = math.Log(sizes[i])
		ys[i] = math.Log(float64(counts[i]))
	}

	slope, intercept, r2, err := LinearFit(xs, ys)
	if err != nil {
		return nil, err
	}

	return &Fit{
		Sizes:     append([]float64(nil), sizes...),
		Counts:    counts,
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r2,
		Dimension: -slope,
	}, nil
}

// EstimateBoxDimension returns the box-counting dimension of points.
func EstimateBoxDimension(points fractal.PointSequence, sizes []float64) (float64, error) {
	fit, err := Analyze(points, sizes)
	if err != nil {
		return 0, err
	}
	return fit.Dimension, nil
}

// LinearFit is an ordinary least-squares fit of y = slope*x + intercept.
// r2 is 1 when every y is equal.
func LinearFit(xs, ys []float64) (slope, intercept, r2 float64, err error) {
	n := len(xs)
	if n != len(ys) {
		return 0, 0, 0, fmt.Errorf("%w: %d x values, %d y values", fractal.ErrInvalidArgument, n, len(ys))
	}
	if n < 2 {
		return 0, 0, 0, fractal.Invalid("samples", float64(n), "need at least 2 samples")
	}

	meanX, meanY := 0.0, 0.0
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	sxx, sxy, syy := 0.0, 0.0, 0.0
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return 0, 0, 0, fractal.Invalid("box_sizes", xs[0], "sizes must not all be equal")
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX
	r2 = 1.0
	if syy > 0 {
		r2 = sxy * sxy / (sxx * syy)
	}
	return slope, intercept, r2, nil
}

func checkPoints(points fractal.PointSequence) error {
	if len(points) == 0 {
		return fractal.Invalid("points", 0, "point sequence is empty")
	}
	if !points.Valid() {
		return fractal.Invalid("points", math.NaN(), "coordinates must be finite")
	}
	return nil
}

func checkSize(i int, s float64) error {
	if !(s > 0) || math.IsInf(s, 0) {
		return fractal.Invalid(fmt.Sprintf("box_sizes[%d]", i), s, "must be positive and finite")
	}
	return nil
}
