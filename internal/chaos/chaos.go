package chaos

import (
	"fmt"

	"github.com/san-kum/fracdim/internal/fractal"
)

// Source is the entropy a generator draws from. *rand.Rand satisfies it.
// A Source must not be shared between concurrent Generate calls.
type Source interface {
	Float64() float64
}

// System is an iterated function system of contractions toward fixed vertices.
type System struct {
	Vertices []fractal.Vertex
	Weights  fractal.Weights
	Ratios   fractal.Ratios
}

// Triangle builds the three-vertex system with p3 = 1 - p1 - p2. The
// system owns its copy of the vertices.
func Triangle(p1, p2, r1, r2, r3 float64) (*System, error) {
	w, err := fractal.NewTriangleWeights(p1, p2)
	if err != nil {
		return nil, err
	}
	s := &System{
		Vertices: append([]fractal.Vertex(nil), fractal.TriangleVertices...),
		Weights:  w,
		Ratios:   fractal.Ratios{r1, r2, r3},
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *System) Validate() error {
	n := len(s.Vertices)
	if n == 0 {
		return fractal.Invalid("vertices", 0, "system has no vertices")
	}
	if len(s.Weights) != n || len(s.Ratios) != n {
		return fmt.Errorf("%w: %d vertices, %d weights, %d ratios",
			fractal.ErrInvalidArgument, n, len(s.Weights), len(s.Ratios))
	}
	if err := s.Weights.Validate(); err != nil {
		return err
	}
	return s.Ratios.Validate()
}

// Generate plays n steps of the game. The first point is a uniform seed in
// [0,1)^2; the returned sequence has indices 0..n-1.
func (s *System) Generate(rng Source, n int) (fractal.PointSequence, error) {
	if n < 1 {
		return nil, fractal.Invalid("num_iterations", float64(n), "must be at least 1")
	}
	if rng == nil {
		return nil, fractal.Invalid("rng", 0, "random source is required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cdf := s.cumulative()
	points := make(fractal.PointSequence, n)

	x, y := rng.Float64(), rng.Float64()
	points[0] = fractal.Point{Index: 0, X: x, Y: y}

	for i := 1; i < n; i++ {
		k := pick(cdf, rng.Float64())
		v := s.Vertices[k]
		r := s.Ratios[k]
		x = r*x + (1-r)*v.X
		y = r*y + (1-r)*v.Y
		points[i] = fractal.Point{Index: i, X: x, Y: y}
	}

	return points, nil
}

// cumulative returns the running sum of the weights. Entries from the last
// positive weight onward are pinned to 1 so a zero-weight tail is never picked.
func (s *System) cumulative() []float64 {
	cdf := make([]float64, len(s.Weights))
	sum := 0.0
	for i, p := range s.Weights {
		sum += p
		cdf[i] = sum
	}
	last := len(cdf) - 1
	for last > 0 && s.Weights[last] == 0 {
		last--
	}
	for i := last; i < len(cdf); i++ {
		cdf[i] = 1
	}
	return cdf
}

func pick(cdf []float64, u float64) int {
	for i, c := range cdf {
		if u < c {
			return i
		}
	}
	return len(cdf) - 1
}

// Generate runs the triangle game with weights (p1, p2, 1-p1-p2) and ratios
// (r1, r2, r3).
func Generate(rng Source, n int, p1, p2, r1, r2, r3 float64) (fractal.PointSequence, error) {
	s, err := Triangle(p1, p2, r1, r2, r3)
	if err != nil {
		return nil, err
	}
	return s.Generate(rng, n)
}
