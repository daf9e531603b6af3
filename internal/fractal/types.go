package fractal

import (
	"fmt"
	"math"
)

// sumTolerance absorbs rounding in probabilities entered as decimals.
const sumTolerance = 1e-12

type Vertex struct {
	X, Y float64
}

// TriangleVertices are the corners used by the triangle chaos game.
// Index i pairs with weight p(i+1) and ratio r(i+1).
var TriangleVertices = []Vertex{{0, 0}, {0, 1}, {1, 0}}

type Point struct {
	Index int
	X, Y  float64
}

type PointSequence []Point

func (s PointSequence) Len() int { return len(s) }

// Valid reports whether every coordinate is finite.
func (s PointSequence) Valid() bool {
	for _, p := range s {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// IndicesContiguous reports whether the indices run 0..len-1 in order.
func (s PointSequence) IndicesContiguous() bool {
	for i, p := range s {
		if p.Index != i {
			return false
		}
	}
	return true
}

// Coords splits the sequence into x and y columns.
func (s PointSequence) Coords() (xs, ys []float64) {
	xs = make([]float64, len(s))
	ys = make([]float64, len(s))
	for i, p := range s {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Extent returns the longer side of the box.
func (b Bounds) Extent() float64 {
	return math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
}

// Bounds returns the axis-aligned bounding box. The zero Bounds is returned
// for an empty sequence.
func (s PointSequence) Bounds() Bounds {
	if len(s) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: s[0].X, MaxX: s[0].X, MinY: s[0].Y, MaxY: s[0].Y}
	for _, p := range s[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// Weights are vertex selection probabilities.
type Weights []float64

// NewTriangleWeights derives p3 = 1 - p1 - p2 and validates the triple.
func NewTriangleWeights(p1, p2 float64) (Weights, error) {
	p3 := 1 - p1 - p2
	if p3 < 0 && p3 > -sumTolerance {
		p3 = 0
	}
	if p3 < 0 {
		return nil, Invalid("p1+p2", p1+p2, "must not exceed 1")
	}
	w := Weights{p1, p2, p3}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate checks that every weight is finite and non-negative and that the
// weights sum to one.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return Invalid("weights", 0, "no weights given")
	}
	sum := 0.0
	for i, p := range w {
		name := fmt.Sprintf("p%d", i+1)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Invalid(name, p, "must be finite")
		}
		if p < 0 {
			return Invalid(name, p, "must be non-negative")
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		return Invalid("sum(p)", sum, "probabilities must sum to 1")
	}
	return nil
}

// Ratios are per-vertex contraction ratios. r=1 keeps the point in place,
// r=0 jumps onto the vertex.
type Ratios []float64

// Validate rejects non-finite ratios. Values outside (0,1] are accepted.
func (r Ratios) Validate() error {
	if len(r) == 0 {
		return Invalid("ratios", 0, "no ratios given")
	}
	for i, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Invalid(fmt.Sprintf("r%d", i+1), v, "must be finite")
		}
	}
	return nil
}

// Contracting reports whether every ratio lies in (0,1].
func (r Ratios) Contracting() bool {
	for _, v := range r {
		if !(v > 0 && v <= 1) {
			return false
		}
	}
	return len(r) > 0
}
