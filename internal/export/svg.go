package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"

	"github.com/san-kum/fracdim/internal/fractal"
)

const (
	DefaultSize  = 800
	DefaultColor = "#00ff00"
)

// colorPattern accepts #rgb, #rrggbb, #rrggbbaa and named colors.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|[a-zA-Z]+)$`)

// PointsToSVG renders points as a scatter plot of size x size pixels. Points
// falling on the same pixel are drawn once, so output size is bounded by the
// pixel count rather than the number of points.
func PointsToSVG(w io.Writer, points fractal.PointSequence, size int, color string) error {
	if len(points) == 0 {
		return fractal.Invalid("points", 0, "no points to render")
	}
	if !points.Valid() {
		return fractal.Invalid("points", math.NaN(), "coordinates must be finite")
	}
	if size < 1 {
		return fractal.Invalid("size", float64(size), "must be at least 1")
	}
	if color == "" {
		color = DefaultColor
	}
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: color %q is not a hex or named color", fractal.ErrInvalidArgument, color)
	}

	b := points.Bounds()
	extent := b.Extent()
	if extent == 0 {
		extent = 1
	}
	// 5% margin on each side, same scale on both axes
	pad := extent * 0.05
	scale := float64(size) / (extent + 2*pad)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="%s">
`, size, size, size, size, color)

	seen := make(map[[2]int]struct{}, len(points))
	for _, p := range points {
		px := int((p.X - b.MinX + pad) * scale)
		py := size - 1 - int((p.Y-b.MinY+pad)*scale)
		px = clamp(px, 0, size-1)
		py = clamp(py, 0, size-1)

		key := [2]int{px, py}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fmt.Fprintf(bw, "<rect x=\"%d\" y=\"%d\" width=\"1\" height=\"1\"/>\n", px, py)
	}

	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
