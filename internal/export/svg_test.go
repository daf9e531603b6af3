package export

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/fracdim/internal/fractal"
)

func TestPointsToSVG(t *testing.T) {
	points := fractal.PointSequence{
		{Index: 0, X: 0, Y: 0},
		{Index: 1, X: 1, Y: 0},
		{Index: 2, X: 0, Y: 1},
		{Index: 3, X: 0, Y: 1},
	}

	var buf bytes.Buffer
	if err := PointsToSVG(&buf, points, 100, ""); err != nil {
		t.Fatalf("PointsToSVG: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("malformed document:\n%s", out)
	}
	if !strings.Contains(out, `fill="`+DefaultColor+`"`) {
		t.Errorf("default color missing")
	}
	// duplicate (0,1) collapses onto one pixel
	if got := strings.Count(out, `width="1" height="1"`); got != 3 {
		t.Errorf("pixel count = %d, want 3", got)
	}
}

func TestPointsToSVGSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	err := PointsToSVG(&buf, fractal.PointSequence{{X: 0.5, Y: 0.5}}, 10, "#fff")
	if err != nil {
		t.Fatalf("PointsToSVG: %v", err)
	}
	if got := strings.Count(buf.String(), `width="1" height="1"`); got != 1 {
		t.Errorf("pixel count = %d, want 1", got)
	}
}

func TestPointsToSVGColor(t *testing.T) {
	points := fractal.PointSequence{{X: 0.5, Y: 0.5}}
	tests := []struct {
		color string
		ok    bool
	}{
		{"#fff", true},
		{"#1a2B3c", true},
		{"#1a2b3c80", true},
		{"white", true},
		{"#12", false},
		{"red\"/><script>alert(1)</script>", false},
		{"rgb(1,2,3)", false},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			var buf bytes.Buffer
			err := PointsToSVG(&buf, points, 10, tt.color)
			if tt.ok {
				if err != nil {
					t.Fatalf("PointsToSVG: %v", err)
				}
				if !strings.Contains(buf.String(), `fill="`+tt.color+`"`) {
					t.Errorf("color not applied:\n%s", buf.String())
				}
				return
			}
			if !errors.Is(err, fractal.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
			if buf.Len() != 0 {
				t.Errorf("rejected color still wrote output")
			}
		})
	}
}

func TestPointsToSVGInvalid(t *testing.T) {
	tests := []struct {
		name   string
		points fractal.PointSequence
		size   int
	}{
		{"empty", nil, 100},
		{"nan", fractal.PointSequence{{X: math.NaN()}}, 100},
		{"zero size", fractal.PointSequence{{X: 1, Y: 1}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := PointsToSVG(&buf, tt.points, tt.size, "")
			if !errors.Is(err, fractal.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}
