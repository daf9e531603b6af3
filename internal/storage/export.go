package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/fracdim/internal/fractal"
)

type ExportData struct {
	Run   RunMetadata `json:"run"`
	Index []int       `json:"index"`
	X     []float64   `json:"x"`
	Y     []float64   `json:"y"`
}

// ExportJSON writes the run metadata with the points as columns.
func ExportJSON(w io.Writer, meta RunMetadata, points fractal.PointSequence) error {
	xs, ys := points.Coords()
	data := ExportData{
		Run:   meta,
		Index: make([]int, len(points)),
		X:     xs,
		Y:     ys,
	}
	for i, p := range points {
		data.Index[i] = p.Index
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
