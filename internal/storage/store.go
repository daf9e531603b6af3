package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/fracdim/internal/fractal"
)

const (
	metadataFile = "metadata.json"
	pointsFile   = "points.csv"
)

// ErrNotFound indicates a run ID with no metadata on disk.
var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a stored run. CriticalExponent is nil when the
// solver failed.
type RunMetadata struct {
	ID               string    `json:"id"`
	Label            string    `json:"label"`
	Timestamp        time.Time `json:"timestamp"`
	Seed             int64     `json:"seed"`
	Points           int       `json:"points"`
	P1               float64   `json:"p1"`
	P2               float64   `json:"p2"`
	R1               float64   `json:"r1"`
	R2               float64   `json:"r2"`
	R3               float64   `json:"r3"`
	BoxDimension     float64   `json:"box_dimension"`
	CriticalExponent *float64  `json:"critical_exponent,omitempty"`
	BoxSizes         []float64 `json:"box_sizes,omitempty"`
	BoxCounts        []int     `json:"box_counts,omitempty"`
	Errors           []string  `json:"errors,omitempty"`
	ElapsedMs        float64   `json:"elapsed_ms"`
}

// Save writes meta and points under a fresh run ID and returns the ID.
// meta.ID and meta.Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, points fractal.PointSequence) (string, error) {
	label := meta.Label
	if label == "" {
		label = "custom"
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%s", label, uuid.NewString()[:8])
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Points = len(points)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, pointsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, points); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadPoints(runID string) (fractal.PointSequence, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, pointsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}

// WriteCSV writes an index,x,y header followed by one row per point.
func WriteCSV(w io.Writer, points fractal.PointSequence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "x", "y"}); err != nil {
		return err
	}
	row := make([]string, 3)
	for _, p := range points {
		row[0] = strconv.Itoa(p.Index)
		row[1] = strconv.FormatFloat(p.X, 'g', -1, 64)
		row[2] = strconv.FormatFloat(p.Y, 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses output of WriteCSV. Malformed rows are an error.
func ReadCSV(r io.Reader) (fractal.PointSequence, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return fractal.PointSequence{}, nil
		}
		return nil, err
	}

	points := make(fractal.PointSequence, 0)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		idx, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: index: %w", line, err)
		}
		x, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: x: %w", line, err)
		}
		y, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: y: %w", line, err)
		}
		points = append(points, fractal.Point{Index: idx, X: x, Y: y})
	}
	return points, nil
}
