package config

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fracdim/internal/chaos"
	"github.com/san-kum/fracdim/internal/fractal"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Points != 100000 {
		t.Errorf("expected 100000 points, got %d", cfg.Points)
	}
	if cfg.R1 != 0.5 || cfg.R2 != 0.5 || cfg.R3 != 0.5 {
		t.Errorf("expected ratios of 1/2, got %v", cfg.Ratios())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	sizes, err := cfg.BoxSizes(nil)
	if err != nil {
		t.Fatalf("box sizes: %v", err)
	}
	if len(sizes) != 30 {
		t.Errorf("expected 30 box sizes, got %d", len(sizes))
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Points = 1234
	cfg.P1 = 0.6
	cfg.R3 = 0.25
	cfg.Seed = 42
	cfg.Boxes.Relative = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("points: 500\nr2: 0.3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Points != 500 || cfg.R2 != 0.3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.R1 != DefaultR || cfg.Boxes.Count != 30 || cfg.Solver.Tolerance != 1e-6 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("points: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no points", func(c *Config) { c.Points = 0 }},
		{"negative p1", func(c *Config) { c.P1 = -0.2 }},
		{"p sum above one", func(c *Config) { c.P1, c.P2 = 0.7, 0.7 }},
		{"one box", func(c *Config) { c.Boxes.Count = 1 }},
		{"inverted range", func(c *Config) { c.Boxes.MinExp, c.Boxes.MaxExp = 0, -4 }},
		{"relative without decades", func(c *Config) { c.Boxes.Relative, c.Boxes.Decades = true, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, fractal.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRelativeBoxSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boxes.Relative = true
	cfg.Boxes.Decades = 2
	cfg.Boxes.Count = 5

	seq, err := chaos.Generate(rand.New(rand.NewSource(1)), 2000, 1, 0, 0.5, 0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	sizes, err := cfg.BoxSizes(seq)
	if err != nil {
		t.Fatalf("box sizes: %v", err)
	}
	extent := seq.Bounds().Extent()
	if sizes[len(sizes)-1] > extent*(1+1e-9) {
		t.Errorf("largest size %g exceeds extent %g", sizes[len(sizes)-1], extent)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("dust")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.R1 != 0.3 {
		t.Errorf("expected r1 0.3, got %f", cfg.R1)
	}
	if cfg.Boxes.Count != 30 {
		t.Error("preset should inherit default box settings")
	}

	cfg.R1 = 0.9
	if GetPreset("dust").R1 != 0.3 {
		t.Error("mutating a returned preset changed the table")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestParseQuery(t *testing.T) {
	cfg, err := ParseQuery("?num_points=5000.0&p1=0.5&p2=0.25&r1=0.3&r2=0.4&r3=0.6&seed=9", DefaultConfig())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Points != 5000 || cfg.P1 != 0.5 || cfg.P2 != 0.25 {
		t.Errorf("unexpected params: %+v", cfg)
	}
	if cfg.R1 != 0.3 || cfg.R2 != 0.4 || cfg.R3 != 0.6 || cfg.Seed != 9 {
		t.Errorf("unexpected params: %+v", cfg)
	}

	again, err := ParseQuery(cfg.Query(), DefaultConfig())
	if err != nil {
		t.Fatalf("parse of rendered query failed: %v", err)
	}
	if *again != *cfg {
		t.Errorf("query round trip mismatch:\n got %+v\nwant %+v", again, cfg)
	}
}

func TestParseQueryErrors(t *testing.T) {
	base := DefaultConfig()
	for _, raw := range []string{"p1=abc", "bogus=1", "seed=1.5", "num_points=x"} {
		if _, err := ParseQuery(raw, base); err == nil {
			t.Errorf("%q: expected error", raw)
		}
	}
	if base.P1 != DefaultP {
		t.Error("ParseQuery mutated its base config")
	}
}

func TestParseQueryPointCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"num_points=1e5", 100000, true},
		{"points=1", 1, true},
		{"num_points=2.7", 0, false},
		{"num_points=1e30", 0, false},
		{"num_points=0", 0, false},
		{"num_points=-5", 0, false},
		{"num_points=NaN", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg, err := ParseQuery(tt.raw, DefaultConfig())
			if !tt.ok {
				if !errors.Is(err, fractal.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				var pe *fractal.ParamError
				if !errors.As(err, &pe) || pe.Param != "num_points" && pe.Param != "points" {
					t.Errorf("error should name the count param: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if cfg.Points != tt.want {
				t.Errorf("points = %d, want %d", cfg.Points, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"debug", "DEBUG"},
		{"WARNING", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in).String(); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.in, got, tt.expected)
		}
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, ParseLogLevel("info"))

	logger.Debug("hidden")
	logger.Info("generated", "points", 10)

	if strings.Contains(stderr.String(), "hidden") {
		t.Error("debug record should be filtered")
	}
	if !strings.Contains(stderr.String(), "points=10") {
		t.Errorf("text handler output missing attrs: %q", stderr.String())
	}
	if !strings.Contains(file.String(), `"points":10`) {
		t.Errorf("json handler output missing attrs: %q", file.String())
	}
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fracdim.log")
	logger, cleanup := SetupLogger(path, ParseLogLevel("debug"))
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestLogSettings(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFile, "")

	level, file := LogSettings("info", "default.log")
	if level.String() != "DEBUG" {
		t.Errorf("expected DEBUG from env, got %s", level)
	}
	if file != "default.log" {
		t.Errorf("expected default file, got %q", file)
	}
}
