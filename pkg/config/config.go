// Package config loads potatocam job files. A job file is YAML; any field it
// leaves out keeps its value from Default.
//
//	tolerance: 1e-9
//	weld: 0.001
//	ground: true
//	tool_radius: 3
//	arc_step: 10
//	mesh_cells: 200
//	log_level: info
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thatch/potatocam/pkg/features"
	"github.com/thatch/potatocam/pkg/kernel/sdfx"
	"github.com/thatch/potatocam/pkg/tessellate"
)

// Config holds the tunables of one run.
type Config struct {
	// Tolerance is the fold tolerance of the feature extractor.
	Tolerance float64 `yaml:"tolerance"`
	// Weld merges script-rendered vertices closer than this distance.
	Weld float64 `yaml:"weld"`
	// Ground translates loaded meshes so that their lowest point is z=0.
	Ground     bool    `yaml:"ground"`
	ToolRadius float64 `yaml:"tool_radius"`
	// ArcStep is the widest chord, in degrees, used when arcs are written
	// as line strings.
	ArcStep   float64 `yaml:"arc_step"`
	MeshCells int     `yaml:"mesh_cells"`
	LogLevel  string  `yaml:"log_level"`
}

// Default returns the settings used when no job file is given.
func Default() Config {
	return Config{
		Tolerance:  features.DefaultTolerance,
		Weld:       tessellate.DefaultWeldTolerance,
		ToolRadius: 3,
		ArcStep:    10,
		MeshCells:  sdfx.DefaultMeshCells,
		LogLevel:   "warn",
	}
}

// Load reads and validates the job file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%w (in %s)", err, path)
	}
	return c, nil
}

// Parse decodes a job file from r over Default and validates the result.
// Unknown keys are an error. An empty document yields Default.
func Parse(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every out-of-range field.
func (c Config) Validate() error {
	var errs []error
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("config: tolerance must not be negative, got %g", c.Tolerance))
	}
	if c.Weld < 0 {
		errs = append(errs, fmt.Errorf("config: weld must not be negative, got %g", c.Weld))
	}
	if c.ToolRadius < 0 {
		errs = append(errs, fmt.Errorf("config: tool_radius must not be negative, got %g", c.ToolRadius))
	}
	if c.ArcStep <= 0 || c.ArcStep > 90 {
		errs = append(errs, fmt.Errorf("config: arc_step must be in (0, 90], got %g", c.ArcStep))
	}
	if c.MeshCells < 8 {
		errs = append(errs, fmt.Errorf("config: mesh_cells must be at least 8, got %d", c.MeshCells))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}
