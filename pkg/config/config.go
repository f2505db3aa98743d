// Package config loads lotline settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/lotline/pkg/buildable"
	"github.com/chazu/lotline/pkg/footprint"
	"github.com/chazu/lotline/pkg/units"
)

// Config holds every tunable of the pipeline and the CLI.
type Config struct {
	Kernel        string    `yaml:"kernel"`         // geometry backend: polyclip or geos
	QuadSegs      int       `yaml:"quad_segs"`      // arc segments per quarter circle when buffering
	UnitPolicy    string    `yaml:"unit_policy"`    // per_segment or first_distinct
	DefaultUnit   string    `yaml:"default_unit"`   // unit for untagged setbacks, "" to require tags
	AreaTolerance float64   `yaml:"area_tolerance"` // relative tolerance for equal-area candidates
	AssumePlanar  bool      `yaml:"assume_planar"`  // skip the lon/lat coordinate heuristic
	FitCell       float64   `yaml:"fit_cell"`       // raster cell size for footprint checks
	FitRotations  []float64 `yaml:"fit_rotations"`  // rotations tried by footprint checks, degrees
	Workers       int       `yaml:"workers"`        // parcels computed in parallel
	EvalTimeout   string    `yaml:"eval_timeout"`   // limit for one zoning expression
	MetricsFile   string    `yaml:"metrics_file"`   // Prometheus textfile output, "" to disable
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Kernel:        "polyclip",
		QuadSegs:      1,
		UnitPolicy:    units.PerSegment.String(),
		AreaTolerance: 1e-9,
		FitCell:       footprint.DefaultCell,
		FitRotations:  footprint.DefaultRotations(),
		Workers:       1,
		EvalTimeout:   "5s",
	}
}

// Load reads the YAML file at path over the defaults. Environment
// variables in the file are expanded. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Kernel = strings.ToLower(strings.TrimSpace(c.Kernel))
	c.UnitPolicy = strings.ToLower(strings.TrimSpace(c.UnitPolicy))
	c.DefaultUnit = strings.TrimSpace(c.DefaultUnit)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Kernel == "" {
		errs = append(errs, errors.New("kernel must be set"))
	}
	if c.QuadSegs < 1 {
		errs = append(errs, fmt.Errorf("quad_segs must be at least 1, got %d", c.QuadSegs))
	}
	if _, err := units.ParsePolicy(c.UnitPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.DefaultUnit != "" {
		if _, err := units.Canonical(c.DefaultUnit); err != nil {
			errs = append(errs, fmt.Errorf("default_unit: %w", err))
		}
	}
	if c.AreaTolerance < 0 || c.AreaTolerance >= 1 {
		errs = append(errs, fmt.Errorf("area_tolerance must be in [0, 1), got %v", c.AreaTolerance))
	}
	if c.FitCell <= 0 {
		errs = append(errs, fmt.Errorf("fit_cell must be positive, got %v", c.FitCell))
	}
	if len(c.FitRotations) == 0 {
		errs = append(errs, errors.New("fit_rotations must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if d, err := time.ParseDuration(c.EvalTimeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("eval_timeout must be a positive duration, got %q", c.EvalTimeout))
	}
	return errors.Join(errs...)
}

// Buildable returns the pipeline configuration. c must be valid.
func (c *Config) Buildable() buildable.Config {
	policy, _ := units.ParsePolicy(c.UnitPolicy)
	return buildable.Config{
		QuadSegs:      c.QuadSegs,
		UnitPolicy:    policy,
		DefaultUnit:   c.DefaultUnit,
		AreaTolerance: c.AreaTolerance,
		AssumePlanar:  c.AssumePlanar,
	}
}

// Timeout returns the parsed eval_timeout. c must be valid.
func (c *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.EvalTimeout)
	return d
}
