// Package buildable computes the legally buildable footprint of a parcel.
//
// The pipeline runs three stages in order:
//
//  1. Assemble: polygonize the boundary segments into the parcel polygon.
//  2. Erode: buffer every setback-bearing segment by its distance in meters
//     and union the buffers into the excluded region.
//  3. Select: split parcel XOR excluded into simple polygons and keep the
//     largest piece that lies inside the parcel.
//
// All geometry goes through a kernel.Kernel, so the backend can be swapped.
package buildable

import (
	"errors"

	"github.com/chazu/lotline/pkg/units"
)

var (
	// ErrMalformedBoundary is returned when the segments do not close into
	// exactly one ring.
	ErrMalformedBoundary = errors.New("malformed boundary")

	// ErrNoBuildableArea is returned when no piece of the eroded parcel
	// lies inside the parcel.
	ErrNoBuildableArea = errors.New("no buildable area")
)

// Stage names used in logs and metrics.
const (
	StageValidate = "validate"
	StageAssemble = "assemble"
	StageErode    = "erode"
	StageSelect   = "select"
)

// Config tunes the pipeline.
type Config struct {
	// QuadSegs is the number of straight segments per quarter circle
	// used when buffering. 1 gives the coarse hexagonal caps the
	// reference data was produced with.
	QuadSegs int

	// UnitPolicy decides how segment unit tags are resolved.
	UnitPolicy units.Policy

	// DefaultUnit applies when no segment declares a unit. Empty means
	// a missing unit is an error.
	DefaultUnit string

	// AreaTolerance is the relative tolerance within which candidate
	// pieces count as equally large.
	AreaTolerance float64

	// AssumePlanar skips the longitude/latitude heuristic for boundaries
	// without a declared CRS.
	AssumePlanar bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		QuadSegs:      1,
		UnitPolicy:    units.PerSegment,
		AreaTolerance: 1e-9,
	}
}
