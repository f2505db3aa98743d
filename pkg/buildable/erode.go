package buildable

import (
	"errors"
	"fmt"

	"github.com/chazu/lotline/pkg/kernel"
	"github.com/chazu/lotline/pkg/parcel"
	"github.com/chazu/lotline/pkg/units"
)

// Distances returns every segment's setback in meters, resolving units with
// cfg.UnitPolicy. Segments without a setback get -1.
func Distances(b parcel.Boundary, cfg Config) ([]float64, error) {
	tags := make([]units.Tag, len(b.Segments))
	for i, s := range b.Segments {
		tags[i] = units.Tag{Unit: s.Unit, HasSetback: s.HasSetback()}
	}
	resolved, err := units.Resolve(tags, cfg.UnitPolicy, cfg.DefaultUnit)
	if err != nil {
		return nil, fmt.Errorf("parcel %q: %w", b.ID, err)
	}

	out := make([]float64, len(b.Segments))
	for i, s := range b.Segments {
		if !s.HasSetback() {
			out[i] = -1
			continue
		}
		m, err := units.ToMeters(*s.Setback, resolved[i])
		if err != nil {
			return nil, fmt.Errorf("parcel %q segment %d: %w", b.ID, i, err)
		}
		out[i] = m
	}
	return out, nil
}

// Erode returns the excluded region: the union of every setback-bearing
// segment buffered by its distance in meters. Segments without a setback
// and zero setbacks contribute nothing; the result may be empty.
func Erode(k kernel.Kernel, b parcel.Boundary, cfg Config) (kernel.Geometry, error) {
	dist, err := Distances(b, cfg)
	if err != nil {
		return nil, err
	}

	var buffers []kernel.Geometry
	for i, s := range b.Segments {
		if dist[i] <= 0 {
			continue
		}
		buffers = append(buffers, k.Buffer(k.Line(s.Geometry), dist[i], cfg.QuadSegs))
	}
	return k.Union(buffers...), nil
}

func isUnitError(err error) bool {
	return errors.Is(err, units.ErrAmbiguousUnits) ||
		errors.Is(err, units.ErrMissingUnit) ||
		errors.Is(err, units.ErrUnknownUnit)
}
