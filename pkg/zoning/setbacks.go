package zoning

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/parcel"
	"github.com/chazu/lotline/pkg/units"
)

// sideKeys maps edge labels to the constraint holding their setback.
var sideKeys = map[parcel.Side]string{
	parcel.SideFront:    SetbackFront,
	parcel.SideInterior: SetbackSideInterior,
	parcel.SideExterior: SetbackSideExterior,
	parcel.SideRear:     SetbackRear,
}

// ApplySetbacks returns a copy of b with every edge's setback taken from
// reqs by side label. Unlabelled edges get no setback. When reqs carries
// setback_dist_boundary, edges lying within BoundaryReach of district are
// marked OnBoundary and raised to at least that setback; setback_side_sum
// and setback_front_sum then raise one side or the rear edge until the
// pair meets the required sum. A nil reqs clears every setback.
//
// Range values apply their larger end. The returned warnings describe
// rules that could not be applied.
func ApplySetbacks(b parcel.Boundary, reqs Requirements, district orb.Ring) (parcel.Boundary, []string, error) {
	out := b.Clone()
	var warnings []string

	missingSide := false
	for i := range out.Segments {
		s := &out.Segments[i]
		s.Setback = nil
		s.OnBoundary = false

		key, ok := sideKeys[s.Side]
		if !ok {
			if s.Side == parcel.SideUnknown {
				missingSide = true
			}
			continue
		}
		v, unit, ok := reqs.MinValue(key)
		if !ok {
			continue
		}
		s.Setback = parcel.Float(v.Strictest())
		if unit != "" {
			s.Unit = unit
		}
	}
	if missingSide {
		warnings = append(warnings, "no side label on some edges; their setbacks are not considered")
	}

	if v, unit, ok := reqs.MinValue(SetbackDistBoundary); ok {
		if len(district) < 2 {
			warnings = append(warnings, "setback_dist_boundary needs the district boundary")
		} else if err := applyDistBoundary(&out, district, v.Strictest(), unit); err != nil {
			return parcel.Boundary{}, nil, err
		}
	}

	if v, unit, ok := reqs.MinValue(SetbackSideSum); ok {
		i1, i2, ok := sideSumPair(out)
		if !ok {
			warnings = append(warnings, "setback_side_sum cannot be calculated due to lack of parcel edges")
		} else if err := raiseToSum(&out, i1, i2, v.Strictest(), unit); err != nil {
			return parcel.Boundary{}, nil, err
		}
	}

	if v, unit, ok := reqs.MinValue(SetbackFrontSum); ok {
		fronts, rears := out.Sides(parcel.SideFront), out.Sides(parcel.SideRear)
		if len(fronts) == 0 || len(rears) == 0 {
			warnings = append(warnings, "setback_front_sum cannot be calculated due to missing front or rear edge")
		} else if err := raiseToSum(&out, fronts[0], rears[0], v.Strictest(), unit); err != nil {
			return parcel.Boundary{}, nil, err
		}
	}

	return out, warnings, nil
}

func applyDistBoundary(b *parcel.Boundary, district orb.Ring, dist float64, unit string) error {
	idx := newBoundaryIndex(district, BoundaryReach)
	for i := range b.Segments {
		s := &b.Segments[i]
		s.OnBoundary = idx.within(s.Geometry)
		if !s.OnBoundary || s.Setback == nil {
			continue
		}
		d, err := convert(dist, unit, s.Unit)
		if err != nil {
			return fmt.Errorf("%s: %w", SetbackDistBoundary, err)
		}
		s.Setback = parcel.Float(math.Max(*s.Setback, d))
	}
	return nil
}

// sideSumPair picks the two side edges the side sum applies to: an
// exterior and an interior side when both exist, otherwise the first two
// of one kind. The second index is the one that gets raised.
func sideSumPair(b parcel.Boundary) (int, int, bool) {
	ints, exts := b.Sides(parcel.SideInterior), b.Sides(parcel.SideExterior)
	switch {
	case len(exts) > 0 && len(ints) > 0:
		return exts[0], ints[0], true
	case len(ints) >= 2:
		return ints[0], ints[1], true
	case len(exts) >= 2:
		return exts[0], exts[1], true
	}
	return 0, 0, false
}

// raiseToSum increases the setback of edge i2 so that the setbacks of i1
// and i2 add up to at least sum. Missing setbacks count as zero.
func raiseToSum(b *parcel.Boundary, i1, i2 int, sum float64, unit string) error {
	s1, s2 := &b.Segments[i1], &b.Segments[i2]

	v1, err := setbackIn(*s1, unit)
	if err != nil {
		return err
	}
	v2, err := setbackIn(*s2, unit)
	if err != nil {
		return err
	}
	short := sum - (v1 + v2)
	if short <= 0 && s2.Setback != nil {
		return nil
	}
	raised := v2 + math.Max(short, 0)

	if s2.Unit == "" {
		s2.Unit = unit
	}
	r, err := convert(raised, unit, s2.Unit)
	if err != nil {
		return err
	}
	s2.Setback = parcel.Float(r)
	return nil
}

// setbackIn returns the setback of s expressed in unit, zero when unset.
func setbackIn(s parcel.Segment, unit string) (float64, error) {
	if s.Setback == nil {
		return 0, nil
	}
	return convert(*s.Setback, s.Unit, unit)
}

// convert re-expresses v from one unit to another. An empty unit on
// either side means the value is taken as is.
func convert(v float64, from, to string) (float64, error) {
	if from == "" || to == "" || from == to {
		return v, nil
	}
	m, err := units.ToMeters(v, from)
	if err != nil {
		return 0, err
	}
	per, err := units.ToMeters(1, to)
	if err != nil {
		return 0, err
	}
	return m / per, nil
}
