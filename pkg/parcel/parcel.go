// Package parcel defines the parcel boundary model consumed by the
// buildable-area pipeline and the result it produces.
package parcel

import (
	"strings"

	"github.com/paulmach/orb"
)

// Side labels the role of a boundary segment relative to the street.
type Side string

const (
	SideUnknown  Side = ""
	SideFront    Side = "front"
	SideRear     Side = "rear"
	SideInterior Side = "interior side"
	SideExterior Side = "exterior side"
	SideCentroid Side = "centroid"
)

// ParseSide normalises a side label. Unrecognised labels map to SideUnknown.
func ParseSide(s string) Side {
	norm := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "_", " "))), " ")
	switch Side(norm) {
	case SideFront, SideRear, SideInterior, SideExterior, SideCentroid:
		return Side(norm)
	}
	return SideUnknown
}

// Segment is one piece of a parcel boundary with its setback requirement.
type Segment struct {
	Geometry   orb.LineString `json:"geometry"`
	Setback    *float64       `json:"setback,omitempty"` // nil when the edge carries no setback
	Unit       string         `json:"unit,omitempty"`    // "" when untagged
	Side       Side           `json:"side,omitempty"`
	OnBoundary bool           `json:"on_boundary,omitempty"` // within reach of the district boundary
}

// HasSetback reports whether the segment carries a setback distance.
func (s Segment) HasSetback() bool { return s.Setback != nil }

// Boundary is the ordered segment collection of one parcel.
type Boundary struct {
	ID       string    `json:"parcel_id"`
	Segments []Segment `json:"segments"`
	CRS      string    `json:"crs,omitempty"` // "" when undeclared
}

// HasSetbacks reports whether any segment carries a setback.
func (b Boundary) HasSetbacks() bool {
	for _, s := range b.Segments {
		if s.HasSetback() {
			return true
		}
	}
	return false
}

// Lines returns the segment geometries in order.
func (b Boundary) Lines() []orb.LineString {
	out := make([]orb.LineString, len(b.Segments))
	for i, s := range b.Segments {
		out[i] = s.Geometry
	}
	return out
}

// Bound returns the bounding box of all segments.
func (b Boundary) Bound() orb.Bound {
	var mls orb.MultiLineString
	for _, s := range b.Segments {
		if len(s.Geometry) > 0 {
			mls = append(mls, s.Geometry)
		}
	}
	if len(mls) == 0 {
		return orb.Bound{}
	}
	return mls.Bound()
}

// Sides returns the indices of segments labelled side, in order.
func (b Boundary) Sides(side Side) []int {
	var idx []int
	for i, s := range b.Segments {
		if s.Side == side {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns a deep copy of b.
func (b Boundary) Clone() Boundary {
	out := Boundary{ID: b.ID, CRS: b.CRS, Segments: make([]Segment, len(b.Segments))}
	for i, s := range b.Segments {
		c := s
		c.Geometry = s.Geometry.Clone()
		if s.Setback != nil {
			v := *s.Setback
			c.Setback = &v
		}
		out.Segments[i] = c
	}
	return out
}

// BuildableArea is the legally buildable footprint of a parcel. It is
// computed fresh for every request and never mutated afterwards.
type BuildableArea struct {
	ParcelID string      `json:"parcel_id"`
	Polygon  orb.Polygon `json:"polygon"`
	Area     float64     `json:"area"`

	// Unmodified is set when no segment carried a setback and the polygon
	// is the parcel itself.
	Unmodified bool `json:"unmodified"`
}

// Float returns a pointer to v, for building segments with setbacks.
func Float(v float64) *float64 { return &v }
