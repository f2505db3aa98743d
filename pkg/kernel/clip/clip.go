// Package clip provides the default pure-Go geometry kernel. Boolean
// operations use Martinez polygon clipping from polyclip-go when the
// operands are in general position, and a noding overlay built on the
// polygonizer when rings touch. Buffering, polygonization and ring nesting
// use planar math from orb.
package clip

import (
	"fmt"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chazu/lotline/pkg/kernel"
)

// Name is the registry name of this backend.
const Name = "polyclip"

func init() {
	kernel.Register(Name, New)
}

// Compile-time interface checks.
var _ kernel.Kernel = (*Kernel)(nil)
var _ kernel.Geometry = (*shape)(nil)

// shape holds linework and polygons. Polygons are always oriented (CCW
// shells, CW holes) and non-overlapping after any boolean operation.
type shape struct {
	lines orb.MultiLineString
	polys orb.MultiPolygon
}

func (s *shape) Area() float64 {
	return kernel.MultiPolygonArea(s.polys)
}

func (s *shape) Bound() orb.Bound {
	var b orb.Bound
	first := true
	extend := func(nb orb.Bound) {
		if first {
			b, first = nb, false
			return
		}
		b = b.Union(nb)
	}
	if len(s.lines) > 0 {
		extend(s.lines.Bound())
	}
	if len(s.polys) > 0 {
		extend(s.polys.Bound())
	}
	return b
}

func (s *shape) IsEmpty() bool {
	return len(s.lines) == 0 && len(s.polys) == 0
}

// Kernel implements kernel.Kernel with polyclip-go.
type Kernel struct{}

// New creates a polyclip kernel. It never fails.
func New() (kernel.Kernel, error) {
	return &Kernel{}, nil
}

func (k *Kernel) Name() string { return Name }

// Line wraps a linestring.
func (k *Kernel) Line(ls orb.LineString) kernel.Geometry {
	if len(ls) == 0 {
		return &shape{}
	}
	return &shape{lines: orb.MultiLineString{ls.Clone()}}
}

// Polygon wraps a polygon, fixing ring orientation.
func (k *Kernel) Polygon(p orb.Polygon) kernel.Geometry {
	if len(p) == 0 {
		return &shape{}
	}
	return &shape{polys: orb.MultiPolygon{kernel.Orient(p)}}
}

// Polygonize nodes all linework (including polygon rings) and returns every
// bounded face.
func (k *Kernel) Polygonize(gs []kernel.Geometry) (kernel.Geometry, error) {
	var lines []orb.LineString
	for i, g := range gs {
		s, ok := g.(*shape)
		if !ok {
			return nil, fmt.Errorf("polyclip: polygonize input %d: foreign geometry %T", i, g)
		}
		lines = append(lines, s.lines...)
		for _, p := range s.polys {
			for _, r := range p {
				lines = append(lines, orb.LineString(r))
			}
		}
	}
	return &shape{polys: polygonize(lines)}, nil
}

// Buffer grows g by distance. Linework is buffered as the union of one
// stadium per segment; polygons additionally include their interior, and a
// negative distance erodes them by subtracting the stadiums of their rings.
func (k *Kernel) Buffer(g kernel.Geometry, distance float64, quadSegs int) kernel.Geometry {
	s := g.(*shape)
	if quadSegs < 1 {
		quadSegs = 1
	}
	d := distance
	if d < 0 {
		d = -d
	}

	var rings []orb.Ring
	if distance != 0 {
		for _, ls := range s.lines {
			if distance > 0 {
				rings = append(rings, lineStadiums(ls, d, quadSegs)...)
			}
		}
		for _, p := range s.polys {
			for _, r := range p {
				rings = append(rings, lineStadiums(orb.LineString(r), d, quadSegs)...)
			}
		}
	}

	edges := unionRings(rings)
	switch {
	case distance > 0:
		return &shape{polys: union(s.polys, edges)}
	case distance < 0:
		return &shape{polys: construct(s.polys, edges, polyclip.DIFFERENCE)}
	default:
		return &shape{polys: clonePolys(s.polys)}
	}
}

// Union merges the polygons of every input. Linework is concatenated, not
// noded; Polygonize does the noding.
func (k *Kernel) Union(gs ...kernel.Geometry) kernel.Geometry {
	out := &shape{}
	for _, g := range gs {
		s := g.(*shape)
		for _, ls := range s.lines {
			out.lines = append(out.lines, ls.Clone())
		}
		out.polys = union(out.polys, s.polys)
	}
	return out
}

func (k *Kernel) Intersection(a, b kernel.Geometry) kernel.Geometry {
	return &shape{polys: construct(a.(*shape).polys, b.(*shape).polys, polyclip.INTERSECTION)}
}

func (k *Kernel) SymDifference(a, b kernel.Geometry) kernel.Geometry {
	return &shape{polys: construct(a.(*shape).polys, b.(*shape).polys, polyclip.XOR)}
}

// MakeValid drops degenerate rings, reassigns shells and holes by nesting
// and merges overlapping polygons. Linework is discarded.
func (k *Kernel) MakeValid(g kernel.Geometry) kernel.Geometry {
	s := g.(*shape)
	var rings []orb.Ring
	for _, p := range s.polys {
		rings = append(rings, p...)
	}
	var out orb.MultiPolygon
	for _, p := range assemble(rings) {
		out = union(out, orb.MultiPolygon{p})
	}
	return &shape{polys: out}
}

func (k *Kernel) Parts(g kernel.Geometry) []kernel.Geometry {
	s := g.(*shape)
	parts := make([]kernel.Geometry, 0, len(s.polys))
	for _, p := range s.polys {
		parts = append(parts, &shape{polys: orb.MultiPolygon{p.Clone()}})
	}
	return parts
}

// PointOnSurface returns an interior point of the largest polygon of g.
func (k *Kernel) PointOnSurface(g kernel.Geometry) (orb.Point, bool) {
	s := g.(*shape)
	best, bestArea := -1, 0.0
	for i, p := range s.polys {
		if a := kernel.PolygonArea(p); a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return orb.Point{}, false
	}
	return kernel.InteriorPoint(s.polys[best])
}

func (k *Kernel) MultiPolygon(g kernel.Geometry) (orb.MultiPolygon, error) {
	s, ok := g.(*shape)
	if !ok {
		return nil, fmt.Errorf("polyclip: foreign geometry %T", g)
	}
	return clonePolys(s.polys), nil
}

// ---------------------------------------------------------------------------
// polyclip conversion
// ---------------------------------------------------------------------------

func toClip(mp orb.MultiPolygon) polyclip.Polygon {
	var out polyclip.Polygon
	for _, p := range mp {
		for _, r := range p {
			if len(r) < 4 {
				continue
			}
			// polyclip contours are implicitly closed.
			c := make(polyclip.Contour, len(r)-1)
			for i, pt := range r[:len(r)-1] {
				c[i] = polyclip.Point{X: pt[0], Y: pt[1]}
			}
			out = append(out, c)
		}
	}
	return out
}

// fromClip rebuilds polygons from polyclip's contours. polyclip does not
// report which contour is a hole, so nesting decides.
func fromClip(p polyclip.Polygon) orb.MultiPolygon {
	rings := make([]orb.Ring, 0, len(p))
	for _, c := range p {
		pts := make([]orb.Point, len(c))
		for i, pt := range c {
			pts[i] = orb.Point{pt.X, pt.Y}
		}
		rings = append(rings, kernel.CloseRing(pts))
	}
	return assemble(rings)
}

func construct(a, b orb.MultiPolygon, op polyclip.Op) orb.MultiPolygon {
	switch {
	case len(a) == 0 && len(b) == 0:
		return nil
	case len(b) == 0:
		if op == polyclip.INTERSECTION {
			return nil
		}
		return clonePolys(a)
	case len(a) == 0:
		if op == polyclip.UNION || op == polyclip.XOR {
			return clonePolys(b)
		}
		return nil
	}
	if !touching(append(ringsOf(a), ringsOf(b)...)) {
		out := fromClip(toClip(a).Construct(op, toClip(b)))
		ma, mb := kernel.MultiPolygonArea(a), kernel.MultiPolygonArea(b)
		if plausible(op, ma, mb, kernel.MultiPolygonArea(out)) {
			return out
		}
	}
	return overlayOp(a, b, op)
}

func union(a, b orb.MultiPolygon) orb.MultiPolygon {
	return construct(a, b, polyclip.UNION)
}

// unionRings merges a set of simple, possibly overlapping rings in one
// overlay pass. Adjacent stadiums share cap vertices and edges.
func unionRings(rings []orb.Ring) orb.MultiPolygon {
	switch len(rings) {
	case 0:
		return nil
	case 1:
		return orb.MultiPolygon{kernel.Orient(orb.Polygon{rings[0]})}
	}
	return overlay(rings, func(p orb.Point) bool {
		for _, r := range rings {
			if planar.RingContains(r, p) {
				return true
			}
		}
		return false
	})
}

func clonePolys(mp orb.MultiPolygon) orb.MultiPolygon {
	if len(mp) == 0 {
		return nil
	}
	return mp.Clone()
}
