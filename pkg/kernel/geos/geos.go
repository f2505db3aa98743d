//go:build geos

// Package geos provides a CGo-based geometry kernel binding to GEOS through
// github.com/twpayne/go-geos. It is the exact reference backend: buffering,
// polygonization and validity repair are delegated to GEOS itself.
//
// This package requires the GEOS C library (libgeos_c) to be installed.
// Build with: go build -tags=geos
package geos

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"

	"github.com/chazu/lotline/pkg/kernel"
)

// Name is the registry name of this backend.
const Name = "geos"

func init() {
	kernel.Register(Name, New)
}

// Compile-time interface checks.
var _ kernel.Kernel = (*GEOSKernel)(nil)
var _ kernel.Geometry = (*geosGeometry)(nil)

// geosGeometry wraps a GEOS geometry and implements kernel.Geometry.
type geosGeometry struct {
	g *geos.Geom
}

func (s *geosGeometry) Area() float64 { return s.g.Area() }

func (s *geosGeometry) Bound() orb.Bound {
	if s.g.IsEmpty() {
		return orb.Bound{}
	}
	b := s.g.Bounds()
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

func (s *geosGeometry) IsEmpty() bool { return s.g.IsEmpty() }

// GEOSKernel implements kernel.Kernel using the GEOS C library. The
// underlying context serialises calls, so one kernel may be shared
// between goroutines.
type GEOSKernel struct {
	ctx *geos.Context
}

// New creates a GEOS kernel with its own context.
func New() (kernel.Kernel, error) {
	return &GEOSKernel{ctx: geos.NewContext()}, nil
}

func (k *GEOSKernel) Name() string { return Name }

func (k *GEOSKernel) wrap(g *geos.Geom) kernel.Geometry {
	return &geosGeometry{g: g}
}

func (k *GEOSKernel) empty() kernel.Geometry {
	return k.wrap(k.ctx.NewEmptyCollection(geos.TypeIDGeometryCollection))
}

// Line creates a GEOS linestring.
func (k *GEOSKernel) Line(ls orb.LineString) kernel.Geometry {
	if len(ls) < 2 {
		return k.empty()
	}
	return k.wrap(k.ctx.NewLineString(coords(ls)))
}

// Polygon creates a GEOS polygon from closed rings.
func (k *GEOSKernel) Polygon(p orb.Polygon) kernel.Geometry {
	if len(p) == 0 {
		return k.empty()
	}
	rings := make([][][]float64, len(p))
	for i, r := range p {
		rings[i] = coords(orb.LineString(r))
	}
	return k.wrap(k.ctx.NewPolygon(rings))
}

// Polygonize unions (and thereby nodes) the linework, then polygonizes it.
// Collections take ownership of their members, so inputs are cloned.
func (k *GEOSKernel) Polygonize(gs []kernel.Geometry) (kernel.Geometry, error) {
	if len(gs) == 0 {
		return k.empty(), nil
	}
	parts := make([]*geos.Geom, len(gs))
	for i, g := range gs {
		s, ok := g.(*geosGeometry)
		if !ok {
			return nil, fmt.Errorf("geos: polygonize input %d: foreign geometry %T", i, g)
		}
		parts[i] = s.g.Clone()
	}
	noded := k.ctx.NewCollection(geos.TypeIDGeometryCollection, parts).UnaryUnion()
	if noded == nil {
		return nil, errors.New("geos: union of linework failed")
	}
	return k.wrap(k.ctx.Polygonize([]*geos.Geom{noded})), nil
}

func (k *GEOSKernel) Buffer(g kernel.Geometry, distance float64, quadSegs int) kernel.Geometry {
	return k.wrap(g.(*geosGeometry).g.Buffer(distance, quadSegs))
}

func (k *GEOSKernel) Union(gs ...kernel.Geometry) kernel.Geometry {
	if len(gs) == 0 {
		return k.empty()
	}
	parts := make([]*geos.Geom, len(gs))
	for i, g := range gs {
		parts[i] = g.(*geosGeometry).g.Clone()
	}
	return k.wrap(k.ctx.NewCollection(geos.TypeIDGeometryCollection, parts).UnaryUnion())
}

func (k *GEOSKernel) Intersection(a, b kernel.Geometry) kernel.Geometry {
	return k.wrap(a.(*geosGeometry).g.Intersection(b.(*geosGeometry).g))
}

func (k *GEOSKernel) SymDifference(a, b kernel.Geometry) kernel.Geometry {
	return k.wrap(a.(*geosGeometry).g.SymDifference(b.(*geosGeometry).g))
}

func (k *GEOSKernel) MakeValid(g kernel.Geometry) kernel.Geometry {
	return k.wrap(g.(*geosGeometry).g.MakeValid())
}

// Parts flattens collections and multipolygons into single polygons.
// Non-polygonal members are dropped.
func (k *GEOSKernel) Parts(g kernel.Geometry) []kernel.Geometry {
	var out []kernel.Geometry
	var walk func(*geos.Geom)
	walk = func(x *geos.Geom) {
		switch x.TypeID() {
		case geos.TypeIDPolygon:
			if !x.IsEmpty() {
				out = append(out, k.wrap(x.Clone()))
			}
		case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
			for i := 0; i < x.NumGeometries(); i++ {
				walk(x.Geometry(i))
			}
		}
	}
	walk(g.(*geosGeometry).g)
	return out
}

func (k *GEOSKernel) PointOnSurface(g kernel.Geometry) (orb.Point, bool) {
	s := g.(*geosGeometry)
	if s.g.IsEmpty() {
		return orb.Point{}, false
	}
	p := s.g.PointOnSurface()
	if p == nil || p.IsEmpty() {
		return orb.Point{}, false
	}
	return orb.Point{p.X(), p.Y()}, true
}

func (k *GEOSKernel) MultiPolygon(g kernel.Geometry) (orb.MultiPolygon, error) {
	if _, ok := g.(*geosGeometry); !ok {
		return nil, fmt.Errorf("geos: foreign geometry %T", g)
	}
	parts := k.Parts(g)
	mp := make(orb.MultiPolygon, 0, len(parts))
	for _, part := range parts {
		x := part.(*geosGeometry).g
		p := orb.Polygon{ring(x.ExteriorRing())}
		for i := 0; i < x.NumInteriorRings(); i++ {
			p = append(p, ring(x.InteriorRing(i)))
		}
		mp = append(mp, kernel.Orient(p))
	}
	return mp, nil
}

func coords(ls orb.LineString) [][]float64 {
	out := make([][]float64, len(ls))
	for i, p := range ls {
		out[i] = []float64{p[0], p[1]}
	}
	return out
}

func ring(g *geos.Geom) orb.Ring {
	cs := g.CoordSeq().ToCoords()
	r := make(orb.Ring, len(cs))
	for i, c := range cs {
		r[i] = orb.Point{c[0], c[1]}
	}
	return r
}
