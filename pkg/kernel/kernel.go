// Package kernel defines the abstract 2D geometry kernel interface.
// Implementations (polyclip, geos) provide buffering, polygonization and
// boolean operations behind this interface. The kernel abstraction allows
// swapping geometry engines without changing the buildable-area pipeline.
package kernel

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Geometry is an opaque handle to a kernel geometry: linework or a
// (multi)polygon. Implementations wrap their internal representation.
type Geometry interface {
	// Area returns the planar area. Linework has zero area.
	Area() float64

	// Bound returns the axis-aligned bounding box.
	Bound() orb.Bound

	// IsEmpty reports whether the geometry has no coordinates.
	IsEmpty() bool
}

// Kernel is the abstract geometry kernel interface.
// All operations are pure; inputs are never mutated.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Constructors
	Line(ls orb.LineString) Geometry
	Polygon(p orb.Polygon) Geometry

	// Polygonize nodes the given linework and assembles every closed
	// face into a polygon. It returns an empty geometry when no ring closes.
	Polygonize(lines []Geometry) (Geometry, error)

	// Buffer expands g by distance. quadSegs is the number of straight
	// segments used to approximate a quarter circle.
	Buffer(g Geometry, distance float64, quadSegs int) Geometry

	// Boolean operations
	Union(gs ...Geometry) Geometry
	Intersection(a, b Geometry) Geometry
	SymDifference(a, b Geometry) Geometry

	// MakeValid repairs self-intersections and degenerate rings.
	MakeValid(g Geometry) Geometry

	// Parts splits a polygonal geometry into its simple polygons.
	Parts(g Geometry) []Geometry

	// PointOnSurface returns a point guaranteed to lie in the interior of g.
	PointOnSurface(g Geometry) (orb.Point, bool)

	// MultiPolygon exports the polygonal content of g.
	MultiPolygon(g Geometry) (orb.MultiPolygon, error)
}

// Factory constructs a kernel backend.
type Factory func() (Kernel, error)

var registry = map[string]Factory{}

// Register makes a backend available to ByName. Backends call it from init.
func Register(name string, f Factory) {
	registry[name] = f
}

// ByName constructs the backend registered under name.
func ByName(name string) (Kernel, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("kernel: unknown backend %q", name)
	}
	return f()
}
