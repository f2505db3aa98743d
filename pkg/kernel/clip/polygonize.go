package clip

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Noding
// ---------------------------------------------------------------------------

type segment [2]orb.Point

// nodeSegments splits every segment at the points where it crosses or
// touches another segment, so the result only meets at endpoints.
func nodeSegments(segs []segment, tol float64) []segment {
	cuts := make([][]orb.Point, len(segs))
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			for _, p := range intersections(segs[i], segs[j], tol) {
				cuts[i] = append(cuts[i], p)
				cuts[j] = append(cuts[j], p)
			}
		}
	}

	var out []segment
	for i, s := range segs {
		pts := append([]orb.Point{s[0], s[1]}, cuts[i]...)
		dx, dy := s[1][0]-s[0][0], s[1][1]-s[0][1]
		param := func(p orb.Point) float64 { return (p[0]-s[0][0])*dx + (p[1]-s[0][1])*dy }
		sort.Slice(pts, func(a, b int) bool { return param(pts[a]) < param(pts[b]) })

		prev := pts[0]
		for _, p := range pts[1:] {
			if math.Hypot(p[0]-prev[0], p[1]-prev[1]) <= tol {
				continue
			}
			out = append(out, segment{prev, p})
			prev = p
		}
	}
	return out
}

// intersections returns the points shared by s and t: endpoints of either
// lying on the other, and a proper crossing point.
func intersections(s, t segment, tol float64) []orb.Point {
	var pts []orb.Point
	for _, p := range t {
		if segmentDistance(p, s[0], s[1]) <= tol {
			pts = append(pts, p)
		}
	}
	for _, p := range s {
		if segmentDistance(p, t[0], t[1]) <= tol {
			pts = append(pts, p)
		}
	}
	if p, ok := crossing(s, t); ok {
		pts = append(pts, p)
	}
	return pts
}

// crossing returns the interior intersection point of two non-parallel segments.
func crossing(s, t segment) (orb.Point, bool) {
	rx, ry := s[1][0]-s[0][0], s[1][1]-s[0][1]
	qx, qy := t[1][0]-t[0][0], t[1][1]-t[0][1]
	d := rx*qy - ry*qx
	if d == 0 {
		return orb.Point{}, false
	}
	wx, wy := t[0][0]-s[0][0], t[0][1]-s[0][1]
	ts := (wx*qy - wy*qx) / d
	tt := (wx*ry - wy*rx) / d
	if ts <= 0 || ts >= 1 || tt <= 0 || tt >= 1 {
		return orb.Point{}, false
	}
	return orb.Point{s[0][0] + ts*rx, s[0][1] + ts*ry}, true
}

// ---------------------------------------------------------------------------
// Planar graph
// ---------------------------------------------------------------------------

type halfEdge struct {
	from, to int
	angle    float64
	twin     *halfEdge
	used     bool
}

type planarGraph struct {
	tol    float64
	points []orb.Point
	out    [][]*halfEdge
	seen   map[[2]int]bool
	parent []int // union-find over nodes, for connected components
}

func newPlanarGraph(tol float64) *planarGraph {
	return &planarGraph{tol: tol, seen: make(map[[2]int]bool)}
}

// node returns the index of the node at p, snapping to an existing node
// within tolerance.
func (g *planarGraph) node(p orb.Point) int {
	for i, q := range g.points {
		if math.Hypot(p[0]-q[0], p[1]-q[1]) <= g.tol {
			return i
		}
	}
	g.points = append(g.points, p)
	g.out = append(g.out, nil)
	g.parent = append(g.parent, len(g.parent))
	return len(g.points) - 1
}

func (g *planarGraph) addEdge(u, v int) {
	if u == v {
		return
	}
	key := [2]int{u, v}
	if u > v {
		key = [2]int{v, u}
	}
	if g.seen[key] {
		return
	}
	g.seen[key] = true

	pu, pv := g.points[u], g.points[v]
	e := &halfEdge{from: u, to: v, angle: math.Atan2(pv[1]-pu[1], pv[0]-pu[0])}
	r := &halfEdge{from: v, to: u, angle: math.Atan2(pu[1]-pv[1], pu[0]-pv[0])}
	e.twin, r.twin = r, e
	g.out[u] = append(g.out[u], e)
	g.out[v] = append(g.out[v], r)
	g.union(u, v)
}

func (g *planarGraph) find(i int) int {
	for g.parent[i] != i {
		g.parent[i] = g.parent[g.parent[i]]
		i = g.parent[i]
	}
	return i
}

func (g *planarGraph) union(a, b int) {
	g.parent[g.find(a)] = g.find(b)
}

// pruneDangles removes edges ending at degree-1 nodes until none remain.
// Dangling linework cannot bound a face.
func (g *planarGraph) pruneDangles() {
	for changed := true; changed; {
		changed = false
		for n, edges := range g.out {
			if len(edges) != 1 {
				continue
			}
			e := edges[0]
			g.out[n] = nil
			g.out[e.to] = removeEdge(g.out[e.to], e.twin)
			changed = true
		}
	}
}

func removeEdge(edges []*halfEdge, e *halfEdge) []*halfEdge {
	for i, x := range edges {
		if x == e {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// next returns the half-edge following e around the face on e's left:
// the outgoing edge at e.to immediately clockwise from e's twin.
func (g *planarGraph) next(e *halfEdge) *halfEdge {
	edges := g.out[e.to]
	for i, x := range edges {
		if x == e.twin {
			return edges[(i-1+len(edges))%len(edges)]
		}
	}
	return nil
}

type cycle struct {
	ring      orb.Ring
	component int
}

// cycles traces every face boundary. Bounded faces come out
// counter-clockwise, the outer boundary of each component clockwise.
func (g *planarGraph) cycles() (faces, exteriors []cycle) {
	for _, edges := range g.out {
		sort.Slice(edges, func(i, j int) bool { return edges[i].angle < edges[j].angle })
	}
	for _, edges := range g.out {
		for _, start := range edges {
			if start.used {
				continue
			}
			var pts []orb.Point
			for e := start; e != nil && !e.used; e = g.next(e) {
				e.used = true
				pts = append(pts, g.points[e.from])
			}
			r := kernel.CloseRing(pts)
			if len(r) < 4 {
				continue
			}
			c := cycle{ring: r, component: g.find(start.from)}
			if r.Orientation() == orb.CCW {
				faces = append(faces, c)
			} else {
				exteriors = append(exteriors, c)
			}
		}
	}
	return faces, exteriors
}

// polygonize nodes the linework and returns one polygon per bounded face.
// A component lying inside a face of another component becomes a hole of
// that face; its own faces are returned as polygons too.
func polygonize(lines []orb.LineString) orb.MultiPolygon {
	var segs []segment
	var b orb.Bound
	first := true
	for _, ls := range lines {
		if len(ls) == 0 {
			continue
		}
		if first {
			b, first = ls.Bound(), false
		} else {
			b = b.Union(ls.Bound())
		}
		for i := 0; i+1 < len(ls); i++ {
			if ls[i] != ls[i+1] {
				segs = append(segs, segment{ls[i], ls[i+1]})
			}
		}
	}
	if len(segs) == 0 {
		return nil
	}
	tol := tolerance(b)

	g := newPlanarGraph(tol)
	for _, s := range nodeSegments(segs, tol) {
		g.addEdge(g.node(s[0]), g.node(s[1]))
	}
	g.pruneDangles()

	all, exteriors := g.cycles()

	faces := all[:0]
	for _, f := range all {
		if kernel.RingArea(f.ring) >= minRingArea {
			faces = append(faces, f)
		}
	}
	mp := make(orb.MultiPolygon, len(faces))
	for i, f := range faces {
		mp[i] = orb.Polygon{f.ring}
	}
	for _, ext := range exteriors {
		hole := ext.ring.Clone()
		best, bestArea := -1, math.Inf(1)
		for i, f := range faces {
			if f.component == ext.component {
				continue
			}
			if a := kernel.RingArea(f.ring); a < bestArea && ringInside(hole, f.ring) {
				best, bestArea = i, a
			}
		}
		if best >= 0 {
			mp[best] = append(mp[best], hole)
		}
	}
	for i := range mp {
		mp[i] = kernel.Orient(mp[i])
	}
	return mp
}
