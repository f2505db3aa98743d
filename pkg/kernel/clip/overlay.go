package clip

import (
	"math"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chazu/lotline/pkg/kernel"
)

// sideOffset scales the tolerance to the distance at which both sides of
// a noded edge are sampled.
const sideOffset = 100

// overlay combines the regions bounded by rings. It nodes every ring edge,
// keeps the edges whose two sides disagree on member and polygonizes them.
// Each face of that linework lies entirely inside or outside the result,
// so one interior point decides it.
func overlay(rings []orb.Ring, member func(orb.Point) bool) orb.MultiPolygon {
	var segs []segment
	var b orb.Bound
	first := true
	for _, r := range rings {
		if len(r) < 2 {
			continue
		}
		if first {
			b, first = r.Bound(), false
		} else {
			b = b.Union(r.Bound())
		}
		for i := 0; i+1 < len(r); i++ {
			if r[i] != r[i+1] {
				segs = append(segs, segment{r[i], r[i+1]})
			}
		}
	}
	if len(segs) == 0 {
		return nil
	}
	tol := tolerance(b)
	eps := sideOffset * tol

	var boundary []orb.LineString
	for _, s := range nodeSegments(segs, tol) {
		dx, dy := s[1][0]-s[0][0], s[1][1]-s[0][1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*eps, dx/l*eps
		mx, my := (s[0][0]+s[1][0])/2, (s[0][1]+s[1][1])/2
		if member(orb.Point{mx + nx, my + ny}) != member(orb.Point{mx - nx, my - ny}) {
			boundary = append(boundary, orb.LineString{s[0], s[1]})
		}
	}

	var out orb.MultiPolygon
	for _, p := range polygonize(boundary) {
		if pt, ok := kernel.InteriorPoint(p); ok && member(pt) {
			out = append(out, p)
		}
	}
	return out
}

// overlayOp applies op to a and b with overlay.
func overlayOp(a, b orb.MultiPolygon, op polyclip.Op) orb.MultiPolygon {
	inA, inB := covers(a), covers(b)
	var member func(orb.Point) bool
	switch op {
	case polyclip.UNION:
		member = func(p orb.Point) bool { return inA(p) || inB(p) }
	case polyclip.INTERSECTION:
		member = func(p orb.Point) bool { return inA(p) && inB(p) }
	case polyclip.DIFFERENCE:
		member = func(p orb.Point) bool { return inA(p) && !inB(p) }
	default:
		member = func(p orb.Point) bool { return inA(p) != inB(p) }
	}
	return overlay(append(ringsOf(a), ringsOf(b)...), member)
}

// covers returns a membership test for the area of mp. Overlapping
// polygons are allowed.
func covers(mp orb.MultiPolygon) func(orb.Point) bool {
	return func(p orb.Point) bool {
		for _, poly := range mp {
			if planar.PolygonContains(poly, p) {
				return true
			}
		}
		return false
	}
}

func ringsOf(mp orb.MultiPolygon) []orb.Ring {
	var out []orb.Ring
	for _, p := range mp {
		out = append(out, p...)
	}
	return out
}

// touching reports whether a vertex of one ring lies on another ring.
// Martinez clipping loses contours on shared vertices and overlapping
// edges, so such inputs go through overlay.
func touching(rings []orb.Ring) bool {
	if len(rings) < 2 {
		return false
	}
	var all orb.Bound
	for i, r := range rings {
		if i == 0 {
			all = r.Bound()
		} else {
			all = all.Union(r.Bound())
		}
	}
	tol := sideOffset * tolerance(all)

	bounds := make([]orb.Bound, len(rings))
	for i, r := range rings {
		bounds[i] = r.Bound().Pad(tol)
	}
	for i, r := range rings {
		if len(r) < 2 {
			continue
		}
		for j, other := range rings {
			if i == j || !bounds[i].Intersects(bounds[j]) {
				continue
			}
			for _, p := range r[:len(r)-1] {
				if onRing(other, p, tol) {
					return true
				}
			}
		}
	}
	return false
}

// plausible checks the area of a polyclip result against the bounds op
// allows for operands of area a and b.
func plausible(op polyclip.Op, a, b, got float64) bool {
	e := 1e-7 * math.Max(1, a+b)
	switch op {
	case polyclip.UNION:
		return got >= math.Max(a, b)-e && got <= a+b+e
	case polyclip.INTERSECTION:
		return got <= math.Min(a, b)+e
	case polyclip.DIFFERENCE:
		return got >= a-b-e && got <= a+e
	}
	return got >= math.Abs(a-b)-e && got <= a+b+e
}
