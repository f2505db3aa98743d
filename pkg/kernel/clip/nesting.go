package clip

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chazu/lotline/pkg/kernel"
)

// minRingArea drops rings that enclose no meaningful area (slivers left
// behind by clipping of nearly coincident edges).
const minRingArea = 1e-10

// assemble turns an unordered set of rings into polygons. A ring's nesting
// depth (how many other rings contain it) decides its role: even depth is a
// shell, odd depth is a hole of the smallest containing shell.
func assemble(rings []orb.Ring) orb.MultiPolygon {
	type entry struct {
		ring   orb.Ring
		area   float64
		depth  int
		parent int
	}

	entries := make([]*entry, 0, len(rings))
	for _, r := range rings {
		r = kernel.CloseRing(r)
		if len(r) < 4 {
			continue
		}
		a := kernel.RingArea(r)
		if a < minRingArea {
			continue
		}
		entries = append(entries, &entry{ring: r, area: a, parent: -1})
	}

	// Larger rings first so that containers precede the rings they contain.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].area > entries[j].area })

	for i, e := range entries {
		for j := 0; j < i; j++ {
			if ringInside(e.ring, entries[j].ring) {
				e.depth++
			}
		}
	}
	for i, e := range entries {
		if e.depth%2 == 0 {
			continue
		}
		// The smallest containing ring at depth-1 is the last such one
		// because entries are sorted by decreasing area.
		for j := i - 1; j >= 0; j-- {
			if entries[j].depth == e.depth-1 && ringInside(e.ring, entries[j].ring) {
				e.parent = j
				break
			}
		}
	}

	index := make(map[int]int)
	var mp orb.MultiPolygon
	for i, e := range entries {
		if e.depth%2 == 0 {
			index[i] = len(mp)
			mp = append(mp, orb.Polygon{e.ring})
		}
	}
	for _, e := range entries {
		if e.depth%2 == 1 && e.parent >= 0 {
			pi := index[e.parent]
			mp[pi] = append(mp[pi], e.ring)
		}
	}
	for i := range mp {
		mp[i] = kernel.Orient(mp[i])
	}
	return mp
}

// ringInside reports whether inner lies inside outer. Vertices on the
// boundary of outer are inconclusive; if every vertex touches outer an
// interior point of inner decides.
func ringInside(inner, outer orb.Ring) bool {
	b := outer.Bound()
	if !b.Contains(inner.Bound().Min) || !b.Contains(inner.Bound().Max) {
		return false
	}
	tol := tolerance(b)
	for _, p := range inner[:len(inner)-1] {
		if onRing(outer, p, tol) {
			continue
		}
		return planar.RingContains(outer, p)
	}
	pt, ok := kernel.InteriorPoint(orb.Polygon{inner})
	if !ok {
		return false
	}
	return planar.RingContains(outer, pt)
}

// onRing reports whether p is within tol of any edge of r.
func onRing(r orb.Ring, p orb.Point, tol float64) bool {
	for i := 0; i+1 < len(r); i++ {
		if segmentDistance(p, r[i], r[i+1]) <= tol {
			return true
		}
	}
	return false
}

// segmentDistance is the distance from p to segment ab.
func segmentDistance(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return planar.Distance(p, a)
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return planar.Distance(p, orb.Point{a[0] + t*dx, a[1] + t*dy})
}

// tolerance scales a snapping tolerance to the size of b.
func tolerance(b orb.Bound) float64 {
	extent := math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
	return 1e-9 * math.Max(1, extent)
}
