package zoning

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// BoundaryReach is how close a parcel edge must lie to the district
// boundary for setback_dist_boundary to apply.
const BoundaryReach = 5.0

// edge is one district boundary segment in the R-tree.
type edge struct {
	a, b orb.Point
}

func (e *edge) Bounds() rtreego.Rect {
	return rect(orb.Bound{Min: e.a, Max: e.a}.Extend(e.b), 0)
}

// rect converts b grown by pad to an R-tree rectangle. Zero-width sides
// get a small positive length, which rtreego requires.
func rect(b orb.Bound, pad float64) rtreego.Rect {
	const minLen = 1e-9
	w := math.Max(b.Max[0]-b.Min[0]+2*pad, minLen)
	h := math.Max(b.Max[1]-b.Min[1]+2*pad, minLen)
	r, _ := rtreego.NewRect(rtreego.Point{b.Min[0] - pad, b.Min[1] - pad}, []float64{w, h})
	return r
}

// boundaryIndex answers whether a line lies within reach of a district
// boundary.
type boundaryIndex struct {
	tree  *rtreego.Rtree
	reach float64
}

func newBoundaryIndex(ring orb.Ring, reach float64) *boundaryIndex {
	var objs []rtreego.Spatial
	for i := 0; i+1 < len(ring); i++ {
		if ring[i] != ring[i+1] {
			objs = append(objs, &edge{a: ring[i], b: ring[i+1]})
		}
	}
	return &boundaryIndex{tree: rtreego.NewTree(2, 2, 8, objs...), reach: reach}
}

// within reports whether every point of ls lies within reach of the
// boundary. Points are sampled along each segment at no more than a
// quarter of the reach apart.
func (bi *boundaryIndex) within(ls orb.LineString) bool {
	if len(ls) == 0 {
		return false
	}
	near := bi.tree.SearchIntersect(rect(ls.Bound(), bi.reach))
	if len(near) == 0 {
		return false
	}

	step := bi.reach / 4
	for i := 0; i+1 < len(ls); i++ {
		a, b := ls[i], ls[i+1]
		n := int(math.Ceil(planar.Distance(a, b) / step))
		if n < 1 {
			n = 1
		}
		for j := 0; j <= n; j++ {
			t := float64(j) / float64(n)
			p := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
			if !nearAny(near, p, bi.reach) {
				return false
			}
		}
	}
	if len(ls) == 1 {
		return nearAny(near, ls[0], bi.reach)
	}
	return true
}

func nearAny(edges []rtreego.Spatial, p orb.Point, reach float64) bool {
	for _, s := range edges {
		e := s.(*edge)
		if pointSegmentDistance(p, e.a, e.b) <= reach {
			return true
		}
	}
	return false
}

func pointSegmentDistance(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return planar.Distance(p, a)
	}
	t := math.Max(0, math.Min(1, ((p[0]-a[0])*dx+(p[1]-a[1])*dy)/l2))
	return planar.Distance(p, orb.Point{a[0] + t*dx, a[1] + t*dy})
}
