package kernel

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ---------------------------------------------------------------------------
// Planar helpers shared by backends and the pipeline
// ---------------------------------------------------------------------------

// RingArea returns the unsigned area enclosed by r.
func RingArea(r orb.Ring) float64 {
	return math.Abs(planar.Area(r))
}

// PolygonArea returns the shell area minus the area of every hole.
func PolygonArea(p orb.Polygon) float64 {
	if len(p) == 0 {
		return 0
	}
	a := RingArea(p[0])
	for _, h := range p[1:] {
		a -= RingArea(h)
	}
	return a
}

// MultiPolygonArea sums PolygonArea over mp.
func MultiPolygonArea(mp orb.MultiPolygon) float64 {
	var a float64
	for _, p := range mp {
		a += PolygonArea(p)
	}
	return a
}

// CloseRing returns pts as a closed ring (first point repeated at the end)
// with consecutive duplicates removed.
func CloseRing(pts []orb.Point) orb.Ring {
	r := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		if len(r) > 0 && r[len(r)-1] == p {
			continue
		}
		r = append(r, p)
	}
	if len(r) > 1 && r[0] == r[len(r)-1] {
		r = r[:len(r)-1]
	}
	if len(r) == 0 {
		return r
	}
	return append(r, r[0])
}

// Orient returns p with a counter-clockwise shell and clockwise holes.
func Orient(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		c := r.Clone()
		ccw := c.Orientation() == orb.CCW
		if (i == 0) != ccw {
			c.Reverse()
		}
		out[i] = c
	}
	return out
}

// InteriorPoint returns a point strictly inside p (outside its holes).
// It casts a horizontal scanline through the middle of the shell and takes
// the midpoint of the widest inside interval.
func InteriorPoint(p orb.Polygon) (orb.Point, bool) {
	if len(p) == 0 || len(p[0]) < 4 {
		return orb.Point{}, false
	}
	b := p.Bound()
	y := scanlineY(p, b)

	var xs []float64
	for _, r := range p {
		for i := 0; i+1 < len(r); i++ {
			a, c := r[i], r[i+1]
			if (a[1] > y) == (c[1] > y) {
				continue
			}
			t := (y - a[1]) / (c[1] - a[1])
			xs = append(xs, a[0]+t*(c[0]-a[0]))
		}
	}
	if len(xs) < 2 {
		return orb.Point{}, false
	}
	sort.Float64s(xs)

	best, bestW := -1, 0.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestW {
			best, bestW = i, w
		}
	}
	if best < 0 {
		return orb.Point{}, false
	}
	return orb.Point{(xs[best] + xs[best+1]) / 2, y}, true
}

// scanlineY picks a y between two distinct vertex ordinates closest to the
// middle of the bound, so the scanline never passes through a vertex.
func scanlineY(p orb.Polygon, b orb.Bound) float64 {
	mid := (b.Min[1] + b.Max[1]) / 2
	var ys []float64
	for _, r := range p {
		for _, pt := range r {
			ys = append(ys, pt[1])
		}
	}
	sort.Float64s(ys)

	y, bestD := mid, math.Inf(1)
	for i := 0; i+1 < len(ys); i++ {
		if ys[i+1] == ys[i] {
			continue
		}
		c := (ys[i] + ys[i+1]) / 2
		if d := math.Abs(c - mid); d < bestD {
			y, bestD = c, d
		}
	}
	return y
}

// Contains reports whether pt lies inside p and outside its holes.
func Contains(p orb.Polygon, pt orb.Point) bool {
	return planar.PolygonContains(p, pt)
}
