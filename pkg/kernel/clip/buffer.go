package clip

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
)

// stadium returns the buffer of segment ab by distance d: a rectangle along
// the segment closed by two half-circle caps, each approximated with
// 2*quadSegs straight segments. The ring is counter-clockwise.
func stadium(a, b orb.Point, d float64, quadSegs int) orb.Ring {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 || d <= 0 {
		return nil
	}
	u := orb.Point{dx / l, dy / l}
	n := orb.Point{-u[1], u[0]}

	steps := 2 * quadSegs
	pts := make([]orb.Point, 0, 2*(steps+1)+1)

	// Cap around b, sweeping from the right side (-n) through +u to +n.
	for i := 0; i <= steps; i++ {
		th := -math.Pi/2 + float64(i)*math.Pi/float64(steps)
		pts = append(pts, offset(b, u, n, d, th))
	}
	// Cap around a, sweeping from +n through -u back to -n.
	for i := 0; i <= steps; i++ {
		th := math.Pi/2 + float64(i)*math.Pi/float64(steps)
		pts = append(pts, offset(a, u, n, d, th))
	}
	return kernel.CloseRing(pts)
}

// offset returns c + d*(cos(th)*u + sin(th)*n).
func offset(c, u, n orb.Point, d, th float64) orb.Point {
	cs, sn := math.Cos(th), math.Sin(th)
	return orb.Point{
		c[0] + d*(cs*u[0]+sn*n[0]),
		c[1] + d*(cs*u[1]+sn*n[1]),
	}
}

// lineStadiums returns one stadium per non-degenerate segment of ls.
func lineStadiums(ls orb.LineString, d float64, quadSegs int) []orb.Ring {
	var out []orb.Ring
	for i := 0; i+1 < len(ls); i++ {
		if r := stadium(ls[i], ls[i+1], d, quadSegs); r != nil {
			out = append(out, r)
		}
	}
	return out
}
