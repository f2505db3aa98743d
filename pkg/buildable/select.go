package buildable

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
)

type candidate struct {
	geom  kernel.Geometry
	area  float64
	bound orb.Bound
}

// containTolerance is the share of a piece's area allowed to fall outside
// the parcel before the piece stops counting as interior.
const containTolerance = 1e-6

// Select picks the buildable polygon from parcel XOR excluded. Only pieces
// with an interior point inside the parcel that also lie (nearly) within
// it are candidates; the rest lie in the buffer halo outside the parcel.
// Among candidates the largest wins.
// Pieces within tolerance (relative) of the largest area tie, and ties go
// to the lowest bound minimum, x first.
func Select(k kernel.Kernel, parcelGeom, excluded kernel.Geometry, tolerance float64) (orb.Polygon, error) {
	p := k.MakeValid(parcelGeom)
	diff := k.MakeValid(k.SymDifference(k.MakeValid(excluded), p))

	shape, err := k.MultiPolygon(p)
	if err != nil {
		return nil, err
	}

	var cands []candidate
	for _, piece := range k.Parts(diff) {
		a := piece.Area()
		if a <= 0 {
			continue
		}
		pt, ok := k.PointOnSurface(piece)
		if !ok || !inside(shape, pt) {
			continue
		}
		if k.Intersection(piece, p).Area() < a*(1-containTolerance) {
			continue
		}
		cands = append(cands, candidate{geom: piece, area: a, bound: piece.Bound()})
	}
	if len(cands) == 0 {
		return nil, ErrNoBuildableArea
	}

	best := pick(cands, tolerance)
	mp, err := k.MultiPolygon(best.geom)
	if err != nil {
		return nil, err
	}
	if len(mp) != 1 {
		return nil, fmt.Errorf("buildable: selected piece has %d polygons", len(mp))
	}
	return mp[0], nil
}

func pick(cands []candidate, tolerance float64) candidate {
	maxArea := 0.0
	for _, c := range cands {
		if c.area > maxArea {
			maxArea = c.area
		}
	}
	var top []candidate
	for _, c := range cands {
		if c.area >= maxArea*(1-tolerance) {
			top = append(top, c)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		a, b := top[i].bound.Min, top[j].bound.Min
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	return top[0]
}

func inside(mp orb.MultiPolygon, pt orb.Point) bool {
	for _, p := range mp {
		if kernel.Contains(p, pt) {
			return true
		}
	}
	return false
}
