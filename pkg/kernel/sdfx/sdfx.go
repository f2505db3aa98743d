// Package sdfx rasterises polygons into occupancy masks using the
// github.com/deadsy/sdfx signed-distance library. Each polygon becomes a
// 2D SDF (shell minus holes); the mask samples its sign at cell centres.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Rasterizer = (*Rasterizer)(nil)

// maxCells bounds the size of a single mask.
const maxCells = 4_000_000

// Rasterizer implements kernel.Rasterizer using sdfx.
type Rasterizer struct{}

// New returns a new Rasterizer.
func New() *Rasterizer {
	return &Rasterizer{}
}

// Rasterize samples mp on a grid of cell-sized squares after rotating it
// by rotation degrees about the centre of its bound.
func (r *Rasterizer) Rasterize(mp orb.MultiPolygon, cell, rotation float64) (*kernel.Mask, error) {
	if cell <= 0 || math.IsNaN(cell) {
		return nil, fmt.Errorf("sdfx: cell size must be positive, got %v", cell)
	}
	s, err := toSDF(mp)
	if err != nil {
		return nil, err
	}

	if rotation != 0 {
		c := mp.Bound().Center()
		centre := v2.Vec{X: c[0], Y: c[1]}
		m := sdf.Translate2d(centre).
			Mul(sdf.Rotate2d(rotation * math.Pi / 180.0)).
			Mul(sdf.Translate2d(v2.Vec{X: -c[0], Y: -c[1]}))
		s = sdf.Transform2D(s, m)
	}

	bb := s.BoundingBox()
	cols := int(math.Ceil((bb.Max.X - bb.Min.X) / cell))
	rows := int(math.Ceil((bb.Max.Y - bb.Min.Y) / cell))
	if cols <= 0 || rows <= 0 {
		return nil, errors.New("sdfx: geometry has no extent")
	}
	if cols*rows > maxCells {
		return nil, fmt.Errorf("sdfx: %dx%d mask exceeds %d cells; use a larger cell", cols, rows, maxCells)
	}

	mask := kernel.NewMask(cols, rows, cell, orb.Point{bb.Min.X, bb.Min.Y})
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			p := mask.CellCenter(col, row)
			if s.Evaluate(v2.Vec{X: p[0], Y: p[1]}) <= 0 {
				mask.Set(col, row, true)
			}
		}
	}
	return mask, nil
}

// toSDF converts polygons to a single SDF2: the union over polygons of
// each shell minus its holes.
func toSDF(mp orb.MultiPolygon) (sdf.SDF2, error) {
	var parts []sdf.SDF2
	for i, p := range mp {
		if len(p) == 0 {
			continue
		}
		shell, err := ringSDF(p[0])
		if err != nil {
			return nil, fmt.Errorf("sdfx: polygon %d shell: %w", i, err)
		}
		s := shell
		for j, h := range p[1:] {
			hole, err := ringSDF(h)
			if err != nil {
				return nil, fmt.Errorf("sdfx: polygon %d hole %d: %w", i, j, err)
			}
			s = sdf.Difference2D(s, hole)
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		return nil, errors.New("sdfx: no polygons to rasterise")
	case 1:
		return parts[0], nil
	}
	return sdf.Union2D(parts...), nil
}

// ringSDF builds a polygon SDF from a closed ring. sdfx closes the
// vertex loop itself, so the repeated end point is dropped.
func ringSDF(r orb.Ring) (sdf.SDF2, error) {
	r = kernel.CloseRing(r)
	if len(r) < 4 {
		return nil, errors.New("ring has fewer than three distinct vertices")
	}
	verts := make([]v2.Vec, len(r)-1)
	for i, p := range r[:len(r)-1] {
		verts[i] = v2.Vec{X: p[0], Y: p[1]}
	}
	return sdf.Polygon2D(verts)
}
