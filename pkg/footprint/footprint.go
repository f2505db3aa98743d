// Package footprint checks whether a rectangular building footprint fits
// inside a buildable polygon. The polygon is rasterised at a set of
// rotations; at each rotation the mask is scanned for a fully occupied
// window in either orientation of the rectangle.
package footprint

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
)

// DefaultCell is the default raster cell size in geometry units.
const DefaultCell = 1.0

// DefaultRotations returns rotations in [0, 90) by 15 degree steps. Both
// orientations of the rectangle are tried at every rotation, so a quarter
// turn covers every angle.
func DefaultRotations() []float64 {
	return []float64{0, 15, 30, 45, 60, 75}
}

// Dims is a rectangular footprint.
type Dims struct {
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

// Fit is the outcome of one fit check.
type Fit struct {
	Dims     Dims    `json:"dims"`
	Fits     bool    `json:"fits"`
	Rotation float64 `json:"rotation,omitempty"` // first rotation that fit, degrees
}

// Checker runs fit checks with a rasterizer.
type Checker struct {
	raster    kernel.Rasterizer
	cell      float64
	rotations []float64
}

// Option configures a Checker.
type Option func(*Checker)

// WithCell sets the raster cell size.
func WithCell(cell float64) Option {
	return func(c *Checker) {
		if cell > 0 {
			c.cell = cell
		}
	}
}

// WithRotations sets the rotations tried, in degrees.
func WithRotations(rot []float64) Option {
	return func(c *Checker) {
		if len(rot) > 0 {
			c.rotations = append([]float64(nil), rot...)
		}
	}
}

// NewChecker creates a Checker using r.
func NewChecker(r kernel.Rasterizer, opts ...Option) *Checker {
	c := &Checker{raster: r, cell: DefaultCell, rotations: DefaultRotations()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports for every footprint in dims whether it fits in poly. An
// empty polygon fits nothing. Rotation stops early once every footprint
// has fit.
func (c *Checker) Check(poly orb.Polygon, dims []Dims) ([]Fit, error) {
	out := make([]Fit, len(dims))
	for i, d := range dims {
		if d.Width <= 0 || d.Depth <= 0 || math.IsNaN(d.Width) || math.IsNaN(d.Depth) {
			return nil, fmt.Errorf("footprint: dimensions must be positive, got %vx%v", d.Width, d.Depth)
		}
		out[i].Dims = d
	}
	if len(poly) == 0 || kernel.PolygonArea(poly) <= 0 {
		return out, nil
	}

	remaining := len(dims)
	for _, rot := range c.rotations {
		if remaining == 0 {
			break
		}
		mask, err := c.raster.Rasterize(orb.MultiPolygon{poly}, c.cell, rot)
		if err != nil {
			return nil, err
		}
		sat := newSummedArea(mask)
		for i := range out {
			if out[i].Fits {
				continue
			}
			w := cells(out[i].Dims.Width, c.cell)
			d := cells(out[i].Dims.Depth, c.cell)
			if sat.fits(w, d) || sat.fits(d, w) {
				out[i].Fits = true
				out[i].Rotation = rot
				remaining--
			}
		}
	}
	return out, nil
}

// Fits reports whether a single width x depth footprint fits in poly.
func (c *Checker) Fits(poly orb.Polygon, width, depth float64) (bool, error) {
	res, err := c.Check(poly, []Dims{{Width: width, Depth: depth}})
	if err != nil {
		return false, err
	}
	return res[0].Fits, nil
}

// cells converts a length to a whole number of cells, rounding up.
func cells(length, cell float64) int {
	n := int(math.Ceil(length/cell - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// summedArea is a summed-area table over a mask: sum(c, r) counts the
// occupied cells with col < c and row < r.
type summedArea struct {
	cols, rows int
	sum        []int
}

func newSummedArea(m *kernel.Mask) *summedArea {
	s := &summedArea{cols: m.Cols, rows: m.Rows, sum: make([]int, (m.Cols+1)*(m.Rows+1))}
	stride := m.Cols + 1
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			v := 0
			if m.At(c, r) {
				v = 1
			}
			s.sum[(r+1)*stride+c+1] = v + s.sum[r*stride+c+1] + s.sum[(r+1)*stride+c] - s.sum[r*stride+c]
		}
	}
	return s
}

// window counts occupied cells in the w x h window with lower-left cell (c, r).
func (s *summedArea) window(c, r, w, h int) int {
	stride := s.cols + 1
	return s.sum[(r+h)*stride+c+w] - s.sum[r*stride+c+w] - s.sum[(r+h)*stride+c] + s.sum[r*stride+c]
}

// fits reports whether some w x h window is fully occupied.
func (s *summedArea) fits(w, h int) bool {
	if w > s.cols || h > s.rows {
		return false
	}
	full := w * h
	for r := 0; r+h <= s.rows; r++ {
		for c := 0; c+w <= s.cols; c++ {
			if s.window(c, r, w, h) == full {
				return true
			}
		}
	}
	return false
}
