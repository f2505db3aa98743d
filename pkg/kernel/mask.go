package kernel

import "github.com/paulmach/orb"

// Mask is a rasterised occupancy grid of a polygonal geometry.
// Bits is row-major: cell (col, row) is Bits[row*Cols+col]. Row 0 is the
// bottom row of the grid, whose lower-left corner sits at Origin.
type Mask struct {
	Cols   int       `json:"cols"`
	Rows   int       `json:"rows"`
	Cell   float64   `json:"cell"`   // cell edge length in geometry units
	Origin orb.Point `json:"origin"` // lower-left corner of cell (0, 0)
	Bits   []bool    `json:"bits"`
}

// NewMask allocates an empty mask.
func NewMask(cols, rows int, cell float64, origin orb.Point) *Mask {
	return &Mask{
		Cols:   cols,
		Rows:   rows,
		Cell:   cell,
		Origin: origin,
		Bits:   make([]bool, cols*rows),
	}
}

// At reports whether cell (col, row) is occupied. Out-of-range cells are empty.
func (m *Mask) At(col, row int) bool {
	if col < 0 || row < 0 || col >= m.Cols || row >= m.Rows {
		return false
	}
	return m.Bits[row*m.Cols+col]
}

// Set marks cell (col, row).
func (m *Mask) Set(col, row int, v bool) {
	m.Bits[row*m.Cols+col] = v
}

// Count returns the number of occupied cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// IsEmpty returns true if no cell is occupied.
func (m *Mask) IsEmpty() bool {
	return m.Count() == 0
}

// CellCenter returns the planar coordinate of the centre of cell (col, row).
func (m *Mask) CellCenter(col, row int) orb.Point {
	return orb.Point{
		m.Origin[0] + (float64(col)+0.5)*m.Cell,
		m.Origin[1] + (float64(row)+0.5)*m.Cell,
	}
}

// Rasterizer samples polygonal geometry into a Mask. rotation is applied
// (in degrees, counter-clockwise about the centre of the bound) before
// sampling. A cell is occupied when its centre lies inside the geometry.
type Rasterizer interface {
	Rasterize(mp orb.MultiPolygon, cell, rotation float64) (*Mask, error)
}
