package buildable

import (
	"fmt"

	"github.com/chazu/lotline/pkg/kernel"
	"github.com/chazu/lotline/pkg/parcel"
)

// Assemble builds the parcel polygon from the boundary segments. The
// segments are unioned, polygonized, and the faces unioned again. Linework
// that closes no face, or faces that form more than one disjoint polygon,
// are malformed.
func Assemble(k kernel.Kernel, b parcel.Boundary) (kernel.Geometry, error) {
	lines := make([]kernel.Geometry, 0, len(b.Segments))
	for _, s := range b.Segments {
		lines = append(lines, k.Line(s.Geometry))
	}

	faces, err := k.Polygonize([]kernel.Geometry{k.Union(lines...)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBoundary, err)
	}
	if faces.IsEmpty() || faces.Area() <= 0 {
		return nil, fmt.Errorf("%w: segments of parcel %q do not close a ring", ErrMalformedBoundary, b.ID)
	}

	poly := k.Union(k.Parts(faces)...)
	if n := len(k.Parts(poly)); n != 1 {
		return nil, fmt.Errorf("%w: parcel %q forms %d disjoint rings", ErrMalformedBoundary, b.ID, n)
	}
	return poly, nil
}
