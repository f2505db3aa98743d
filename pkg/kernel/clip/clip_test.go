package clip

import (
	"math"
	"testing"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
)

const tol = 1e-6

func newKernel(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := kernel.ByName(Name)
	if err != nil {
		t.Fatalf("ByName(%q) error = %v", Name, err)
	}
	return k
}

func square(x0, y0, size float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}
}

func squareEdges(x0, y0, size float64) []orb.LineString {
	r := square(x0, y0, size)
	var out []orb.LineString
	for i := 0; i+1 < len(r); i++ {
		out = append(out, orb.LineString{r[i], r[i+1]})
	}
	return out
}

func lines(k kernel.Kernel, ls []orb.LineString) []kernel.Geometry {
	gs := make([]kernel.Geometry, len(ls))
	for i, l := range ls {
		gs[i] = k.Line(l)
	}
	return gs
}

func approx(a, b float64) bool { return math.Abs(a-b) <= tol }

// --- Polygonize ---

func TestPolygonize(t *testing.T) {
	tests := []struct {
		name      string
		lines     []orb.LineString
		wantParts int
		wantArea  float64
	}{
		{
			name:      "square from four edges",
			lines:     squareEdges(0, 0, 10),
			wantParts: 1,
			wantArea:  100,
		},
		{
			name:      "square as one closed ring",
			lines:     []orb.LineString{orb.LineString(square(0, 0, 10))},
			wantParts: 1,
			wantArea:  100,
		},
		{
			name:      "dangling edge is ignored",
			lines:     append(squareEdges(0, 0, 10), orb.LineString{{10, 10}, {15, 15}}),
			wantParts: 1,
			wantArea:  100,
		},
		{
			name:      "two squares sharing an edge",
			lines:     append(squareEdges(0, 0, 10), squareEdges(10, 0, 10)...),
			wantParts: 2,
			wantArea:  200,
		},
		{
			name: "crossing segments are noded",
			lines: []orb.LineString{
				{{-1, 0}, {11, 0}},
				{{10, -1}, {10, 11}},
				{{11, 10}, {-1, 10}},
				{{0, 11}, {0, -1}},
			},
			wantParts: 1,
			wantArea:  100,
		},
		{
			name:      "nested squares become a holed face and an island",
			lines:     append(squareEdges(0, 0, 10), squareEdges(4, 4, 2)...),
			wantParts: 2,
			wantArea:  100,
		},
		{
			name:      "open linework",
			lines:     []orb.LineString{{{0, 0}, {10, 0}, {10, 10}}},
			wantParts: 0,
			wantArea:  0,
		},
	}

	k := newKernel(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := k.Polygonize(lines(k, tt.lines))
			if err != nil {
				t.Fatalf("Polygonize() error = %v", err)
			}
			if got := len(k.Parts(g)); got != tt.wantParts {
				t.Errorf("Polygonize() parts = %d, want %d", got, tt.wantParts)
			}
			if !approx(g.Area(), tt.wantArea) {
				t.Errorf("Polygonize() area = %f, want %f", g.Area(), tt.wantArea)
			}
		})
	}
}

func TestPolygonizeHoleAssignment(t *testing.T) {
	k := newKernel(t)
	g, err := k.Polygonize(lines(k, append(squareEdges(0, 0, 10), squareEdges(4, 4, 2)...)))
	if err != nil {
		t.Fatalf("Polygonize() error = %v", err)
	}
	mp, err := k.MultiPolygon(g)
	if err != nil {
		t.Fatalf("MultiPolygon() error = %v", err)
	}
	var holed int
	for _, p := range mp {
		if len(p) == 2 {
			holed++
			if !approx(kernel.PolygonArea(p), 96) {
				t.Errorf("holed face area = %f, want 96", kernel.PolygonArea(p))
			}
		}
	}
	if holed != 1 {
		t.Errorf("holed faces = %d, want 1", holed)
	}
}

// --- Buffer ---

func TestBufferSegment(t *testing.T) {
	k := newKernel(t)
	g := k.Buffer(k.Line(orb.LineString{{0, 0}, {10, 0}}), 1, 1)

	// A 10 x 2 strip plus two triangular caps of area 1.
	if !approx(g.Area(), 22) {
		t.Errorf("Buffer() area = %f, want 22", g.Area())
	}
	b := g.Bound()
	if !approx(b.Min[0], -1) || !approx(b.Max[0], 11) || !approx(b.Min[1], -1) || !approx(b.Max[1], 1) {
		t.Errorf("Buffer() bound = %v, want [-1,-1]..[11,1]", b)
	}
}

func TestBufferRoundCapsApproachCircle(t *testing.T) {
	k := newKernel(t)
	coarse := k.Buffer(k.Line(orb.LineString{{0, 0}, {10, 0}}), 1, 1).Area()
	fine := k.Buffer(k.Line(orb.LineString{{0, 0}, {10, 0}}), 1, 16).Area()

	if fine <= coarse {
		t.Errorf("finer arcs should cover more area: quadSegs=16 %f <= quadSegs=1 %f", fine, coarse)
	}
	if want := 20 + math.Pi; math.Abs(fine-want) > 0.01 {
		t.Errorf("Buffer(quadSegs=16) area = %f, want ~%f", fine, want)
	}
}

func TestBufferNonPositive(t *testing.T) {
	k := newKernel(t)
	line := k.Line(orb.LineString{{0, 0}, {10, 0}})
	if g := k.Buffer(line, 0, 1); !g.IsEmpty() {
		t.Errorf("Buffer(line, 0) area = %f, want empty", g.Area())
	}

	sq := k.Polygon(orb.Polygon{square(0, 0, 10)})
	if got := k.Buffer(sq, 0, 1).Area(); !approx(got, 100) {
		t.Errorf("Buffer(square, 0) area = %f, want 100", got)
	}
	if got := k.Buffer(sq, -2, 1).Area(); !approx(got, 36) {
		t.Errorf("Buffer(square, -2) area = %f, want 36", got)
	}
}

// --- Boolean operations and repair ---

func TestSquareSetbackScenario(t *testing.T) {
	k := newKernel(t)
	excluded := k.Buffer(k.Union(lines(k, squareEdges(0, 0, 10))...), 2, 1)
	parcel := k.Polygon(orb.Polygon{square(0, 0, 10)})

	diff := k.MakeValid(k.SymDifference(k.MakeValid(excluded), parcel))
	parts := k.Parts(diff)
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want 2 (interior and outer halo)", len(parts))
	}

	var interior kernel.Geometry
	for _, p := range parts {
		pt, ok := k.PointOnSurface(p)
		if ok && kernel.Contains(orb.Polygon{square(0, 0, 10)}, pt) {
			interior = p
		}
	}
	if interior == nil {
		t.Fatal("no part lies inside the parcel")
	}
	if !approx(interior.Area(), 36) {
		t.Errorf("interior area = %f, want 36", interior.Area())
	}
	b := interior.Bound()
	if !approx(b.Min[0], 2) || !approx(b.Min[1], 2) || !approx(b.Max[0], 8) || !approx(b.Max[1], 8) {
		t.Errorf("interior bound = %v, want [2,2]..[8,8]", b)
	}
}

func TestMakeValidMergesOverlaps(t *testing.T) {
	k := newKernel(t)
	g := &shape{polys: orb.MultiPolygon{{square(0, 0, 2)}, {square(1, 1, 2)}}}

	v := k.MakeValid(g)
	if got := len(k.Parts(v)); got != 1 {
		t.Errorf("MakeValid() parts = %d, want 1", got)
	}
	if !approx(v.Area(), 7) {
		t.Errorf("MakeValid() area = %f, want 7", v.Area())
	}
}

func TestMakeValidDropsDegenerateRings(t *testing.T) {
	k := newKernel(t)
	g := &shape{polys: orb.MultiPolygon{
		{square(0, 0, 4)},
		{{{10, 10}, {11, 11}, {12, 12}, {10, 10}}},
	}}
	v := k.MakeValid(g)
	if got := len(k.Parts(v)); got != 1 {
		t.Errorf("MakeValid() parts = %d, want 1", got)
	}
}

func TestIntersection(t *testing.T) {
	k := newKernel(t)
	a := k.Polygon(orb.Polygon{square(0, 0, 4)})
	b := k.Polygon(orb.Polygon{square(2, 2, 4)})
	if got := k.Intersection(a, b).Area(); !approx(got, 4) {
		t.Errorf("Intersection() area = %f, want 4", got)
	}
	if got := k.Intersection(a, &shape{}); !got.IsEmpty() {
		t.Error("Intersection() with empty operand is not empty")
	}
}

func TestPointOnSurfaceEmpty(t *testing.T) {
	k := newKernel(t)
	if _, ok := k.PointOnSurface(&shape{}); ok {
		t.Error("PointOnSurface(empty) ok = true, want false")
	}
}

func TestPolygonOrientation(t *testing.T) {
	k := newKernel(t)
	r := square(0, 0, 3)
	r.Reverse()
	mp, err := k.MultiPolygon(k.Polygon(orb.Polygon{r}))
	if err != nil {
		t.Fatalf("MultiPolygon() error = %v", err)
	}
	if mp[0][0].Orientation() != orb.CCW {
		t.Error("shell is not counter-clockwise")
	}
}

func TestBufferClosesBandAroundRing(t *testing.T) {
	k := newKernel(t)
	for _, quadSegs := range []int{1, 8} {
		g := k.Buffer(k.Union(lines(k, squareEdges(0, 0, 10))...), 2, quadSegs)
		mp, err := k.MultiPolygon(g)
		if err != nil {
			t.Fatalf("MultiPolygon() error = %v", err)
		}
		if len(mp) != 1 || len(mp[0]) != 2 {
			t.Fatalf("quadSegs=%d: band has %d polygons, want one shell with one hole", quadSegs, len(mp))
		}
		if got := kernel.RingArea(mp[0][1]); !approx(got, 36) {
			t.Errorf("quadSegs=%d: hole area = %f, want 36", quadSegs, got)
		}
	}

	// Chamfered 14 x 14 outline less the 6 x 6 hole.
	g := k.Buffer(k.Union(lines(k, squareEdges(0, 0, 10))...), 2, 1)
	if !approx(g.Area(), 152) {
		t.Errorf("band area = %f, want 152", g.Area())
	}
}

func TestUnionOfEdgeBuffersOneAtATime(t *testing.T) {
	k := newKernel(t)
	var acc kernel.Geometry = &shape{}
	for _, e := range squareEdges(0, 0, 10) {
		acc = k.Union(acc, k.Buffer(k.Line(e), 2, 1))
	}
	if !approx(acc.Area(), 152) {
		t.Errorf("union area = %f, want 152", acc.Area())
	}
	if got := len(k.Parts(acc)); got != 1 {
		t.Errorf("union parts = %d, want 1", got)
	}
}

func TestTouchingOperands(t *testing.T) {
	k := newKernel(t)
	big := k.Polygon(orb.Polygon{square(0, 0, 4)})
	corner := k.Polygon(orb.Polygon{square(0, 0, 2)})
	right := k.Polygon(orb.Polygon{square(4, 0, 4)})

	tests := []struct {
		name      string
		got       kernel.Geometry
		wantArea  float64
		wantParts int
	}{
		{"union sharing an edge", k.Union(big, right), 32, 1},
		{"intersection sharing an edge", k.Intersection(big, right), 0, 0},
		{"intersection of nested corner", k.Intersection(big, corner), 4, 1},
		{"difference of nested corner", &shape{polys: construct(
			big.(*shape).polys, corner.(*shape).polys, polyclip.DIFFERENCE)}, 12, 1},
		{"xor with itself", k.SymDifference(big, big), 0, 0},
		{"xor of nested corner", k.SymDifference(big, corner), 12, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !approx(tt.got.Area(), tt.wantArea) {
				t.Errorf("area = %f, want %f", tt.got.Area(), tt.wantArea)
			}
			if got := len(k.Parts(tt.got)); got != tt.wantParts {
				t.Errorf("parts = %d, want %d", got, tt.wantParts)
			}
		})
	}
}

func TestSingleEdgeBufferAgainstParcel(t *testing.T) {
	k := newKernel(t)
	strip := k.Buffer(k.Line(orb.LineString{{0, 0}, {10, 0}}), 2, 1)
	parcel := k.Polygon(orb.Polygon{square(0, 0, 10)})

	// The strip's inner corners sit on the parcel's side edges.
	diff := k.SymDifference(strip, parcel)
	if !approx(diff.Area(), 108) {
		t.Errorf("SymDifference() area = %f, want 108", diff.Area())
	}
	if got := k.Intersection(strip, parcel).Area(); !approx(got, 20) {
		t.Errorf("Intersection() area = %f, want 20", got)
	}
}

func TestTouching(t *testing.T) {
	tests := []struct {
		name  string
		rings []orb.Ring
		want  bool
	}{
		{"disjoint", []orb.Ring{square(0, 0, 1), square(5, 5, 1)}, false},
		{"nested apart", []orb.Ring{square(0, 0, 10), square(2, 2, 1)}, false},
		{"crossing edges", []orb.Ring{square(0, 0, 2), square(1, 1, 2)}, false},
		{"shared corner", []orb.Ring{square(0, 0, 1), square(1, 1, 1)}, true},
		{"vertex on edge", []orb.Ring{square(0, 0, 4), square(4, 1, 1)}, true},
	}
	for _, tt := range tests {
		if got := touching(tt.rings); got != tt.want {
			t.Errorf("touching(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPlausible(t *testing.T) {
	if plausible(polyclip.UNION, 124, 48, 36) {
		t.Error("union smaller than its larger operand accepted")
	}
	if !plausible(polyclip.UNION, 124, 48, 152) {
		t.Error("valid union rejected")
	}
	if plausible(polyclip.INTERSECTION, 4, 4, 5) {
		t.Error("intersection larger than an operand accepted")
	}
	if plausible(polyclip.DIFFERENCE, 100, 10, 50) {
		t.Error("difference removing more than the subtrahend accepted")
	}
	if plausible(polyclip.XOR, 100, 10, 80) {
		t.Error("xor below the area difference accepted")
	}
}
