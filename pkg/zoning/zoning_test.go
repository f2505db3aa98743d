package zoning

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/engine"
	"github.com/chazu/lotline/pkg/parcel"
)

const tol = 1e-9

func TestParseConstraints(t *testing.T) {
	raw := json.RawMessage(`{
		"setback_front": {"unit": "feet", "min_val": [{"expression": ["25"]}]},
		"lot_width": {"min_val": [
			{"condition": ["(> bedrooms 2)"], "expression": ["60"]},
			{"condition": [], "expression": ["50"], "min_max": "min"}
		]}
	}`)
	cs, err := ParseConstraints(raw)
	if err != nil {
		t.Fatalf("ParseConstraints() error = %v", err)
	}
	if got := cs.Names(); len(got) != 2 || got[0] != "lot_width" || got[1] != SetbackFront {
		t.Errorf("Names() = %v", got)
	}
	if cs[SetbackFront].MinVal[0].Condition != nil {
		t.Error("absent condition decoded as non-nil")
	}
	if cs["lot_width"].MinVal[1].Condition == nil {
		t.Error("empty condition decoded as nil")
	}

	if cs, err := ParseConstraints(nil); err != nil || len(cs) != 0 {
		t.Errorf("ParseConstraints(nil) = %v, %v", cs, err)
	}
	if _, err := ParseConstraints(json.RawMessage(`[1]`)); err == nil {
		t.Error("ParseConstraints([1]) error = nil")
	}
}

func TestResolveList(t *testing.T) {
	tests := []struct {
		name     string
		list     []Entry
		vars     engine.Vars
		want     *Value
		wantNote string
	}{
		{
			name: "single entry applies directly",
			list: []Entry{{Expression: []string{"25"}}},
			want: &Value{25, 25},
		},
		{
			name: "first true condition wins",
			list: []Entry{
				{Condition: []string{"(> lot_width 50)"}, Expression: []string{"10"}},
				{Condition: []string{"(<= lot_width 50)"}, Expression: []string{"5"}},
			},
			vars: engine.Vars{"lot_width": 40.0},
			want: &Value{5, 5},
		},
		{
			name: "all conditions must hold",
			list: []Entry{
				{Condition: []string{"(> lot_width 50)", "(> bedrooms 3)"}, Expression: []string{"10"}},
				{Condition: []string{"true"}, Expression: []string{"7"}},
			},
			vars: engine.Vars{"lot_width": 60.0, "bedrooms": 2},
			want: &Value{7, 7},
		},
		{
			name: "maybe entries give a range",
			list: []Entry{
				{Condition: []string{"(> stories 2)"}, Expression: []string{"10"}},
				{Condition: []string{"(<= stories 2)"}, Expression: []string{"5"}},
			},
			want:     &Value{5, 10},
			wantNote: NoteInsufficientConds,
		},
		{
			name: "maybe entries reduced by min_max",
			list: []Entry{
				{Condition: []string{"(> stories 2)"}, Expression: []string{"10"}, MinMax: "max"},
				{Condition: []string{"(<= stories 2)"}, Expression: []string{"5"}},
			},
			want: &Value{10, 10},
		},
		{
			name: "multiple expressions reduced by min_max",
			list: []Entry{{Expression: []string{"(* 0.2 lot_depth)", "15"}, MinMax: "min"}},
			vars: engine.Vars{"lot_depth": 100.0},
			want: &Value{15, 15},
		},
		{
			name: "no condition met",
			list: []Entry{
				{Condition: []string{"(> lot_width 50)"}, Expression: []string{"10"}},
				{Condition: []string{"(> lot_width 80)"}, Expression: []string{"5"}},
			},
			vars:     engine.Vars{"lot_width": 40.0},
			wantNote: NoteNoConditionMet,
		},
		{
			name:     "unevaluable expression",
			list:     []Entry{{Expression: []string{"(* missing 2)"}}},
			wantNote: NoteUnevaluable,
		},
		{
			name: "values are rounded",
			list: []Entry{{Expression: []string{"(/ 10.0 3)"}}},
			want: &Value{3.3333, 3.3333},
		},
		{
			name:     "single entry with condition is evaluated",
			list:     []Entry{{Condition: []string{"(> lot_width 50)"}, Expression: []string{"12"}}},
			vars:     engine.Vars{"lot_width": 60.0},
			want:     &Value{12, 12},
			wantNote: NoteSingleCondition,
		},
		{
			name: "infix conditions and expressions",
			list: []Entry{
				{Condition: []string{"bedrooms == 1"}, Expression: []string{"lot_width * 0.1"}},
				{Condition: []string{"bedrooms > 1"}, Expression: []string{"lot_width * 0.2"}},
			},
			vars: engine.Vars{"bedrooms": 1, "lot_width": 50.0},
			want: &Value{5, 5},
		},
		{
			name: "unconditioned entry among many is skipped",
			list: []Entry{
				{Expression: []string{"99"}},
				{Condition: []string{"true"}, Expression: []string{"3"}},
			},
			want:     &Value{3, 3},
			wantNote: NoteNoCondition,
		},
	}

	r := NewResolver(engine.NewEngine())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, note, err := r.resolveList(context.Background(), tt.list, tt.vars)
			if err != nil {
				t.Fatalf("resolveList() error = %v", err)
			}
			if note != tt.wantNote {
				t.Errorf("resolveList() note = %q, want %q", note, tt.wantNote)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("resolveList() = %+v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("resolveList() = nil, want %+v", *tt.want)
			case tt.want != nil:
				if math.Abs(got.Min-tt.want.Min) > tol || math.Abs(got.Max-tt.want.Max) > tol {
					t.Errorf("resolveList() = %+v, want %+v", *got, *tt.want)
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cs := Constraints{
		SetbackFront: {Unit: "feet", MinVal: []Entry{{Expression: []string{"25"}}}},
		"height":     {MaxVal: []Entry{{Expression: []string{"35"}}}},
	}
	reqs, err := NewResolver(engine.NewEngine()).Resolve(context.Background(), cs, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	v, unit, ok := reqs.MinValue(SetbackFront)
	if !ok || v.Min != 25 || unit != "feet" {
		t.Errorf("MinValue(front) = %+v, %q, %v", v, unit, ok)
	}
	if _, _, ok := reqs.MinValue("height"); ok {
		t.Error("MinValue(height) ok = true, want false")
	}
	if h := reqs["height"]; h.Max == nil || h.Max.Max != 35 {
		t.Errorf("height max = %+v", h.Max)
	}
}

func TestResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cs := Constraints{SetbackFront: {MinVal: []Entry{{Expression: []string{"25"}}}}}
	if _, err := NewResolver(engine.NewEngine()).Resolve(ctx, cs, nil); err == nil {
		t.Error("Resolve() with cancelled context error = nil")
	}
}

func TestValue(t *testing.T) {
	if (Value{5, 5}).IsRange() {
		t.Error("single value reported as range")
	}
	v := Value{5, 10}
	if !v.IsRange() || v.Strictest() != 10 {
		t.Errorf("Value{5,10}: IsRange = %v, Strictest = %v", v.IsRange(), v.Strictest())
	}
}

// lot returns a 10 x 10 parcel with front (bottom), interior side (right),
// rear (top) and interior side (left) edges.
func lot() parcel.Boundary {
	pts := []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	sides := []parcel.Side{parcel.SideFront, parcel.SideInterior, parcel.SideRear, parcel.SideInterior}
	b := parcel.Boundary{ID: "lot"}
	for i, side := range sides {
		b.Segments = append(b.Segments, parcel.Segment{Geometry: orb.LineString{pts[i], pts[i+1]}, Side: side})
	}
	return b
}

func req(name, unit string, v float64) Requirement {
	return Requirement{Name: name, Unit: unit, Min: &Value{v, v}}
}

func setbacks(b parcel.Boundary) []float64 {
	out := make([]float64, len(b.Segments))
	for i, s := range b.Segments {
		out[i] = -1
		if s.Setback != nil {
			out[i] = *s.Setback
		}
	}
	return out
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestApplySetbacks(t *testing.T) {
	base := Requirements{
		SetbackFront:        req(SetbackFront, "ft", 20),
		SetbackSideInterior: req(SetbackSideInterior, "ft", 5),
		SetbackRear:         req(SetbackRear, "ft", 25),
	}
	with := func(extra ...Requirement) Requirements {
		out := Requirements{}
		for k, v := range base {
			out[k] = v
		}
		for _, r := range extra {
			out[r.Name] = r
		}
		return out
	}

	tests := []struct {
		name     string
		reqs     Requirements
		district orb.Ring
		want     []float64
		warn     string
	}{
		{name: "by side", reqs: base, want: []float64{20, 5, 25, 5}},
		{name: "no requirements", reqs: nil, want: []float64{-1, -1, -1, -1}},
		{
			name: "side sum raises the second interior side",
			reqs: with(req(SetbackSideSum, "ft", 15)),
			want: []float64{20, 5, 25, 10},
		},
		{
			name: "side sum already met",
			reqs: with(req(SetbackSideSum, "ft", 8)),
			want: []float64{20, 5, 25, 5},
		},
		{
			name: "front sum raises the rear",
			reqs: with(req(SetbackFrontSum, "ft", 50)),
			want: []float64{20, 5, 30, 5},
		},
		{
			name:     "district boundary",
			reqs:     with(req(SetbackDistBoundary, "ft", 30)),
			district: orb.Ring{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}},
			want:     []float64{30, 5, 25, 30},
		},
		{
			name: "district boundary without district",
			reqs: with(req(SetbackDistBoundary, "ft", 30)),
			want: []float64{20, 5, 25, 5},
			warn: "needs the district boundary",
		},
		{
			name: "range applies the larger value",
			reqs: with(Requirement{Name: SetbackRear, Unit: "ft", Min: &Value{10, 40}}),
			want: []float64{20, 5, 40, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings, err := ApplySetbacks(lot(), tt.reqs, tt.district)
			if err != nil {
				t.Fatalf("ApplySetbacks() error = %v", err)
			}
			if s := setbacks(got); !equal(s, tt.want) {
				t.Errorf("setbacks = %v, want %v", s, tt.want)
			}
			if tt.warn != "" && !strings.Contains(strings.Join(warnings, "\n"), tt.warn) {
				t.Errorf("warnings = %v, want one containing %q", warnings, tt.warn)
			}
		})
	}
}

func TestApplySetbacksOnBoundary(t *testing.T) {
	reqs := Requirements{SetbackDistBoundary: req(SetbackDistBoundary, "m", 3)}
	district := orb.Ring{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}
	got, _, err := ApplySetbacks(lot(), reqs, district)
	if err != nil {
		t.Fatalf("ApplySetbacks() error = %v", err)
	}
	want := []bool{true, false, false, true}
	for i, s := range got.Segments {
		if s.OnBoundary != want[i] {
			t.Errorf("segment %d OnBoundary = %v, want %v", i, s.OnBoundary, want[i])
		}
		if s.Setback != nil {
			t.Errorf("segment %d has setback %v without a side requirement", i, *s.Setback)
		}
	}
}

func TestApplySetbacksConvertsUnits(t *testing.T) {
	reqs := Requirements{
		SetbackFront:    req(SetbackFront, "m", 3),
		SetbackRear:     req(SetbackRear, "m", 3),
		SetbackFrontSum: req(SetbackFrontSum, "ft", 20/0.3048),
	}
	got, _, err := ApplySetbacks(lot(), reqs, nil)
	if err != nil {
		t.Fatalf("ApplySetbacks() error = %v", err)
	}
	rear := got.Segments[2]
	if rear.Unit != "m" || math.Abs(*rear.Setback-17) > 1e-6 {
		t.Errorf("rear setback = %v %s, want 17 m", *rear.Setback, rear.Unit)
	}
}

func TestApplySetbacksMissingSides(t *testing.T) {
	b := lot()
	b.Segments[1].Side = parcel.SideUnknown
	b.Segments[3].Side = parcel.SideUnknown
	reqs := Requirements{
		SetbackFront:   req(SetbackFront, "ft", 20),
		SetbackSideSum: req(SetbackSideSum, "ft", 15),
	}
	got, warnings, err := ApplySetbacks(b, reqs, nil)
	if err != nil {
		t.Fatalf("ApplySetbacks() error = %v", err)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want 2", warnings)
	}
	if s := setbacks(got); !equal(s, []float64{20, -1, -1, -1}) {
		t.Errorf("setbacks = %v", s)
	}
	if b.Segments[0].Setback != nil {
		t.Error("ApplySetbacks() mutated its input")
	}
}

func TestBoundaryIndex(t *testing.T) {
	idx := newBoundaryIndex(orb.Ring{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}, BoundaryReach)
	tests := []struct {
		ls   orb.LineString
		want bool
	}{
		{orb.LineString{{10, 2}, {90, 2}}, true},
		{orb.LineString{{10, 2}, {90, 8}}, false},
		{orb.LineString{{50, 50}, {60, 50}}, false},
		{orb.LineString{{2, 2}, {2, 98}, {98, 98}}, true},
		{orb.LineString{{3, 3}}, true},
		{nil, false},
	}
	for _, tt := range tests {
		if got := idx.within(tt.ls); got != tt.want {
			t.Errorf("within(%v) = %v, want %v", tt.ls, got, tt.want)
		}
	}
}

func TestConvert(t *testing.T) {
	got, err := convert(10, "ft", "m")
	if err != nil || math.Abs(got-3.048) > tol {
		t.Errorf("convert(10 ft, m) = %v, %v", got, err)
	}
	if got, _ := convert(10, "", "m"); got != 10 {
		t.Errorf("convert(10, \"\", m) = %v, want 10", got)
	}
	if _, err := convert(1, "cubit", "m"); err == nil {
		t.Error("convert(cubit) error = nil")
	}
}
