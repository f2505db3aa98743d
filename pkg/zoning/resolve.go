package zoning

import (
	"context"

	"github.com/chazu/lotline/pkg/engine"
)

// Notes attached to resolved values.
const (
	NoteNoCondition       = "no condition field despite multiple array items"
	NoteSingleCondition   = "condition given despite a single array item"
	NoteNoConditionMet    = "no constraint conditions met"
	NoteUnevaluable       = "unable to evaluate expression: incorrect format or missing variables"
	NoteInsufficientConds = "multiple expressions with insufficient conditions"
)

// valueDigits is the rounding applied to every resolved value.
const valueDigits = 4

// Value is a resolved constraint value. A definite value has Min == Max;
// otherwise the conditions could not narrow the candidates and the value is
// the range [Min, Max].
type Value struct {
	Min, Max float64
}

// IsRange reports whether v is a range rather than a single value.
func (v Value) IsRange() bool { return v.Min != v.Max }

// Strictest returns the larger end of the range. For minimum setbacks that
// is the value that satisfies every candidate.
func (v Value) Strictest() float64 { return v.Max }

// Requirement is the resolved form of one constraint.
type Requirement struct {
	Name    string
	Unit    string
	Min     *Value
	Max     *Value
	MinNote string
	MaxNote string
}

// Requirements maps constraint names to resolved requirements.
type Requirements map[string]Requirement

// MinValue returns the resolved minimum of the named constraint.
func (rs Requirements) MinValue(name string) (Value, string, bool) {
	r, ok := rs[name]
	if !ok || r.Min == nil {
		return Value{}, "", false
	}
	return *r.Min, r.Unit, true
}

// Resolver evaluates constraints against building and parcel variables.
type Resolver struct {
	eng *engine.Engine
}

// NewResolver creates a Resolver using eng for every evaluation.
func NewResolver(eng *engine.Engine) *Resolver {
	return &Resolver{eng: eng}
}

// Resolve evaluates every constraint. Evaluation problems become notes on
// the requirement; only fatal engine failures (timeout, cancellation) are
// returned as errors.
func (r *Resolver) Resolve(ctx context.Context, cs Constraints, vars engine.Vars) (Requirements, error) {
	out := make(Requirements, len(cs))
	for _, name := range cs.Names() {
		c := cs[name]
		req := Requirement{Name: name, Unit: c.Unit}

		var err error
		if req.Min, req.MinNote, err = r.resolveList(ctx, c.MinVal, vars); err != nil {
			return nil, err
		}
		if req.Max, req.MaxNote, err = r.resolveList(ctx, c.MaxVal, vars); err != nil {
			return nil, err
		}
		out[name] = req
	}
	return out, nil
}

// resolveList picks the entries that apply and reduces their expression
// values. A single unconditioned entry applies directly. Otherwise the
// first entry whose conditions all hold wins; failing that every entry
// whose conditions might hold is used.
func (r *Resolver) resolveList(ctx context.Context, list []Entry, vars engine.Vars) (*Value, string, error) {
	if len(list) == 0 {
		return nil, "", nil
	}

	var note string
	selected := -1
	var maybe []int

entries:
	for i, e := range list {
		switch {
		case e.Condition == nil && len(list) == 1:
			selected = i
			break entries
		case e.Condition == nil:
			note = NoteNoCondition
			continue
		case len(list) == 1:
			note = NoteSingleCondition
		}

		all := engine.True
		for _, cond := range e.Condition {
			t, err := r.eng.Condition(ctx, cond, vars)
			if err != nil {
				return nil, "", err
			}
			if t == engine.False {
				all = engine.False
				break
			}
			if t == engine.Maybe {
				all = engine.Maybe
			}
		}
		switch all {
		case engine.True:
			selected = i
			break entries
		case engine.Maybe:
			maybe = append(maybe, i)
		}
	}

	ids := maybe
	if selected >= 0 {
		ids = []int{selected}
	}
	if len(ids) == 0 {
		return nil, NoteNoConditionMet, nil
	}

	var values []float64
	for _, i := range ids {
		for _, expr := range list[i].Expression {
			v, err := r.eng.Number(ctx, expr, vars)
			if err != nil {
				if !engine.IsEvalError(err) {
					return nil, "", err
				}
				note = NoteUnevaluable
				continue
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, note, nil
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	var val Value
	switch {
	case len(values) == 1:
		val = Value{Min: minV, Max: minV}
	case list[ids[0]].MinMax == "min":
		val = Value{Min: minV, Max: minV}
	case list[ids[0]].MinMax == "max":
		val = Value{Min: maxV, Max: maxV}
	default:
		val = Value{Min: minV, Max: maxV}
		note = NoteInsufficientConds
	}
	val.Min = engine.Round(val.Min, valueDigits)
	val.Max = engine.Round(val.Max, valueDigits)
	return &val, note, nil
}
