// Package zoning turns a district's dimensional constraints into per-edge
// setbacks. Constraint values are lists of conditional entries whose
// conditions and expressions are evaluated by the engine package against
// building and parcel variables.
package zoning

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Constraint names read by ApplySetbacks.
const (
	SetbackFront        = "setback_front"
	SetbackSideInterior = "setback_side_int"
	SetbackSideExterior = "setback_side_ext"
	SetbackRear         = "setback_rear"
	SetbackDistBoundary = "setback_dist_boundary"
	SetbackSideSum      = "setback_side_sum"
	SetbackFrontSum     = "setback_front_sum"
)

// Entry is one candidate value of a constraint. Condition is nil when the
// entry carries no condition field.
type Entry struct {
	Condition  []string `json:"condition"`
	Expression []string `json:"expression"`
	MinMax     string   `json:"min_max,omitempty"`
}

// Constraint holds the candidate minimum and maximum values of one
// dimensional requirement.
type Constraint struct {
	Unit   string  `json:"unit,omitempty"`
	MinVal []Entry `json:"min_val,omitempty"`
	MaxVal []Entry `json:"max_val,omitempty"`
}

// Constraints maps constraint names to their definitions.
type Constraints map[string]Constraint

// ParseConstraints decodes the constraints object of a district. Empty
// input yields no constraints.
func ParseConstraints(raw json.RawMessage) (Constraints, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Constraints{}, nil
	}
	var cs Constraints
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("parse constraints: %w", err)
	}
	return cs, nil
}

// Names returns the constraint names in sorted order.
func (cs Constraints) Names() []string {
	names := make([]string, 0, len(cs))
	for n := range cs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
