// Package units converts setback distances to meters and resolves which
// unit applies to each setback of a boundary.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrUnknownUnit is returned for a unit tag missing from the table.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrAmbiguousUnits is returned when the unit tags of a boundary do not
	// determine a single unit for every setback.
	ErrAmbiguousUnits = errors.New("ambiguous units")

	// ErrMissingUnit is returned when a setback has no unit and no default
	// is configured.
	ErrMissingUnit = errors.New("missing unit")
)

// Meter is the canonical unit name.
const Meter = "meters"

// factors maps canonical unit names to their length in meters.
var factors = map[string]float64{
	"meters":         1,
	"centimeters":    0.01,
	"millimeters":    0.001,
	"kilometers":     1000,
	"feet":           0.3048,
	"inches":         0.0254,
	"yards":          0.9144,
	"miles":          1609.344,
	"us_survey_feet": 1200.0 / 3937.0,
}

// aliases maps lower-case spellings to canonical names.
var aliases = map[string]string{
	"m": "meters", "meter": "meters", "meters": "meters", "metre": "meters", "metres": "meters",
	"cm": "centimeters", "centimeter": "centimeters", "centimeters": "centimeters",
	"mm": "millimeters", "millimeter": "millimeters", "millimeters": "millimeters",
	"km": "kilometers", "kilometer": "kilometers", "kilometers": "kilometers",
	"ft": "feet", "foot": "feet", "feet": "feet", "'": "feet",
	"in": "inches", "inch": "inches", "inches": "inches", "\"": "inches",
	"yd": "yards", "yard": "yards", "yards": "yards",
	"mi": "miles", "mile": "miles", "miles": "miles",
	"us_survey_foot": "us_survey_feet", "us_survey_feet": "us_survey_feet", "ftus": "us_survey_feet",
}

// Canonical returns the canonical name of unit. Tags are matched case
// insensitively with surrounding space and inner spaces or hyphens ignored.
func Canonical(unit string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(unit))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if name, ok := aliases[key]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
}

// ToMeters converts value expressed in unit to meters.
func ToMeters(value float64, unit string) (float64, error) {
	name, err := Canonical(unit)
	if err != nil {
		return 0, err
	}
	return value * factors[name], nil
}

// Policy selects how a boundary's unit tags are resolved.
type Policy int

const (
	// PerSegment applies each segment's own tag. Untagged setbacks inherit
	// the single unit declared on the boundary.
	PerSegment Policy = iota

	// FirstDistinct applies one unit to every setback: the first distinct
	// tag in segment order, or the second when the first is missing.
	FirstDistinct
)

func (p Policy) String() string {
	switch p {
	case PerSegment:
		return "per_segment"
	case FirstDistinct:
		return "first_distinct"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses the configuration spelling of a policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per_segment", "per-segment":
		return PerSegment, nil
	case "first_distinct", "first-distinct":
		return FirstDistinct, nil
	}
	return 0, fmt.Errorf("unknown unit policy %q", s)
}

// Tag is the unit information of one segment.
type Tag struct {
	Unit       string // "" when the segment carries no unit
	HasSetback bool
}

// Resolve returns the canonical unit for every tag, in order. Entries for
// segments without a setback are "". defaultUnit, when not empty, is used
// where the tags declare no unit at all.
func Resolve(tags []Tag, policy Policy, defaultUnit string) ([]string, error) {
	switch policy {
	case PerSegment:
		return resolvePerSegment(tags, defaultUnit)
	case FirstDistinct:
		return resolveFirstDistinct(tags, defaultUnit)
	}
	return nil, fmt.Errorf("unknown unit policy %v", policy)
}

func resolvePerSegment(tags []Tag, defaultUnit string) ([]string, error) {
	declared, err := declaredUnits(tags)
	if err != nil {
		return nil, err
	}

	var fallback string
	switch len(declared) {
	case 0:
		if defaultUnit != "" {
			if fallback, err = Canonical(defaultUnit); err != nil {
				return nil, err
			}
		}
	case 1:
		fallback = declared[0]
	}

	out := make([]string, len(tags))
	for i, t := range tags {
		if !t.HasSetback {
			continue
		}
		if t.Unit != "" {
			name, err := Canonical(t.Unit)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			out[i] = name
			continue
		}
		switch {
		case fallback != "":
			out[i] = fallback
		case len(declared) > 1:
			return nil, fmt.Errorf("%w: segment %d has no unit and the boundary declares %s",
				ErrAmbiguousUnits, i, strings.Join(declared, ", "))
		default:
			return nil, fmt.Errorf("%w: segment %d", ErrMissingUnit, i)
		}
	}
	return out, nil
}

func resolveFirstDistinct(tags []Tag, defaultUnit string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	// Distinct values in enumeration order, the missing tag included.
	distinct := lo.Uniq(lo.Map(tags, func(t Tag, _ int) string { return strings.TrimSpace(t.Unit) }))
	if len(distinct) > 2 {
		return nil, fmt.Errorf("%w: %d distinct unit values %q", ErrAmbiguousUnits, len(distinct), distinct)
	}

	unit := distinct[0]
	if unit == "" && len(distinct) > 1 {
		unit = distinct[1]
	}
	if unit == "" {
		unit = defaultUnit
	}
	if unit == "" {
		if lo.ContainsBy(tags, func(t Tag) bool { return t.HasSetback }) {
			return nil, ErrMissingUnit
		}
		return make([]string, len(tags)), nil
	}
	name, err := Canonical(unit)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(tags))
	for i, t := range tags {
		if t.HasSetback {
			out[i] = name
		}
	}
	return out, nil
}

// declaredUnits returns the distinct canonical units of tags, in order.
func declaredUnits(tags []Tag) ([]string, error) {
	var names []string
	for i, t := range tags {
		if t.Unit == "" {
			continue
		}
		name, err := Canonical(t.Unit)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		names = append(names, name)
	}
	return lo.Uniq(names), nil
}
