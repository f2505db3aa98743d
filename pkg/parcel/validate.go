package parcel

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidBoundary wraps error-severity validation findings.
	ErrInvalidBoundary = errors.New("invalid boundary")

	// ErrGeographicCRS is returned when coordinates are angular rather than
	// planar, so buffer distances and areas would be meaningless.
	ErrGeographicCRS = errors.New("geographic coordinate system")
)

// ValidationSeverity indicates whether a validation finding blocks the
// computation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks computation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Segment  int                // segment index, -1 if boundary-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] segment %d: %s", e.Severity, e.Segment, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError

	geographic bool
}

// Err returns nil when there are no blocking findings. Otherwise the error
// wraps ErrGeographicCRS or ErrInvalidBoundary.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	sentinel := ErrInvalidBoundary
	if r.geographic {
		sentinel = ErrGeographicCRS
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, "; "))
}

// ValidateOptions tunes validation.
type ValidateOptions struct {
	// AssumePlanar skips the coordinate-range heuristic for boundaries
	// without a declared CRS.
	AssumePlanar bool

	// RequireSides warns about segments without a side label.
	RequireSides bool
}

// geographicCRS lists identifiers of angular coordinate systems.
var geographicCRS = map[string]bool{
	"EPSG:4326":                     true,
	"EPSG:4269":                     true,
	"EPSG:4258":                     true,
	"EPSG:4267":                     true,
	"CRS84":                         true,
	"OGC:CRS84":                     true,
	"URN:OGC:DEF:CRS:OGC:1.3:CRS84": true,
	"URN:OGC:DEF:CRS:EPSG::4326":    true,
	"HTTP://WWW.OPENGIS.NET/DEF/CRS/EPSG/0/4326": true,
}

// Validate checks b and returns every finding. It never mutates b.
func Validate(b Boundary, opts ValidateOptions) ValidationResult {
	var r ValidationResult

	if len(b.Segments) == 0 {
		r.Errors = append(r.Errors, ValidationError{Segment: -1, Message: "boundary has no segments"})
		return r
	}

	for i, s := range b.Segments {
		for _, e := range validateSegment(s, opts) {
			e.Segment = i
			if e.Severity == SeverityError {
				r.Errors = append(r.Errors, e)
			} else {
				r.Warnings = append(r.Warnings, e)
			}
		}
	}

	if e, ok := validateCRS(b, opts); !ok {
		r.Errors = append(r.Errors, e)
		r.geographic = true
	}
	return r
}

func validateSegment(s Segment, opts ValidateOptions) []ValidationError {
	var errs []ValidationError

	distinct := 0
	for i, p := range s.Geometry {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			errs = append(errs, ValidationError{Message: "non-finite coordinate"})
			break
		}
		if i == 0 || p != s.Geometry[i-1] {
			distinct++
		}
	}
	if distinct < 2 {
		errs = append(errs, ValidationError{Message: "geometry needs at least two distinct vertices"})
	}

	if s.Setback != nil {
		switch v := *s.Setback; {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = append(errs, ValidationError{Message: "setback is not a finite number"})
		case v < 0:
			errs = append(errs, ValidationError{Message: fmt.Sprintf("setback %v is negative", v)})
		}
	}

	if opts.RequireSides && s.Side == SideUnknown {
		errs = append(errs, ValidationError{
			Message:  "no side label; zoning setbacks will not apply",
			Severity: SeverityWarning,
		})
	}
	return errs
}

// validateCRS enforces the planar precondition. A declared geographic CRS
// always fails. Without a declaration, coordinates that all fit in
// longitude/latitude ranges and span less than one unit are taken to be
// degrees.
func validateCRS(b Boundary, opts ValidateOptions) (ValidationError, bool) {
	if b.CRS != "" {
		if geographicCRS[strings.ToUpper(strings.TrimSpace(b.CRS))] {
			return ValidationError{
				Segment: -1,
				Message: fmt.Sprintf("CRS %s is geographic; reproject to a planar CRS", b.CRS),
			}, false
		}
		return ValidationError{}, true
	}
	if opts.AssumePlanar {
		return ValidationError{}, true
	}

	bound := b.Bound()
	inRange := bound.Min[0] >= -180 && bound.Max[0] <= 180 && bound.Min[1] >= -90 && bound.Max[1] <= 90
	small := bound.Max[0]-bound.Min[0] < 1 && bound.Max[1]-bound.Min[1] < 1
	if inRange && small {
		return ValidationError{
			Segment: -1,
			Message: "coordinates look like longitude/latitude degrees; declare a planar CRS or assume planar",
		}, false
	}
	return ValidationError{}, true
}
