package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/chazu/lotline/pkg/buildable"
	"github.com/chazu/lotline/pkg/parcel"
)

// Feature properties understood on boundary segments.
const (
	propParcelID   = "parcel_id"
	propSetback    = "setback"
	propUnit       = "unit"
	propSide       = "side"
	propOnBoundary = "on_boundary"
	propArea       = "area"
	propUnmodified = "unmodified"
)

func readFeatures(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return fc, nil
}

// readBoundaries decodes a FeatureCollection of boundary segments. Features
// are grouped into parcels by their parcel_id property, in first-seen order.
func readBoundaries(path string) ([]parcel.Boundary, error) {
	fc, err := readFeatures(path)
	if err != nil {
		return nil, err
	}
	crs := crsName(fc.ExtraMembers)

	var out []parcel.Boundary
	index := make(map[string]int)
	for i, f := range fc.Features {
		id, err := parcelID(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		segs, err := segments(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d (parcel %s): %w", i, id, err)
		}
		n, ok := index[id]
		if !ok {
			n = len(out)
			index[id] = n
			out = append(out, parcel.Boundary{ID: id, CRS: crs})
		}
		out[n].Segments = append(out[n].Segments, segs...)
	}
	return out, nil
}

// crsName returns the name of a legacy "crs" member, "" when absent.
func crsName(members geojson.Properties) string {
	crs, ok := members["crs"].(map[string]any)
	if !ok {
		return ""
	}
	props, ok := crs["properties"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}

func parcelID(f *geojson.Feature) (string, error) {
	switch v := f.Properties[propParcelID].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("missing %s property", propParcelID)
}

// segments turns one feature into boundary segments sharing the feature's
// setback attributes. Polygon rings become one closed segment each.
func segments(f *geojson.Feature) ([]parcel.Segment, error) {
	var lines []orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		lines = []orb.LineString{g}
	case orb.MultiLineString:
		lines = g
	case orb.Polygon:
		for _, r := range g {
			lines = append(lines, orb.LineString(r))
		}
	case nil:
		return nil, fmt.Errorf("feature has no geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}

	var setback *float64
	switch v := f.Properties[propSetback].(type) {
	case nil:
	case float64:
		setback = parcel.Float(v)
	default:
		return nil, fmt.Errorf("%s must be a number, got %T", propSetback, v)
	}
	unit, _ := f.Properties[propUnit].(string)
	side, _ := f.Properties[propSide].(string)
	onBoundary, _ := f.Properties[propOnBoundary].(bool)

	out := make([]parcel.Segment, 0, len(lines))
	for _, ls := range lines {
		s := parcel.Segment{
			Geometry:   ls,
			Unit:       unit,
			Side:       parcel.ParseSide(side),
			OnBoundary: onBoundary,
		}
		if setback != nil {
			s.Setback = parcel.Float(*setback)
		}
		out = append(out, s)
	}
	return out, nil
}

// boundaryFeatures encodes parcels as one feature per segment, the inverse
// of readBoundaries.
func boundaryFeatures(bs []parcel.Boundary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, b := range bs {
		for _, s := range b.Segments {
			f := geojson.NewFeature(s.Geometry)
			f.Properties[propParcelID] = b.ID
			if s.Setback != nil {
				f.Properties[propSetback] = *s.Setback
			}
			if s.Unit != "" {
				f.Properties[propUnit] = s.Unit
			}
			if s.Side != parcel.SideUnknown {
				f.Properties[propSide] = string(s.Side)
			}
			if s.OnBoundary {
				f.Properties[propOnBoundary] = true
			}
			fc.Append(f)
		}
	}
	setCRS(fc, bs)
	return fc
}

// buildableFeatures encodes computed areas. Failed parcels are listed under
// a "failures" member with their error instead of as features.
func buildableFeatures(results []buildable.Result, bs []parcel.Boundary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var failures []map[string]any
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, map[string]any{
				propParcelID: r.ParcelID,
				"error":      r.Err.Error(),
			})
			continue
		}
		f := geojson.NewFeature(r.Area.Polygon)
		f.Properties[propParcelID] = r.ParcelID
		f.Properties[propArea] = r.Area.Area
		f.Properties[propUnmodified] = r.Area.Unmodified
		fc.Append(f)
	}
	setCRS(fc, bs)
	if len(failures) > 0 {
		if fc.ExtraMembers == nil {
			fc.ExtraMembers = geojson.Properties{}
		}
		fc.ExtraMembers["failures"] = failures
	}
	return fc
}

func setCRS(fc *geojson.FeatureCollection, bs []parcel.Boundary) {
	if len(bs) == 0 || bs[0].CRS == "" {
		return
	}
	fc.ExtraMembers = geojson.Properties{
		"crs": map[string]any{
			"type":       "name",
			"properties": map[string]any{"name": bs[0].CRS},
		},
	}
}

// readAreas decodes polygons written by the buildable command, keyed by
// parcel in file order.
func readAreas(path string) ([]string, []orb.Polygon, error) {
	fc, err := readFeatures(path)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(fc.Features))
	polys := make([]orb.Polygon, 0, len(fc.Features))
	for i, f := range fc.Features {
		id, err := parcelID(f)
		if err != nil {
			return nil, nil, fmt.Errorf("feature %d: %w", i, err)
		}
		p, ok := f.Geometry.(orb.Polygon)
		if !ok {
			return nil, nil, fmt.Errorf("feature %d (parcel %s): want a Polygon geometry", i, id)
		}
		ids = append(ids, id)
		polys = append(polys, p)
	}
	return ids, polys, nil
}

// writeJSON writes v to path, or to w when path is "" or "-".
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
