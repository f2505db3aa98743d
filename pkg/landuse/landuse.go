// Package landuse parses zoning district metadata and answers whether a
// building type is a permitted use in a district.
package landuse

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/xeipuuv/gojsonschema"
)

// Other is the building type of a building that cannot be classified.
const Other = "other"

// ErrInvalidDistrict is returned when district metadata fails schema
// validation.
var ErrInvalidDistrict = errors.New("invalid district")

//go:embed district.schema.json
var districtSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(districtSchema)

// District is the metadata of one zoning district.
type District struct {
	ID            string `json:"id"`
	UsesPermitted struct {
		Values []string `json:"uses_value"`
	} `json:"uses_permitted"`

	// Constraints is kept raw; zoning parses it.
	Constraints json.RawMessage `json:"constraints,omitempty"`

	// Boundary is the district outline, when known.
	Boundary orb.Ring `json:"boundary,omitempty"`
}

// Permitted returns the permitted uses, nil when none are recorded.
func (d *District) Permitted() []string {
	if d == nil {
		return nil
	}
	return d.UsesPermitted.Values
}

// ParseDistrict validates blob against the district schema and decodes it.
func ParseDistrict(blob []byte) (*District, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDistrict, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDistrict, strings.Join(msgs, "; "))
	}

	var d District
	if err := json.Unmarshal(blob, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDistrict, err)
	}
	return &d, nil
}

// Allowed reports whether buildingType is a permitted use. An
// unclassifiable building type or an empty permitted list is never allowed.
func Allowed(buildingType string, permitted []string) bool {
	if buildingType == "" || buildingType == Other {
		return false
	}
	for _, use := range permitted {
		if use == buildingType {
			return true
		}
	}
	return false
}

// BuildingType classifies a building from its attributes: the "type"
// attribute when it is a non-empty string, otherwise Other.
func BuildingType(attrs map[string]any) string {
	if t, ok := attrs["type"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return Other
}
