package landuse

import (
	"errors"
	"testing"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name      string
		bldg      string
		permitted []string
		want      bool
	}{
		{"permitted", "single_family", []string{"single_family", "duplex"}, true},
		{"not listed", "4_family", []string{"single_family", "duplex"}, false},
		{"empty list", "single_family", []string{}, false},
		{"nil list", "single_family", nil, false},
		{"unclassifiable", Other, []string{"other", "single_family"}, false},
		{"empty type", "", []string{""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.bldg, tt.permitted); got != tt.want {
				t.Errorf("Allowed(%q, %v) = %v, want %v", tt.bldg, tt.permitted, got, tt.want)
			}
		})
	}
}

func TestBuildingType(t *testing.T) {
	tests := []struct {
		attrs map[string]any
		want  string
	}{
		{map[string]any{"type": "duplex"}, "duplex"},
		{map[string]any{"type": "  townhouse "}, "townhouse"},
		{map[string]any{"type": ""}, Other},
		{map[string]any{"type": 3}, Other},
		{map[string]any{"width": 10}, Other},
		{nil, Other},
	}
	for _, tt := range tests {
		if got := BuildingType(tt.attrs); got != tt.want {
			t.Errorf("BuildingType(%v) = %q, want %q", tt.attrs, got, tt.want)
		}
	}
}

func TestParseDistrict(t *testing.T) {
	blob := []byte(`{
		"id": "R-1",
		"uses_permitted": {"uses_value": ["single_family", "duplex"]},
		"constraints": {
			"setback_front": {"unit": "feet", "min_val": [{"expression": ["25"]}]}
		},
		"boundary": [[0, 0], [100, 0], [100, 100], [0, 100], [0, 0]]
	}`)
	d, err := ParseDistrict(blob)
	if err != nil {
		t.Fatalf("ParseDistrict() error = %v", err)
	}
	if d.ID != "R-1" {
		t.Errorf("ID = %q, want R-1", d.ID)
	}
	if got := d.Permitted(); len(got) != 2 || got[0] != "single_family" {
		t.Errorf("Permitted() = %v", got)
	}
	if !Allowed("duplex", d.Permitted()) {
		t.Error("duplex should be allowed in R-1")
	}
	if len(d.Boundary) != 5 || d.Boundary[2][0] != 100 {
		t.Errorf("Boundary = %v", d.Boundary)
	}
	if len(d.Constraints) == 0 {
		t.Error("Constraints not kept")
	}
}

func TestParseDistrictWithoutUses(t *testing.T) {
	d, err := ParseDistrict([]byte(`{"id": "X"}`))
	if err != nil {
		t.Fatalf("ParseDistrict() error = %v", err)
	}
	if Allowed("single_family", d.Permitted()) {
		t.Error("Allowed() = true for a district without permitted uses")
	}
}

func TestParseDistrictInvalid(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{`},
		{"uses not a list", `{"uses_permitted": {"uses_value": "single_family"}}`},
		{"expression missing", `{"constraints": {"lot_width": {"min_val": [{"condition": ["true"]}]}}}`},
		{"bad min_max", `{"constraints": {"lot_width": {"min_val": [{"expression": ["1"], "min_max": "avg"}]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDistrict([]byte(tt.blob)); !errors.Is(err, ErrInvalidDistrict) {
				t.Errorf("ParseDistrict() error = %v, want ErrInvalidDistrict", err)
			}
		})
	}
}

func TestNilDistrictPermitted(t *testing.T) {
	var d *District
	if d.Permitted() != nil {
		t.Error("nil district has permitted uses")
	}
}
