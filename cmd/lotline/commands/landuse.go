package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/lotline/pkg/landuse"
)

// LanduseCmd implements the 'landuse' command.
type LanduseCmd struct {
	District string `short:"d" required:"" help:"District JSON" type:"existingfile"`
	Type     string `short:"t" help:"Building type" xor:"building"`
	Building string `short:"b" help:"JSON file of building attributes; the type attribute classifies it" type:"existingfile" xor:"building"`
}

// LanduseReport is the output of the landuse command.
type LanduseReport struct {
	District     string `json:"district"`
	BuildingType string `json:"building_type"`
	Allowed      bool   `json:"allowed"`
}

func (l *LanduseCmd) Run(g *Global) error {
	d, err := readDistrict(l.District)
	if err != nil {
		return err
	}

	bldgType := l.Type
	if l.Building != "" {
		data, err := os.ReadFile(l.Building)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", l.Building, err)
		}
		var attrs map[string]any
		if err := json.Unmarshal(data, &attrs); err != nil {
			return fmt.Errorf("failed to decode %s: %w", l.Building, err)
		}
		bldgType = landuse.BuildingType(attrs)
	}

	report := LanduseReport{
		District:     d.ID,
		BuildingType: bldgType,
		Allowed:      landuse.Allowed(bldgType, d.Permitted()),
	}
	g.Logger.Debug("Land use checked", "district", d.ID, "building_type", bldgType, "allowed", report.Allowed)
	return writeJSON(g.Stdout, "-", report)
}
