package commands

import (
	"fmt"

	"github.com/chazu/lotline/pkg/footprint"
	"github.com/chazu/lotline/pkg/kernel/sdfx"
)

// FitCmd implements the 'fit' command.
type FitCmd struct {
	In    string  `short:"i" required:"" help:"GeoJSON buildable areas written by the buildable command" type:"existingfile"`
	Out   string  `short:"o" default:"-" help:"Output JSON file ('-' for stdout)"`
	Width float64 `required:"" help:"Footprint width"`
	Depth float64 `required:"" help:"Footprint depth"`
}

// FitReport is the result for one parcel.
type FitReport struct {
	ParcelID string  `json:"parcel_id"`
	Fits     bool    `json:"fits"`
	Rotation float64 `json:"rotation"`
}

func (f *FitCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ids, polys, err := readAreas(f.In)
	if err != nil {
		return err
	}

	checker := footprint.NewChecker(sdfx.New(),
		footprint.WithCell(cfg.FitCell),
		footprint.WithRotations(cfg.FitRotations),
	)
	dims := []footprint.Dims{{Width: f.Width, Depth: f.Depth}}

	reports := make([]FitReport, 0, len(ids))
	for i, id := range ids {
		if err := g.Ctx.Err(); err != nil {
			return err
		}
		fits, err := checker.Check(polys[i], dims)
		if err != nil {
			return fmt.Errorf("parcel %s: %w", id, err)
		}
		reports = append(reports, FitReport{ParcelID: id, Fits: fits[0].Fits, Rotation: fits[0].Rotation})
	}
	g.Logger.Info("Footprints checked", "parcels", len(reports), "width", f.Width, "depth", f.Depth)
	return writeJSON(g.Stdout, f.Out, reports)
}
