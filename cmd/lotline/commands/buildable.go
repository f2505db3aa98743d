package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/chazu/lotline/pkg/buildable"
	"github.com/chazu/lotline/pkg/parcel"
	"github.com/chazu/lotline/pkg/render"
)

// BuildableCmd implements the 'buildable' command.
type BuildableCmd struct {
	In       string            `short:"i" required:"" help:"GeoJSON boundary segments grouped by parcel_id" type:"existingfile"`
	Out      string            `short:"o" default:"-" help:"Output GeoJSON file ('-' for stdout)"`
	Kernel   string            `short:"k" help:"Override the geometry kernel (polyclip or geos)"`
	Workers  int               `short:"w" help:"Override the number of parcels computed in parallel"`
	District string            `short:"d" help:"District JSON; when set, setbacks are assigned from its constraints first" type:"existingfile"`
	Var      map[string]string `short:"V" help:"Building or parcel variable for constraint expressions (name=value)"`
	Render   string            `short:"r" help:"Directory to write one PNG per parcel into" type:"path"`
	Size     int               `default:"512" help:"Rendered image size in pixels"`
	Strict   bool              `help:"Fail when any parcel fails"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (c *BuildableCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if c.Kernel != "" {
		cfg.Kernel = c.Kernel
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}

	calc, flush, err := newCalculator(cfg, g)
	if err != nil {
		return err
	}
	bs, err := readBoundaries(c.In)
	if err != nil {
		return err
	}
	if c.District != "" {
		d, err := readDistrict(c.District)
		if err != nil {
			return err
		}
		if bs, err = assignSetbacks(g.Ctx, newEngine(cfg), d, parseVars(c.Var), bs, g.Logger); err != nil {
			return err
		}
	}

	g.Logger.Info("Computing buildable areas", "parcels", len(bs), "kernel", cfg.Kernel, "workers", cfg.Workers)
	var results []buildable.Result
	if c.Render != "" {
		results, err = c.computeAndRender(g, calc, bs)
		if err != nil {
			return err
		}
	} else {
		results = calc.ComputeAll(g.Ctx, bs, cfg.Workers)
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			g.Logger.Warn("Buildable area failed", "parcel_id", r.ParcelID, "error", r.Err)
		}
	}
	g.Logger.Info("Buildable areas computed", "parcels", len(results), "failed", failed)

	if err := writeJSON(g.Stdout, c.Out, buildableFeatures(results, bs)); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	if c.Strict && failed > 0 {
		return fmt.Errorf("%d of %d parcels failed", failed, len(results))
	}
	return nil
}

// computeAndRender computes parcels one at a time, keeping the stages of
// each for its image.
func (c *BuildableCmd) computeAndRender(g *Global, calc *buildable.Calculator, bs []parcel.Boundary) ([]buildable.Result, error) {
	if err := os.MkdirAll(c.Render, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create render directory: %w", err)
	}
	results := make([]buildable.Result, len(bs))
	for i, b := range bs {
		st, err := calc.ComputeStages(g.Ctx, b)
		results[i] = buildable.Result{ParcelID: b.ID, Area: st.Result, Err: err}

		scene := render.Scene{Parcel: st.Parcel, Excluded: st.Excluded}
		if st.Result != nil {
			scene.Buildable = st.Result.Polygon
		}
		if len(scene.Parcel) == 0 && len(scene.Buildable) == 0 {
			continue
		}
		path := filepath.Join(c.Render, unsafeName.ReplaceAllString(b.ID, "_")+".png")
		if err := render.SavePNG(path, scene, c.Size); err != nil {
			return nil, fmt.Errorf("parcel %s: %w", b.ID, err)
		}
		g.Logger.Debug("Rendered parcel", "parcel_id", b.ID, "path", path)
	}
	return results, nil
}
