package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/chazu/lotline/pkg/engine"
	"github.com/chazu/lotline/pkg/landuse"
	"github.com/chazu/lotline/pkg/parcel"
	"github.com/chazu/lotline/pkg/zoning"
)

// SetbacksCmd implements the 'setbacks' command.
type SetbacksCmd struct {
	In       string            `short:"i" required:"" help:"GeoJSON boundary segments" type:"existingfile"`
	Out      string            `short:"o" default:"-" help:"Output GeoJSON file ('-' for stdout)"`
	District string            `short:"d" required:"" help:"District JSON with constraints" type:"existingfile"`
	Var      map[string]string `short:"V" help:"Building or parcel variable for constraint expressions (name=value)"`
}

func (s *SetbacksCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	bs, err := readBoundaries(s.In)
	if err != nil {
		return err
	}
	d, err := readDistrict(s.District)
	if err != nil {
		return err
	}
	bs, err = assignSetbacks(g.Ctx, newEngine(cfg), d, parseVars(s.Var), bs, g.Logger)
	if err != nil {
		return err
	}
	return writeJSON(g.Stdout, s.Out, boundaryFeatures(bs))
}

func readDistrict(path string) (*landuse.District, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return landuse.ParseDistrict(data)
}

// parseVars types each value: numbers, then booleans, else strings.
func parseVars(raw map[string]string) engine.Vars {
	vars := make(engine.Vars, len(raw))
	for k, v := range raw {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			vars[k] = f
		} else if b, err := strconv.ParseBool(v); err == nil {
			vars[k] = b
		} else {
			vars[k] = v
		}
	}
	return vars
}

// assignSetbacks resolves the district constraints once and applies them to
// every parcel. Resolution notes and assignment warnings are logged.
func assignSetbacks(ctx context.Context, eng *engine.Engine, d *landuse.District, vars engine.Vars, bs []parcel.Boundary, log *slog.Logger) ([]parcel.Boundary, error) {
	cs, err := zoning.ParseConstraints(d.Constraints)
	if err != nil {
		return nil, fmt.Errorf("district %s: %w", d.ID, err)
	}
	reqs, err := zoning.NewResolver(eng).Resolve(ctx, cs, vars)
	if err != nil {
		return nil, fmt.Errorf("district %s: %w", d.ID, err)
	}
	for _, name := range cs.Names() {
		r, ok := reqs[name]
		if !ok {
			continue
		}
		if r.MinNote != "" {
			log.Warn("Constraint minimum unresolved", "district", d.ID, "constraint", name, "note", r.MinNote)
		}
		if r.MaxNote != "" {
			log.Debug("Constraint maximum unresolved", "district", d.ID, "constraint", name, "note", r.MaxNote)
		}
	}

	out := make([]parcel.Boundary, len(bs))
	for i, b := range bs {
		nb, warnings, err := zoning.ApplySetbacks(b, reqs, d.Boundary)
		if err != nil {
			return nil, fmt.Errorf("parcel %s: %w", b.ID, err)
		}
		for _, w := range warnings {
			log.Warn("Setback assignment incomplete", "parcel_id", b.ID, "warning", w)
		}
		out[i] = nb
	}
	return out, nil
}
