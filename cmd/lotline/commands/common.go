package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/lotline/pkg/buildable"
	"github.com/chazu/lotline/pkg/config"
	"github.com/chazu/lotline/pkg/engine"
	"github.com/chazu/lotline/pkg/kernel"
	"github.com/chazu/lotline/pkg/metrics"

	// Geometry backends register themselves by name.
	_ "github.com/chazu/lotline/pkg/kernel/clip"
	_ "github.com/chazu/lotline/pkg/kernel/geos"
)

// Global is the state shared by every subcommand.
type Global struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	RunID  string
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (built-in defaults when empty)" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Buildable BuildableCmd `cmd:"" help:"Compute the buildable area of every parcel in a GeoJSON file"`
	Setbacks  SetbacksCmd  `cmd:"" help:"Assign zoning setbacks to parcel boundary segments"`
	Landuse   LanduseCmd   `cmd:"" help:"Check whether a building type is a permitted use of a district"`
	Fit       FitCmd       `cmd:"" help:"Check whether a building footprint fits inside buildable areas"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", g.RunID)
	slog.SetDefault(g.Logger)
	return nil
}

// LoadConfig returns the configuration named by --config, or the defaults.
func (c *CLI) LoadConfig() (*config.Config, error) {
	if c.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Run parses args and executes the selected command.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	g := &Global{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.Default(),
		RunID:  uuid.NewString(),
	}

	parser, err := kong.New(&cli,
		kong.Name("lotline"),
		kong.Description("Buildable-area computation for land parcels."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
		kong.Bind(g, &cli),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run()
}

// newCalculator builds a calculator for cfg. The returned flush writes the
// collected metrics when a metrics file is configured.
func newCalculator(cfg *config.Config, g *Global) (*buildable.Calculator, func() error, error) {
	k, err := kernel.ByName(cfg.Kernel)
	if err != nil {
		return nil, nil, err
	}

	opts := []buildable.Option{
		buildable.WithConfig(cfg.Buildable()),
		buildable.WithLogger(g.Logger),
	}
	flush := func() error { return nil }
	if cfg.MetricsFile != "" {
		reg := prom.NewRegistry()
		opts = append(opts, buildable.WithRecorder(metrics.NewPrometheusRecorder(reg)))
		flush = func() error {
			if err := prom.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		}
	}
	return buildable.New(k, opts...), flush, nil
}

func newEngine(cfg *config.Config) *engine.Engine {
	return engine.NewEngine(engine.WithTimeout(cfg.Timeout()))
}
