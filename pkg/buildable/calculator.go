package buildable

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/chazu/lotline/pkg/kernel"
	"github.com/chazu/lotline/pkg/metrics"
	"github.com/chazu/lotline/pkg/parcel"
)

// Calculator runs the buildable-area pipeline on one kernel. It holds no
// per-parcel state, so one Calculator may serve concurrent callers as long
// as the kernel does.
type Calculator struct {
	kernel   kernel.Kernel
	cfg      Config
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(c *Calculator) { c.cfg = cfg }
}

// WithLogger sets the logger for stage-level debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Calculator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates a Calculator on k.
func New(k kernel.Kernel, opts ...Option) *Calculator {
	c := &Calculator{
		kernel:   k,
		cfg:      DefaultConfig(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kernel returns the geometry kernel the calculator runs on.
func (c *Calculator) Kernel() kernel.Kernel { return c.kernel }

// Stages holds the intermediate geometry of one computation, for
// rendering and debugging.
type Stages struct {
	Parcel   orb.MultiPolygon
	Excluded orb.MultiPolygon
	Result   *parcel.BuildableArea
}

// Compute returns the buildable area of b.
func (c *Calculator) Compute(ctx context.Context, b parcel.Boundary) (*parcel.BuildableArea, error) {
	st, err := c.ComputeStages(ctx, b)
	if err != nil {
		return nil, err
	}
	return st.Result, nil
}

// ComputeStages runs the pipeline like Compute and also returns the parcel
// polygon and the excluded region. On failure the stages completed so far
// are returned along with the error.
func (c *Calculator) ComputeStages(ctx context.Context, b parcel.Boundary) (*Stages, error) {
	st := &Stages{}
	log := c.logger.With("parcel_id", b.ID, "kernel", c.kernel.Name())

	err := c.run(ctx, b, st, log)
	c.recorder.IncOutcome(outcome(st, err))
	if err != nil {
		log.Debug("buildable area failed", "error", err)
		return st, err
	}
	log.Debug("buildable area computed",
		"area", st.Result.Area,
		"unmodified", st.Result.Unmodified)
	return st, nil
}

func (c *Calculator) run(ctx context.Context, b parcel.Boundary, st *Stages, log *slog.Logger) error {
	k := c.kernel

	err := c.stage(ctx, StageValidate, func() error {
		return parcel.Validate(b, parcel.ValidateOptions{AssumePlanar: c.cfg.AssumePlanar}).Err()
	})
	if err != nil {
		return err
	}

	var poly kernel.Geometry
	err = c.stage(ctx, StageAssemble, func() error {
		var err error
		if poly, err = Assemble(k, b); err != nil {
			return err
		}
		st.Parcel, err = k.MultiPolygon(poly)
		return err
	})
	if err != nil {
		return err
	}
	log.Debug("parcel assembled", "stage", StageAssemble, "area", poly.Area())

	if !b.HasSetbacks() {
		st.Result = &parcel.BuildableArea{
			ParcelID:   b.ID,
			Polygon:    st.Parcel[0],
			Area:       poly.Area(),
			Unmodified: true,
		}
		return nil
	}

	var excluded kernel.Geometry
	err = c.stage(ctx, StageErode, func() error {
		var err error
		if excluded, err = Erode(k, b, c.cfg); err != nil {
			return err
		}
		st.Excluded, err = k.MultiPolygon(excluded)
		return err
	})
	if err != nil {
		return err
	}
	log.Debug("setbacks eroded", "stage", StageErode, "excluded_area", excluded.Area())

	return c.stage(ctx, StageSelect, func() error {
		sel, err := Select(k, poly, excluded, c.cfg.AreaTolerance)
		if err != nil {
			return err
		}
		st.Result = &parcel.BuildableArea{
			ParcelID: b.ID,
			Polygon:  sel,
			Area:     kernel.PolygonArea(sel),
		}
		return nil
	})
}

// stage checks for cancellation, then runs fn and records its duration.
func (c *Calculator) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	c.recorder.ObserveStageDuration(name, time.Since(start))
	return err
}

func outcome(st *Stages, err error) metrics.Outcome {
	switch {
	case err == nil && st.Result.Unmodified:
		return metrics.OutcomeUnmodified
	case err == nil:
		return metrics.OutcomeBuildable
	case errors.Is(err, ErrNoBuildableArea):
		return metrics.OutcomeNoArea
	case errors.Is(err, ErrMalformedBoundary):
		return metrics.OutcomeMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case errors.Is(err, parcel.ErrInvalidBoundary), errors.Is(err, parcel.ErrGeographicCRS), isUnitError(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}

// Result pairs one parcel's buildable area with its error.
type Result struct {
	ParcelID string
	Area     *parcel.BuildableArea
	Err      error
}

// ComputeAll computes every boundary with up to workers goroutines. Results
// come back in input order. Parcels not started before ctx is done get the
// context error.
func (c *Calculator) ComputeAll(ctx context.Context, bs []parcel.Boundary, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(bs) {
		workers = len(bs)
	}

	results := make([]Result, len(bs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i].ParcelID = bs[i].ID
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Area, results[i].Err = c.Compute(ctx, bs[i])
			}
		}()
	}

	for i := range bs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
