// Package metrics records pipeline stage durations and computation
// outcomes. Components take a Recorder; NoopRecorder is the default and
// PrometheusRecorder forwards to a Prometheus registry.
package metrics

import "time"

// Outcome labels the final status of one buildable-area computation.
type Outcome string

const (
	OutcomeBuildable  Outcome = "buildable"
	OutcomeUnmodified Outcome = "unmodified"
	OutcomeNoArea     Outcome = "no_buildable_area"
	OutcomeMalformed  Outcome = "malformed_boundary"
	OutcomeInvalid    Outcome = "invalid_input"
	OutcomeCanceled   Outcome = "canceled"
	OutcomeFailed     Outcome = "failed"
)

// Recorder defines observability hooks for the pipeline.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncOutcome(outcome Outcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncOutcome(Outcome)                         {}
