package metrics

import "time"

// Outcome labels a finished build.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePartial Outcome = "partial"
)

// Embed lookup results.
const (
	EmbedHit   = "hit"
	EmbedMiss  = "miss"
	EmbedError = "error"
	EmbedLocal = "local"
)

// Recorder receives build observations.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome Outcome)
	IncRendered(context, variant string)
	IncEmbedLookup(provider, result string)
	IncCopiedFiles(n int)
}

// NoopRecorder drops every observation.
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(Outcome)                    {}
func (NoopRecorder) IncRendered(string, string)                 {}
func (NoopRecorder) IncEmbedLookup(string, string)              {}
func (NoopRecorder) IncCopiedFiles(int)                         {}

// Timer measures one phase and reports it on Stop.
type Timer struct {
	r     Recorder
	phase string
	start time.Time
}

// StartPhase starts timing phase.
func StartPhase(r Recorder, phase string) Timer {
	return Timer{r: r, phase: phase, start: time.Now()}
}

// Stop records the elapsed time and returns it.
func (t Timer) Stop() time.Duration {
	d := time.Since(t.start)
	if t.r != nil {
		t.r.ObservePhaseDuration(t.phase, d)
	}
	return d
}
