package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveProjectDuration(project string, d time.Duration, success bool)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed
	SetLastBuildTimestamp(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)           {}
func (NoopRecorder) ObserveProjectDuration(string, time.Duration, bool)   {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                   {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                   {}
func (NoopRecorder) IncBuildOutcome(string)                               {}
func (NoopRecorder) SetLastBuildTimestamp(time.Time)                      {}
