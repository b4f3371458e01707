package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("doxygen", time.Second)
	r.ObserveProjectDuration("libfoo", time.Second, true)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("doxygen", ResultSuccess)
	r.IncBuildOutcome("success")
	r.SetLastBuildTimestamp(time.Now())
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("doxygen", 250*time.Millisecond)
	pr.ObserveProjectDuration("libfoo", time.Second, true)
	pr.ObserveProjectDuration("libbar", time.Second, false)
	pr.ObserveBuildDuration(2 * time.Second)
	pr.IncStageResult("convert", ResultFailed)
	pr.IncBuildOutcome("success")
	pr.SetLastBuildTimestamp(time.Unix(1700000000, 0))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["autodox_stage_duration_seconds"])
	assert.True(t, names["autodox_project_duration_seconds"])
	assert.True(t, names["autodox_build_duration_seconds"])
	assert.True(t, names["autodox_stage_results_total"])
	assert.True(t, names["autodox_build_outcomes_total"])
	assert.True(t, names["autodox_last_build_timestamp_seconds"])
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("doxygen", time.Second)
	pr.IncBuildOutcome("failed")
}
