package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	projectDuration *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	lastBuild       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "autodox",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual conversion stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.projectDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "autodox",
			Name:      "project_duration_seconds",
			Help:      "Duration of per-project conversions",
			Buckets:   prom.DefBuckets,
		}, []string{"project", "result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "autodox",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autodox",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autodox",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.lastBuild = prom.NewGauge(prom.GaugeOpts{
			Namespace: "autodox",
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time of the last completed build",
		})
		reg.MustRegister(pr.stageDuration, pr.projectDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.lastBuild)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveProjectDuration(project string, d time.Duration, success bool) {
	if p == nil || p.projectDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.projectDuration.WithLabelValues(project, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetLastBuildTimestamp(t time.Time) {
	if p == nil || p.lastBuild == nil {
		return
	}
	p.lastBuild.Set(float64(t.Unix()))
}
