// Package build orchestrates the per-project conversion pipeline: doxyfile
// assembly, doxygen generation, doxysphinx conversion, HTML post-processing,
// and output registration.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ekumenlabs/autodox/internal/config"
	"github.com/ekumenlabs/autodox/internal/doxyfile"
	"github.com/ekumenlabs/autodox/internal/doxygen"
	"github.com/ekumenlabs/autodox/internal/doxysphinx"
	apperrors "github.com/ekumenlabs/autodox/internal/errors"
	"github.com/ekumenlabs/autodox/internal/history"
	"github.com/ekumenlabs/autodox/internal/logfields"
	"github.com/ekumenlabs/autodox/internal/metrics"
	"github.com/ekumenlabs/autodox/internal/registry"
)

// DoxygenRunner abstracts the doxygen binary so the pipeline is testable
// without the tool installed.
type DoxygenRunner interface {
	Run(ctx context.Context, dir, doxyfilePath string) error
	EffectiveConfig(ctx context.Context, dir, doxyfilePath string) (*doxyfile.Config, error)
}

// Converter abstracts the doxysphinx binary.
type Converter interface {
	Build(ctx context.Context, dir, sourceRoot, outputRoot, htmlDir string) error
}

// SourceFetcher fetches remote project sources into a local directory.
type SourceFetcher interface {
	FetchSource(name string, src *config.GitSource) (string, error)
}

// Options tune a single build run.
type Options struct {
	// Project restricts the build to one configured project.
	Project string
	// KeepGoing records a project failure and continues instead of aborting.
	KeepGoing bool
}

// ProjectResult is the outcome of one project's conversion.
type ProjectResult struct {
	Project  string
	Entry    registry.Entry
	Duration time.Duration
	Err      error
}

// Result is the outcome of a whole build run.
type Result struct {
	BuildID      string
	Duration     time.Duration
	Projects     []ProjectResult
	Registry     *registry.Registry
	ManifestPath string
	Failed       int
}

// Builder runs the conversion pipeline for every configured project.
type Builder struct {
	cfg            *config.Config
	doxygenFactory func(exe string) DoxygenRunner
	converter      Converter
	fetcher        SourceFetcher
	recorder       metrics.Recorder
	hist           *history.Store
}

// NewBuilder creates a builder with production runners.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg: cfg,
		doxygenFactory: func(exe string) DoxygenRunner {
			return doxygen.NewRunner(exe)
		},
		converter: doxysphinx.NewRunner(""),
		recorder:  metrics.NoopRecorder{},
	}
}

// WithDoxygenFactory injects a custom doxygen runner factory (for testing).
func (b *Builder) WithDoxygenFactory(f func(exe string) DoxygenRunner) *Builder {
	b.doxygenFactory = f
	return b
}

// WithConverter injects a custom converter (for testing).
func (b *Builder) WithConverter(c Converter) *Builder { b.converter = c; return b }

// WithFetcher injects a source fetcher for git-sourced projects.
func (b *Builder) WithFetcher(f SourceFetcher) *Builder { b.fetcher = f; return b }

// WithRecorder injects a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithHistory injects a build history store.
func (b *Builder) WithHistory(h *history.Store) *Builder { b.hist = h; return b }

// Run converts every configured project in sorted name order, writes the
// manifest, and returns the aggregated result. The first project failure
// aborts the run unless opts.KeepGoing is set; the returned error then
// identifies the offending project.
func (b *Builder) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{
		BuildID:  uuid.NewString(),
		Registry: registry.New(),
	}

	names := b.cfg.SortedProjectNames()
	if opts.Project != "" {
		if _, ok := b.cfg.Projects[opts.Project]; !ok {
			return nil, apperrors.ConfigError(fmt.Sprintf("project %q not found in configuration", opts.Project))
		}
		names = []string{opts.Project}
	}

	slog.Info("Starting documentation build",
		logfields.BuildID(result.BuildID),
		slog.Int("projects", len(names)),
		slog.String("outdir", b.cfg.Outdir))

	var firstErr error
	for _, name := range names {
		pr := b.buildProject(ctx, result.BuildID, name, b.cfg.Projects[name], result.Registry)
		result.Projects = append(result.Projects, pr)

		b.recorder.ObserveProjectDuration(name, pr.Duration, pr.Err == nil)
		b.recordHistory(ctx, result.BuildID, pr)

		if pr.Err != nil {
			result.Failed++
			if firstErr == nil {
				firstErr = pr.Err
			}
			if !opts.KeepGoing {
				break
			}
			slog.Warn("Project failed, continuing", logfields.Project(name), logfields.Error(pr.Err))
		}
	}

	result.Duration = time.Since(start)
	b.recorder.ObserveBuildDuration(result.Duration)

	outcome := "success"
	if firstErr != nil {
		outcome = "failed"
	}
	b.recorder.IncBuildOutcome(outcome)
	b.recorder.SetLastBuildTimestamp(time.Now())

	if result.Registry.Len() > 0 {
		if path, err := b.writeManifest(result); err != nil {
			slog.Warn("Failed to write manifest", logfields.Error(err))
		} else {
			result.ManifestPath = path
		}
	}

	slog.Info("Documentation build finished",
		logfields.BuildID(result.BuildID),
		logfields.Status(outcome),
		slog.Int("registered", result.Registry.Len()),
		slog.Int("failed", result.Failed),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))

	return result, firstErr
}

func (b *Builder) recordHistory(ctx context.Context, buildID string, pr ProjectResult) {
	if b.hist == nil {
		return
	}
	rec := history.Record{
		BuildID:    buildID,
		Project:    pr.Project,
		Status:     history.StatusSuccess,
		DurationMS: pr.Duration.Milliseconds(),
	}
	if pr.Err != nil {
		rec.Status = history.StatusFailed
		rec.Error = pr.Err.Error()
	}
	if err := b.hist.Append(ctx, rec); err != nil {
		slog.Warn("Failed to record build history", logfields.Project(pr.Project), logfields.Error(err))
	}
}

func (b *Builder) writeManifest(result *Result) (string, error) {
	tools := registry.ToolVersions{
		Doxygen:    doxygen.DetectVersion(context.Background(), b.cfg.DoxygenExe),
		Doxysphinx: doxysphinx.DetectVersion(context.Background(), ""),
	}
	manifest := registry.NewManifest(result.BuildID, b.cfg.Outdir, tools, result.Registry, result.Duration)
	return manifest.WriteFile(b.outputRoot())
}
