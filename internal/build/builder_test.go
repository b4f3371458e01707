package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekumenlabs/autodox/internal/config"
	"github.com/ekumenlabs/autodox/internal/doxyfile"
	apperrors "github.com/ekumenlabs/autodox/internal/errors"
	"github.com/ekumenlabs/autodox/internal/metrics"
	"github.com/ekumenlabs/autodox/internal/registry"
)

// fakeDoxygen emulates doxygen: defaults provide HTML_OUTPUT, Run materializes
// the HTML output directory described by the generated doxyfile.
type fakeDoxygen struct {
	failRun bool
	runs    int
}

func (f *fakeDoxygen) EffectiveConfig(_ context.Context, _ string, doxyfilePath string) (*doxyfile.Config, error) {
	defaults := doxyfile.New()
	defaults.Set("HTML_OUTPUT", "html")
	defaults.Set("GENERATE_HTML", "YES")
	project, err := doxyfile.ParseFile(doxyfilePath)
	if err != nil {
		return nil, err
	}
	defaults.Merge(project)
	return defaults, nil
}

func (f *fakeDoxygen) Run(_ context.Context, _ string, doxyfilePath string) error {
	f.runs++
	if f.failRun {
		return apperrors.ToolError(fmt.Errorf("exit status 1"), apperrors.CategoryDoxygen, "doxygen", "error: source not parsable")
	}
	cfg, err := doxyfile.ParseFile(doxyfilePath)
	if err != nil {
		return err
	}
	htmlDir := filepath.Join(cfg.GetOne("OUTPUT_DIRECTORY"), cfg.GetOne("HTML_OUTPUT"))
	if err := os.MkdirAll(htmlDir, 0o750); err != nil {
		return err
	}
	page := `<html><head><title>x</title></head><body></body></html>`
	return os.WriteFile(filepath.Join(htmlDir, "index.html"), []byte(page), 0o644)
}

type fakeConverter struct {
	builds int
	fail   bool
}

func (f *fakeConverter) Build(_ context.Context, _, _, _, _ string) error {
	f.builds++
	if f.fail {
		return apperrors.ToolError(fmt.Errorf("exit status 2"), apperrors.CategoryConvert, "doxysphinx", "conversion error")
	}
	return nil
}

type stageRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string][]metrics.ResultLabel
}

func newStageRecorder() *stageRecorder {
	return &stageRecorder{results: make(map[string][]metrics.ResultLabel)}
}

func (r *stageRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[stage] = append(r.results[stage], result)
}

func newTestConfig(t *testing.T, projects ...string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Outdir:     "api",
		DoxygenExe: "doxygen",
		SourceRoot: root,
		Projects:   map[string]config.Project{},
	}
	for _, name := range projects {
		srcdir := filepath.Join("doxygen", name)
		require.NoError(t, os.MkdirAll(filepath.Join(root, srcdir), 0o750))
		require.NoError(t, os.WriteFile(
			filepath.Join(root, srcdir, "Doxyfile"),
			[]byte("PROJECT_NAME = \""+name+"\"\nINPUT = .\n"), 0o644))
		cfg.Projects[name] = config.Project{Srcdir: srcdir, Doxyfile: "Doxyfile", DoxygenExe: "doxygen"}
	}
	return cfg
}

func newTestBuilder(cfg *config.Config) (*Builder, *fakeDoxygen, *fakeConverter) {
	dox := &fakeDoxygen{}
	conv := &fakeConverter{}
	b := NewBuilder(cfg).
		WithDoxygenFactory(func(string) DoxygenRunner { return dox }).
		WithConverter(conv)
	return b, dox, conv
}

func TestRunSingleProject(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	b, dox, conv := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, dox.runs)
	assert.Equal(t, 1, conv.builds)
	assert.Equal(t, 0, result.Failed)

	entry, ok := result.Registry.Get("libfoo")
	require.True(t, ok)
	assert.Equal(t, "api/libfoo/html/index", entry.RefPath)
	assert.DirExists(t, entry.HTMLDir)
	assert.FileExists(t, filepath.Join(entry.OutputPath, "libfoo.Doxyfile"))
	assert.FileExists(t, result.ManifestPath)
}

func TestRunMissingSourceIdentifiesProject(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	cfg.Projects["broken"] = config.Project{Srcdir: "doxygen/missing", Doxyfile: "Doxyfile"}
	b, _, _ := newTestBuilder(cfg)

	_, err := b.Run(context.Background(), Options{})
	require.Error(t, err)
	ae, ok := err.(*apperrors.AutodoxError)
	require.True(t, ok)
	assert.Equal(t, "broken", ae.Project())
	assert.Equal(t, apperrors.CategoryValidation, ae.Category)
}

func TestRunFailFastStopsAtFirstFailure(t *testing.T) {
	// "broken" sorts before "libfoo", so fail-fast must leave libfoo unbuilt.
	cfg := newTestConfig(t, "libfoo")
	cfg.Projects["broken"] = config.Project{Srcdir: "doxygen/missing", Doxyfile: "Doxyfile"}
	b, dox, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Equal(t, 0, dox.runs)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Registry.Len())
}

func TestRunKeepGoingProcessesRemaining(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	cfg.Projects["broken"] = config.Project{Srcdir: "doxygen/missing", Doxyfile: "Doxyfile"}
	b, _, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{KeepGoing: true})
	require.Error(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Registry.Len())
	_, ok := result.Registry.Get("libfoo")
	assert.True(t, ok)
}

func TestRunTwoProjectsBothRegistered(t *testing.T) {
	cfg := newTestConfig(t, "zlib", "abseil")
	b, dox, conv := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, dox.runs)
	assert.Equal(t, 2, conv.builds)

	entries := result.Registry.Entries()
	require.Len(t, entries, 2)
	// Sorted processing order, independent of declaration order.
	assert.Equal(t, "abseil", entries[0].Name)
	assert.Equal(t, "zlib", entries[1].Name)
	assert.Equal(t, "api/abseil/html/index", entries[0].RefPath)
	assert.Equal(t, "api/zlib/html/index", entries[1].RefPath)
}

func TestRunProjectFilter(t *testing.T) {
	cfg := newTestConfig(t, "libfoo", "libbar")
	b, dox, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{Project: "libbar"})
	require.NoError(t, err)
	assert.Equal(t, 1, dox.runs)
	assert.Equal(t, 1, result.Registry.Len())
	_, ok := result.Registry.Get("libbar")
	assert.True(t, ok)
}

func TestRunUnknownProjectFilter(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	b, _, _ := newTestBuilder(cfg)

	_, err := b.Run(context.Background(), Options{Project: "nope"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func TestRunIdempotentPaths(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	b, _, _ := newTestBuilder(cfg)

	first, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)
	second, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)

	e1, _ := first.Registry.Get("libfoo")
	e2, _ := second.Registry.Get("libfoo")
	assert.Equal(t, e1.RefPath, e2.RefPath)
	assert.Equal(t, e1.OutputPath, e2.OutputPath)
	assert.Equal(t, e1.HTMLDir, e2.HTMLDir)
}

func TestGeneratedDoxyfileConformingDefaults(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	b, _, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)

	entry, _ := result.Registry.Get("libfoo")
	gen, err := doxyfile.ParseFile(filepath.Join(entry.OutputPath, "libfoo.Doxyfile"))
	require.NoError(t, err)
	assert.Equal(t, "NO", gen.GetOne("GENERATE_TREEVIEW"))
	assert.Equal(t, "NO", gen.GetOne("SEARCHENGINE"))
	assert.NotEmpty(t, gen.GetOne("OUTPUT_DIRECTORY"))
	assert.NotEmpty(t, gen.GetOne("GENERATE_TAGFILE"))
}

func TestGeneratedDoxyfileConformingProjectSkipsOverrides(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	p := cfg.Projects["libfoo"]
	p.Conforming = true
	cfg.Projects["libfoo"] = p
	b, _, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)

	entry, _ := result.Registry.Get("libfoo")
	gen, err := doxyfile.ParseFile(filepath.Join(entry.OutputPath, "libfoo.Doxyfile"))
	require.NoError(t, err)
	assert.False(t, gen.Has("GENERATE_TREEVIEW"))
}

func TestGeneratedDoxyfileTagfiles(t *testing.T) {
	cfg := newTestConfig(t, "libfoo", "libbar")
	p := cfg.Projects["libbar"]
	p.Tagfiles = []config.TagfileRef{
		{Tagfile: "api/libfoo/html/tagfile.xml", Sitepath: "api/libfoo/html"},
	}
	cfg.Projects["libbar"] = p
	b, _, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)

	entry, _ := result.Registry.Get("libbar")
	gen, err := doxyfile.ParseFile(filepath.Join(entry.OutputPath, "libbar.Doxyfile"))
	require.NoError(t, err)
	tagfiles := gen.Get("TAGFILES")
	require.Len(t, tagfiles, 1)
	assert.Contains(t, tagfiles[0], "tagfile.xml=")
}

func TestOverviewStageRecordedSkippedWhenUnconfigured(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	b, _, _ := newTestBuilder(cfg)
	rec := newStageRecorder()
	b.WithRecorder(rec)

	_, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, rec.results[StageOverview], 1)
	assert.Equal(t, metrics.ResultSkipped, rec.results[StageOverview][0])
	assert.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.results[StageDoxygen])
}

func TestRunConverterFailureSurfacesStderr(t *testing.T) {
	cfg := newTestConfig(t, "libfoo")
	b, _, conv := newTestBuilder(cfg)
	conv.fail = true

	_, err := b.Run(context.Background(), Options{})
	require.Error(t, err)
	ae, ok := err.(*apperrors.AutodoxError)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryConvert, ae.Category)
	assert.Equal(t, "conversion error", ae.Stderr())
	assert.Equal(t, "libfoo", ae.Project())
}

func TestSlugUsedForOutputDirectory(t *testing.T) {
	cfg := newTestConfig(t, "My Lib")
	b, _, _ := newTestBuilder(cfg)

	result, err := b.Run(context.Background(), Options{})
	require.NoError(t, err)

	entry, _ := result.Registry.Get("My Lib")
	assert.Equal(t, "my-lib", entry.Slug)
	assert.Equal(t, filepath.Join(cfg.SourceRoot, "api", "my-lib"), entry.OutputPath)
	assert.Equal(t, "api/my-lib/html/index", entry.RefPath)
	assert.Equal(t, registry.RefPath("api", "My Lib"), entry.RefPath)
}
