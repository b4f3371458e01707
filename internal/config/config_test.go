package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ekumenlabs/autodox/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autodox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
projects:
  libfoo:
    srcdir: doxygen/libfoo
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutdir, cfg.Outdir)
	assert.Equal(t, DefaultDoxygenExe, cfg.DoxygenExe)
	assert.Equal(t, ".", cfg.SourceRoot)
	assert.Equal(t, DefaultDoxyfile, cfg.Projects["libfoo"].Doxyfile)
	assert.Equal(t, DefaultDoxygenExe, cfg.Projects["libfoo"].DoxygenExe)
	assert.Equal(t, DefaultDebounce, cfg.Daemon.Debounce)
	assert.Equal(t, DefaultListen, cfg.Daemon.Listen)
	assert.Equal(t, DefaultNATSSubject, cfg.Daemon.NATSSubject)
	assert.Equal(t, DefaultHistoryPath, cfg.History.Path)
}

func TestLoadProjectShorthand(t *testing.T) {
	// A plain string is shorthand for {srcdir: ...}.
	path := writeConfig(t, `
projects:
  libfoo: doxygen/libfoo
  libbar:
    srcdir: doxygen/libbar
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "doxygen/libfoo", cfg.Projects["libfoo"].Srcdir)
	assert.Equal(t, "doxygen/libbar", cfg.Projects["libbar"].Srcdir)
	// Shorthand and mapping form get the same defaults.
	assert.Equal(t, cfg.Projects["libbar"].Doxyfile, cfg.Projects["libfoo"].Doxyfile)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("DOCS_ROOT", "/srv/docs")
	path := writeConfig(t, `
source_root: ${DOCS_ROOT}
projects:
  libfoo: doxygen/libfoo
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/docs", cfg.SourceRoot)
}

func TestLoadProjectOverrides(t *testing.T) {
	path := writeConfig(t, `
doxygen_exe: doxygen-1.9
projects:
  libfoo:
    srcdir: doxygen/libfoo
    doxyfile: Doxyfile.embed
    doxygen_exe: /opt/doxygen/bin/doxygen
    conforming: true
  libbar:
    srcdir: doxygen/libbar
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Doxyfile.embed", cfg.Projects["libfoo"].Doxyfile)
	assert.Equal(t, "/opt/doxygen/bin/doxygen", cfg.Projects["libfoo"].DoxygenExe)
	assert.True(t, cfg.Projects["libfoo"].Conforming)
	// Unset project exe inherits the global one.
	assert.Equal(t, "doxygen-1.9", cfg.Projects["libbar"].DoxygenExe)
}

func TestLoadGitProject(t *testing.T) {
	path := writeConfig(t, `
projects:
  remote:
    git:
      url: https://example.com/remote.git
      branch: release
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Projects["remote"].Git)
	assert.Equal(t, "release", cfg.Projects["remote"].Git.Branch)
}

func TestLoadRejectsEmptyProjects(t *testing.T) {
	path := writeConfig(t, `outdir: api`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func TestLoadRejectsProjectWithoutSource(t *testing.T) {
	path := writeConfig(t, `
projects:
  broken:
    conforming: true
`)
	_, err := Load(path)
	require.Error(t, err)
	ae, ok := err.(*apperrors.AutodoxError)
	require.True(t, ok)
	assert.Equal(t, "broken", ae.Project())
}

func TestLoadRejectsIncompleteTagfileRef(t *testing.T) {
	path := writeConfig(t, `
projects:
  libfoo:
    srcdir: doxygen/libfoo
    tagfiles:
      - tagfile: api/libbar/html/tagfile.xml
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tagfiles[0]")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadDaemonSettings(t *testing.T) {
	path := writeConfig(t, `
projects:
  libfoo: doxygen/libfoo
daemon:
  rebuild_interval: 1h
  debounce: 500ms
  listen: ":9999"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Daemon.RebuildInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Daemon.Debounce)
	assert.Equal(t, ":9999", cfg.Daemon.Listen)
}

func TestValidatePathsReportsOffendingProject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "doxygen", "good"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "doxygen", "good", "Doxyfile"), []byte("INPUT = .\n"), 0o644))

	cfg := &Config{
		SourceRoot: root,
		Projects: map[string]Project{
			"good":    {Srcdir: "doxygen/good", Doxyfile: "Doxyfile"},
			"missing": {Srcdir: "doxygen/missing", Doxyfile: "Doxyfile"},
		},
	}

	err := cfg.ValidatePaths()
	require.Error(t, err)
	ae, ok := err.(*apperrors.AutodoxError)
	require.True(t, ok)
	assert.Equal(t, "missing", ae.Project())
	assert.Equal(t, apperrors.CategoryValidation, ae.Category)
}

func TestValidatePathsMissingDoxyfile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "doxygen", "libfoo"), 0o750))

	cfg := &Config{
		SourceRoot: root,
		Projects: map[string]Project{
			"libfoo": {Srcdir: "doxygen/libfoo", Doxyfile: "Doxyfile"},
		},
	}

	err := cfg.ValidatePaths()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doxyfile not found")
}

func TestValidatePathsSkipsGitProjects(t *testing.T) {
	cfg := &Config{
		SourceRoot: t.TempDir(),
		Projects: map[string]Project{
			"remote": {Git: &GitSource{URL: "https://example.com/r.git"}, Doxyfile: "Doxyfile"},
		},
	}
	require.NoError(t, cfg.ValidatePaths())
}

func TestResolveOutdir(t *testing.T) {
	p := Project{}
	assert.Equal(t, filepath.Join("/root", "api", "libfoo"), p.ResolveOutdir("/root", "api", "libfoo"))

	p.Outdir = "custom/out"
	assert.Equal(t, filepath.Join("/root", "custom", "out"), p.ResolveOutdir("/root", "api", "libfoo"))
}

func TestSortedProjectNames(t *testing.T) {
	cfg := &Config{Projects: map[string]Project{
		"zlib": {}, "abseil": {}, "boost": {},
	}}
	assert.Equal(t, []string{"abseil", "boost", "zlib"}, cfg.SortedProjectNames())
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autodox.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Projects, 2)

	// Refuses to overwrite without force.
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}
