package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	r := New()
	e := Entry{Name: "libfoo", Slug: "libfoo", OutputPath: "api/libfoo", RefPath: "api/libfoo/html/index"}
	require.NoError(t, r.Register(e))

	got, ok := r.Get("libfoo")
	require.True(t, ok)
	assert.Equal(t, e, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Entry{Name: "libfoo"}))
	err := r.Register(Entry{Name: "libfoo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "libfoo")
}

func TestRegisterEmptyNameFails(t *testing.T) {
	r := New()
	assert.Error(t, r.Register(Entry{}))
}

func TestEntriesSortedByName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Entry{Name: "zlib"}))
	require.NoError(t, r.Register(Entry{Name: "abseil"}))
	require.NoError(t, r.Register(Entry{Name: "libfoo"}))

	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "abseil", entries[0].Name)
	assert.Equal(t, "libfoo", entries[1].Name)
	assert.Equal(t, "zlib", entries[2].Name)
}

func TestRefPath(t *testing.T) {
	assert.Equal(t, "api/libfoo/html/index", RefPath("api", "libfoo"))
	assert.Equal(t, "_doxygen/my-lib/html/index", RefPath("_doxygen", "My Lib"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"libfoo", "libfoo"},
		{"My Project", "my-project"},
		{"lib_foo.core", "lib_foo.core"},
		{"Café++", "cafe"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slug(tt.in), "slug of %q", tt.in)
	}
}

func TestSlugStable(t *testing.T) {
	assert.Equal(t, Slug("LibFoo 2.0"), Slug("LibFoo 2.0"))
}

func TestManifestRoundTripAndHash(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Entry{Name: "libfoo", Slug: "libfoo", RefPath: "api/libfoo/html/index"}))

	tools := ToolVersions{Doxygen: "1.9.8", Doxysphinx: "3.3.0"}
	m := NewManifest("build-1", "api", tools, r, 1500*time.Millisecond)

	data, err := m.ToJSON()
	require.NoError(t, err)
	parsed, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, m.Entries, parsed.Entries)
	assert.Equal(t, int64(1500), parsed.DurationMS)

	// Hash excludes build identity and timing, so a rerun with the same
	// entries hashes identically.
	m2 := NewManifest("build-2", "api", tools, r, 9*time.Second)
	h1, err := m.Hash()
	require.NoError(t, err)
	h2, err := m2.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, h1, m.ContentHash)
	assert.Equal(t, m.ContentHash, m2.ContentHash)
}

func TestManifestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := New()
	require.NoError(t, r.Register(Entry{Name: "libfoo"}))
	m := NewManifest("build-1", "api", ToolVersions{}, r, 0)

	path, err := m.WriteFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := FromJSON(data)
	require.NoError(t, err)
	assert.NotEmpty(t, parsed.ContentHash)
	assert.Equal(t, m.ContentHash, parsed.ContentHash)
}
