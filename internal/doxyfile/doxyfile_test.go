package doxyfile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicAssignments(t *testing.T) {
	input := `
# Doxygen configuration
PROJECT_NAME = "My Project"
GENERATE_HTML = YES
INPUT = src include "path with spaces"
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"My Project"}, cfg.Get("PROJECT_NAME"))
	assert.Equal(t, "YES", cfg.GetOne("GENERATE_HTML"))
	assert.Equal(t, []string{"src", "include", "path with spaces"}, cfg.Get("INPUT"))
	assert.Equal(t, []string{"PROJECT_NAME", "GENERATE_HTML", "INPUT"}, cfg.Keys())
}

func TestParseAppendOperator(t *testing.T) {
	input := `
INPUT = src
INPUT += include
INPUT += "third dir"
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "include", "third dir"}, cfg.Get("INPUT"))
}

func TestParseLineContinuation(t *testing.T) {
	input := "INPUT = src \\\n include \\\n docs\n"
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "include", "docs"}, cfg.Get("INPUT"))
}

func TestParseEscapedQuotes(t *testing.T) {
	input := `PROJECT_BRIEF = "the \"best\" library"` + "\n"
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, `the "best" library`, cfg.GetOne("PROJECT_BRIEF"))
}

func TestParseOperatorsInsideQuotedValues(t *testing.T) {
	input := `ALIASES = "inc{1}=\1+=more"` + "\n" +
		`PREDEFINED = "DEPRECATED(x)=x" WIN32=1` + "\n" +
		`ALIASES += "sideeffect=\par Side Effects:"` + "\n"
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{`inc{1}=\1+=more`, `sideeffect=\par Side Effects:`}, cfg.Get("ALIASES"))
	assert.Equal(t, []string{"DEPRECATED(x)=x", "WIN32=1"}, cfg.Get("PREDEFINED"))
}

func TestParseEmptyValue(t *testing.T) {
	cfg, err := Parse(strings.NewReader("HTML_EXTRA_STYLESHEET =\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Has("HTML_EXTRA_STYLESHEET"))
	assert.Empty(t, cfg.Get("HTML_EXTRA_STYLESHEET"))
}

func TestParseMalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("NOT A STATEMENT\n"))
	assert.Error(t, err)
}

func TestMergeOverlaysValues(t *testing.T) {
	base, err := Parse(strings.NewReader("GENERATE_HTML = NO\nSEARCHENGINE = YES\n"))
	require.NoError(t, err)
	overlay := New()
	overlay.Set("GENERATE_HTML", "YES")
	overlay.Set("GENERATE_TREEVIEW", "NO")

	base.Merge(overlay)

	assert.Equal(t, "YES", base.GetOne("GENERATE_HTML"))
	assert.Equal(t, "YES", base.GetOne("SEARCHENGINE"))
	assert.Equal(t, "NO", base.GetOne("GENERATE_TREEVIEW"))
	// Existing keys keep their position; new keys append.
	assert.Equal(t, []string{"GENERATE_HTML", "SEARCHENGINE", "GENERATE_TREEVIEW"}, base.Keys())
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := New()
	cfg.Set("PROJECT_NAME", "My Project")
	cfg.Set("PROJECT_BRIEF", `has "quotes" inside`)
	cfg.Set("INPUT", "src", "include dir")
	cfg.Set("GENERATE_HTML", "YES")

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))

	parsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg.Get("PROJECT_NAME"), parsed.Get("PROJECT_NAME"))
	assert.Equal(t, cfg.Get("PROJECT_BRIEF"), parsed.Get("PROJECT_BRIEF"))
	assert.Equal(t, cfg.Get("INPUT"), parsed.Get("INPUT"))
	assert.Equal(t, cfg.Keys(), parsed.Keys())
}

func TestWriteFileAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.Doxyfile")
	cfg := New()
	cfg.Set("OUTPUT_DIRECTORY", "/tmp/out")
	cfg.Set("GENERATE_TAGFILE", "/tmp/out/html/tagfile.xml")
	require.NoError(t, cfg.WriteFile(path))

	parsed, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", parsed.GetOne("OUTPUT_DIRECTORY"))
	assert.Equal(t, "/tmp/out/html/tagfile.xml", parsed.GetOne("GENERATE_TAGFILE"))
}

func TestWriteDeterministic(t *testing.T) {
	build := func() string {
		cfg := New()
		cfg.Set("A", "1")
		cfg.Set("B", "2", "3")
		cfg.Append("B", "4")
		var buf bytes.Buffer
		_ = cfg.Write(&buf)
		return buf.String()
	}
	assert.Equal(t, build(), build())
}
