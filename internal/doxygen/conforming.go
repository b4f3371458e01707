package doxygen

import "github.com/ekumenlabs/autodox/internal/doxyfile"

// ConformingDefaults returns the Doxyfile overrides required for generated
// HTML to convert cleanly: no treeview frames, no standalone search engine,
// flat HTML output, and SVG dot graphs.
func ConformingDefaults() *doxyfile.Config {
	cfg := doxyfile.New()
	cfg.Set("GENERATE_TREEVIEW", "NO")
	cfg.Set("DISABLE_INDEX", "NO")
	cfg.Set("SEARCHENGINE", "NO")
	cfg.Set("GENERATE_HTML", "YES")
	cfg.Set("CREATE_SUBDIRS", "NO")
	cfg.Set("DOT_IMAGE_FORMAT", "svg")
	cfg.Set("DOT_TRANSPARENT", "YES")
	cfg.Set("INTERACTIVE_SVG", "YES")
	return cfg
}
