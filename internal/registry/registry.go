// Package registry records per-project documentation output paths for a
// single build and persists them as a manifest other tooling can consume.
package registry

import (
	"fmt"
	"path"
	"sort"
	"sync"
)

// Entry is the registered output of one converted project.
type Entry struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	SourcePath  string `json:"source_path"`
	OutputPath  string `json:"output_path"`
	HTMLDir     string `json:"html_dir"`
	RefPath     string `json:"ref_path"`
	TagfilePath string `json:"tagfile_path,omitempty"`
}

// Registry is a write-once mapping from project name to output entry.
// Names are unique per build; registering a name twice is an error.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register records an entry. The name must not already be registered.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("registry entry needs a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("project %q already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Get returns the entry for a project name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RefPath derives the document reference authors embed in prose:
// <outdir>/<slug>/html/index, extension-free and slash-separated.
func RefPath(outdir, name string) string {
	return path.Join(outdir, Slug(name), "html", "index")
}
