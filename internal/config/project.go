package config

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project represents one Doxygen project to embed.
type Project struct {
	// Srcdir is the directory holding the project's sources and Doxyfile,
	// relative to the documentation source root.
	Srcdir string `yaml:"srcdir"`
	// Outdir overrides the default per-project output directory (outdir/<name>).
	Outdir string `yaml:"outdir,omitempty"`
	// Doxyfile is the Doxyfile name within Srcdir.
	Doxyfile string `yaml:"doxyfile,omitempty"`
	// DoxygenExe overrides the configured doxygen executable for this project.
	DoxygenExe string `yaml:"doxygen_exe,omitempty"`
	// Conforming marks the project's Doxyfile as already conforming; the
	// conforming default overrides are skipped.
	Conforming bool `yaml:"conforming,omitempty"`
	// Overview is an optional markdown file (relative to Srcdir) rendered as
	// an overview page next to the generated reference.
	Overview string `yaml:"overview,omitempty"`
	// Git optionally fetches the project sources before generation.
	Git *GitSource `yaml:"git,omitempty"`
	// Tagfiles lists external Doxygen tagfiles to cross-link against.
	Tagfiles []TagfileRef `yaml:"tagfiles,omitempty"`
}

// GitSource identifies a remote repository to fetch project sources from.
type GitSource struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
}

// TagfileRef pairs a tagfile with the site path its links resolve to.
// Both are relative to the documentation source root.
type TagfileRef struct {
	Tagfile  string `yaml:"tagfile"`
	Sitepath string `yaml:"sitepath"`
}

// UnmarshalYAML accepts either a plain string (shorthand for srcdir) or a
// full mapping.
func (p *Project) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var srcdir string
		if err := value.Decode(&srcdir); err != nil {
			return err
		}
		*p = Project{Srcdir: srcdir}
		return nil
	}

	// Alias type avoids recursing into this method.
	type projectAlias Project
	var alias projectAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*p = Project(alias)
	return nil
}

// ResolveSrcdir returns the project source directory joined against the
// documentation source root.
func (p Project) ResolveSrcdir(sourceRoot string) string {
	return filepath.Join(sourceRoot, p.Srcdir)
}

// ResolveOutdir returns the per-project output directory. The default is
// <outdir>/<name> under the source root; a project-level outdir overrides it.
func (p Project) ResolveOutdir(sourceRoot, outdir, name string) string {
	if p.Outdir != "" {
		return filepath.Join(sourceRoot, p.Outdir)
	}
	return filepath.Join(sourceRoot, outdir, name)
}

// DoxyfilePath returns the path of the project's Doxyfile.
func (p Project) DoxyfilePath(sourceRoot string) string {
	return filepath.Join(p.ResolveSrcdir(sourceRoot), p.Doxyfile)
}

func (p Project) validate(name string) error {
	if p.Srcdir == "" && p.Git == nil {
		return fmt.Errorf("project %q: srcdir is required", name)
	}
	if p.Git != nil && p.Git.URL == "" {
		return fmt.Errorf("project %q: git.url is required when git is set", name)
	}
	for i, tf := range p.Tagfiles {
		if tf.Tagfile == "" || tf.Sitepath == "" {
			return fmt.Errorf("project %q: tagfiles[%d] needs both tagfile and sitepath", name, i)
		}
	}
	return nil
}
