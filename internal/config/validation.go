package config

import (
	"fmt"
	"os"

	apperrors "github.com/ekumenlabs/autodox/internal/errors"
)

// Validate performs structural validation that needs no filesystem access.
func (c *Config) Validate() error {
	if len(c.Projects) == 0 {
		return apperrors.ConfigError("no projects configured")
	}
	for _, name := range c.SortedProjectNames() {
		if name == "" {
			return apperrors.ConfigError("project with empty name")
		}
		if err := c.Projects[name].validate(name); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryConfig, apperrors.SeverityFatal, "invalid project entry").WithProject(name)
		}
	}
	return nil
}

// ValidatePaths verifies that every locally sourced project's srcdir and
// Doxyfile exist and are readable. Projects with a git source are skipped;
// their sources only exist after fetch.
func (c *Config) ValidatePaths() error {
	for _, name := range c.SortedProjectNames() {
		p := c.Projects[name]
		if p.Git != nil {
			continue
		}
		srcdir := p.ResolveSrcdir(c.SourceRoot)
		info, err := os.Stat(srcdir)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.SeverityFatal,
				fmt.Sprintf("source path does not exist: %s", srcdir)).WithProject(name)
		}
		if !info.IsDir() {
			return apperrors.ValidationError(fmt.Sprintf("source path is not a directory: %s", srcdir)).WithProject(name)
		}
		if _, err := os.Stat(p.DoxyfilePath(c.SourceRoot)); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.SeverityFatal,
				fmt.Sprintf("doxyfile not found: %s", p.DoxyfilePath(c.SourceRoot))).WithProject(name)
		}
	}
	return nil
}
