// Package doxygen invokes the external doxygen binary.
package doxygen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/ekumenlabs/autodox/internal/doxyfile"
	apperrors "github.com/ekumenlabs/autodox/internal/errors"
	"github.com/ekumenlabs/autodox/internal/logfields"
)

// Runner executes a doxygen binary discovered on PATH.
type Runner struct {
	exe string
}

// NewRunner creates a runner for the given executable name ("doxygen" if empty).
func NewRunner(exe string) *Runner {
	if exe == "" {
		exe = "doxygen"
	}
	return &Runner{exe: exe}
}

// Exe returns the configured executable name.
func (r *Runner) Exe() string { return r.exe }

// Available reports whether the executable exists on PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.exe)
	return err == nil
}

// Run executes doxygen against the given Doxyfile with dir as working
// directory. Relative paths in the Doxyfile resolve against dir, matching
// how doxygen is normally run from a project root.
func (r *Runner) Run(ctx context.Context, dir, doxyfilePath string) error {
	if _, err := exec.LookPath(r.exe); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryDoxygen, apperrors.SeverityFatal,
			fmt.Sprintf("%s not found on PATH", r.exe))
	}

	cmd := exec.CommandContext(ctx, r.exe, doxyfilePath)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Info("Running doxygen", logfields.Tool(r.exe), logfields.Path(doxyfilePath), slog.String("dir", dir))
	if err := cmd.Run(); err != nil {
		return apperrors.ToolError(err, apperrors.CategoryDoxygen, r.exe, stderr.String())
	}
	return nil
}

// Defaults returns doxygen's built-in configuration defaults for the
// installed version by running `doxygen -s -g -`, which prints a terse
// default Doxyfile on stdout.
func (r *Runner) Defaults(ctx context.Context, dir string) (*doxyfile.Config, error) {
	if _, err := exec.LookPath(r.exe); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryDoxygen, apperrors.SeverityFatal,
			fmt.Sprintf("%s not found on PATH", r.exe))
	}

	cmd := exec.CommandContext(ctx, r.exe, "-s", "-g", "-")
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, apperrors.ToolError(err, apperrors.CategoryDoxygen, r.exe, stderr.String())
	}

	cfg, err := doxyfile.Parse(&stdout)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryDoxygen, apperrors.SeverityFatal,
			"parse doxygen default configuration")
	}
	return cfg, nil
}

// EffectiveConfig reads a project Doxyfile overlaid on the installed
// doxygen's defaults, so unset options carry version-accurate values.
func (r *Runner) EffectiveConfig(ctx context.Context, dir, doxyfilePath string) (*doxyfile.Config, error) {
	defaults, err := r.Defaults(ctx, dir)
	if err != nil {
		return nil, err
	}
	project, err := doxyfile.ParseFile(doxyfilePath)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfig, apperrors.SeverityFatal,
			fmt.Sprintf("read doxyfile: %s", doxyfilePath))
	}
	defaults.Merge(project)
	return defaults, nil
}

// FirstStderrLine extracts the leading line of captured stderr for compact logs.
func FirstStderrLine(stderr string) string {
	if idx := strings.IndexByte(stderr, '\n'); idx >= 0 {
		return stderr[:idx]
	}
	return stderr
}
