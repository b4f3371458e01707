// Package doxysphinx invokes the external doxysphinx converter.
package doxysphinx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	apperrors "github.com/ekumenlabs/autodox/internal/errors"
	"github.com/ekumenlabs/autodox/internal/logfields"
)

// Runner executes the doxysphinx binary discovered on PATH.
type Runner struct {
	exe string
}

// NewRunner creates a runner for the given executable name ("doxysphinx" if empty).
func NewRunner(exe string) *Runner {
	if exe == "" {
		exe = "doxysphinx"
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

// Build runs `doxysphinx build <sourceRoot> <outputRoot> <htmlDir>` with dir
// as working directory, converting pre-generated Doxygen HTML for embedding.
func (r *Runner) Build(ctx context.Context, dir, sourceRoot, outputRoot, htmlDir string) error {
	if _, err := exec.LookPath(r.exe); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryConvert, apperrors.SeverityFatal,
			fmt.Sprintf("%s not found on PATH", r.exe))
	}

	cmd := exec.CommandContext(ctx, r.exe, "build", sourceRoot, outputRoot, htmlDir)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Info("Running doxysphinx converter",
		logfields.Tool(r.exe),
		slog.String("source_root", sourceRoot),
		slog.String("output_root", outputRoot),
		slog.String("html_dir", htmlDir))
	if err := cmd.Run(); err != nil {
		return apperrors.ToolError(err, apperrors.CategoryConvert, r.exe, stderr.String())
	}
	return nil
}

// DetectVersion attempts to detect the doxysphinx version on PATH.
// Best-effort; returns "" when unavailable.
func DetectVersion(ctx context.Context, exe string) string {
	if exe == "" {
		exe = "doxysphinx"
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		return ""
	}
	// #nosec G204 -- path is from exec.LookPath, not user-controlled
	cmd := exec.CommandContext(ctx, path, "--version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	versionRegex := regexp.MustCompile(`(\d+\.\d+\.\d+)`)
	if m := versionRegex.FindStringSubmatch(string(output)); len(m) >= 2 {
		return m[1]
	}
	return strings.TrimSpace(string(output))
}
