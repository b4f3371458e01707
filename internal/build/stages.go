package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ekumenlabs/autodox/internal/config"
	"github.com/ekumenlabs/autodox/internal/doxygen"
	apperrors "github.com/ekumenlabs/autodox/internal/errors"
	"github.com/ekumenlabs/autodox/internal/logfields"
	"github.com/ekumenlabs/autodox/internal/metrics"
	"github.com/ekumenlabs/autodox/internal/overview"
	"github.com/ekumenlabs/autodox/internal/postprocess"
	"github.com/ekumenlabs/autodox/internal/registry"
)

// Stage names, in execution order.
const (
	StagePrepare     = "prepare"
	StageDoxyfile    = "doxyfile"
	StageDoxygen     = "doxygen"
	StageConvert     = "convert"
	StagePostProcess = "post_process"
	StageOverview    = "overview"
	StageRegister    = "register"
)

// outputRoot is the directory the manifest and default project outputs live under.
func (b *Builder) outputRoot() string {
	return filepath.Join(b.cfg.SourceRoot, b.cfg.Outdir)
}

// runStage times and records one pipeline stage.
func (b *Builder) runStage(project, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	b.recorder.ObserveStageDuration(stage, d)
	if err != nil {
		b.recorder.IncStageResult(stage, metrics.ResultFailed)
		attrs := []any{
			logfields.Project(project),
			logfields.Stage(stage),
			logfields.DurationMS(float64(d.Milliseconds())),
			logfields.Error(err),
		}
		if ae, ok := err.(*apperrors.AutodoxError); ok {
			if line := doxygen.FirstStderrLine(ae.Stderr()); line != "" {
				attrs = append(attrs, slog.String("tool_output", line))
			}
		}
		slog.Error("Stage failed", attrs...)
		return err
	}
	b.recorder.IncStageResult(stage, metrics.ResultSuccess)
	slog.Debug("Stage completed",
		logfields.Project(project),
		logfields.Stage(stage),
		logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

// buildProject runs the full conversion pipeline for one project.
func (b *Builder) buildProject(ctx context.Context, buildID, name string, p config.Project, reg *registry.Registry) ProjectResult {
	start := time.Now()
	result := ProjectResult{Project: name}
	slug := registry.Slug(name)

	slog.Info("Processing project", logfields.Project(name), logfields.BuildID(buildID))

	var (
		srcdir      string
		outdir      string
		htmlDir     string
		tagfilePath string
		genDoxyfile string
	)

	fail := func(err error) ProjectResult {
		if ae, ok := err.(*apperrors.AutodoxError); ok && ae.Project() == "" {
			err = ae.WithProject(name)
		}
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	// prepare: resolve or fetch sources, create the output directory.
	if err := b.runStage(name, StagePrepare, func() error {
		var err error
		srcdir, err = b.resolveSources(name, p)
		if err != nil {
			return err
		}
		outdir = p.ResolveOutdir(b.cfg.SourceRoot, b.cfg.Outdir, slug)
		if err := os.MkdirAll(outdir, 0o750); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
				fmt.Sprintf("create output directory: %s", outdir))
		}
		return nil
	}); err != nil {
		return fail(err)
	}

	runner := b.doxygenFactory(p.DoxygenExe)

	// doxyfile: merge the project Doxyfile with tool defaults and forced options.
	if err := b.runStage(name, StageDoxyfile, func() error {
		eff, err := runner.EffectiveConfig(ctx, srcdir, filepath.Join(srcdir, p.Doxyfile))
		if err != nil {
			return err
		}
		if !p.Conforming {
			eff.Merge(doxygen.ConformingDefaults())
		}

		absOut, err := filepath.Abs(outdir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		eff.Set("OUTPUT_DIRECTORY", absOut)

		htmlOutput := eff.GetOne("HTML_OUTPUT")
		if htmlOutput == "" {
			htmlOutput = "html"
		}
		htmlDir = filepath.Join(outdir, htmlOutput)
		tagfilePath = filepath.Join(htmlDir, "tagfile.xml")
		absTagfile, err := filepath.Abs(tagfilePath)
		if err != nil {
			return fmt.Errorf("resolve tagfile path: %w", err)
		}
		eff.Set("GENERATE_TAGFILE", absTagfile)

		if b.cfg.Stylesheet != "" {
			absStyle, err := filepath.Abs(filepath.Join(b.cfg.SourceRoot, b.cfg.Stylesheet))
			if err != nil {
				return fmt.Errorf("resolve stylesheet path: %w", err)
			}
			eff.Append("HTML_EXTRA_STYLESHEET", absStyle)
		}

		// Cross-project tagfile references are written relative to the
		// directories doxygen resolves them against.
		for _, ref := range p.Tagfiles {
			tagfile := relPath(srcdir, filepath.Join(b.cfg.SourceRoot, ref.Tagfile))
			sitepath := relPath(htmlDir, filepath.Join(b.cfg.SourceRoot, ref.Sitepath))
			eff.Append("TAGFILES", tagfile+"="+sitepath)
		}

		genDoxyfile = filepath.Join(outdir, slug+".Doxyfile")
		if err := eff.WriteFile(genDoxyfile); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
				fmt.Sprintf("write generated doxyfile: %s", genDoxyfile))
		}
		slog.Info("Generated doxyfile", logfields.Project(name), logfields.Path(genDoxyfile))
		return nil
	}); err != nil {
		return fail(err)
	}

	// doxygen: generate HTML and the tagfile.
	if err := b.runStage(name, StageDoxygen, func() error {
		abs, err := filepath.Abs(genDoxyfile)
		if err != nil {
			return err
		}
		return runner.Run(ctx, srcdir, abs)
	}); err != nil {
		return fail(err)
	}

	// convert: reformat the generated HTML for embedding.
	if err := b.runStage(name, StageConvert, func() error {
		absSource, err := filepath.Abs(b.cfg.SourceRoot)
		if err != nil {
			return err
		}
		absOutput, err := filepath.Abs(b.outputRoot())
		if err != nil {
			return err
		}
		absHTML, err := filepath.Abs(htmlDir)
		if err != nil {
			return err
		}
		return b.converter.Build(ctx, srcdir, absSource, absOutput, absHTML)
	}); err != nil {
		return fail(err)
	}

	// post_process: verify expected output and patch pages.
	if err := b.runStage(name, StagePostProcess, func() error {
		if err := postprocess.VerifyIndex(htmlDir); err != nil {
			return err
		}
		if f, err := os.Open(filepath.Join(htmlDir, "index.html")); err == nil {
			if title := postprocess.Title(f); title != "" {
				slog.Debug("Index page ready", logfields.Project(name), slog.String("title", title))
			}
			_ = f.Close()
		}
		if b.cfg.Stylesheet != "" {
			modified, err := postprocess.InjectStylesheet(htmlDir, filepath.Base(b.cfg.Stylesheet))
			if err != nil {
				return err
			}
			if modified > 0 {
				slog.Debug("Injected stylesheet links", logfields.Project(name), slog.Int("files", modified))
			}
		}
		return nil
	}); err != nil {
		return fail(err)
	}

	// overview: optional markdown landing page.
	if p.Overview != "" {
		if err := b.runStage(name, StageOverview, func() error {
			href := ""
			if b.cfg.Stylesheet != "" {
				href = filepath.Base(b.cfg.Stylesheet)
			}
			outPath, err := overview.Render(filepath.Join(srcdir, p.Overview), htmlDir, name, href)
			if err != nil {
				return apperrors.Wrap(err, apperrors.CategoryBuild, apperrors.SeverityError, "render overview page")
			}
			slog.Info("Rendered overview page", logfields.Project(name), logfields.Path(outPath))
			return nil
		}); err != nil {
			return fail(err)
		}
	} else {
		b.recorder.IncStageResult(StageOverview, metrics.ResultSkipped)
	}

	// register: record the output path, write-once per project name.
	if err := b.runStage(name, StageRegister, func() error {
		entry := registry.Entry{
			Name:        name,
			Slug:        slug,
			SourcePath:  srcdir,
			OutputPath:  outdir,
			HTMLDir:     htmlDir,
			RefPath:     registry.RefPath(b.cfg.Outdir, name),
			TagfilePath: tagfilePath,
		}
		if err := reg.Register(entry); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryBuild, apperrors.SeverityFatal, "register output path")
		}
		result.Entry = entry
		return nil
	}); err != nil {
		return fail(err)
	}

	result.Duration = time.Since(start)
	slog.Info("Project processed",
		logfields.Project(name),
		slog.String("ref", result.Entry.RefPath),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result
}

// resolveSources returns the project source directory, fetching it first for
// git-sourced projects.
func (b *Builder) resolveSources(name string, p config.Project) (string, error) {
	if p.Git != nil {
		if b.fetcher == nil {
			return "", apperrors.ConfigError("project has a git source but no fetcher is configured").WithProject(name)
		}
		return b.fetcher.FetchSource(name, p.Git)
	}

	srcdir := p.ResolveSrcdir(b.cfg.SourceRoot)
	info, err := os.Stat(srcdir)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.SeverityFatal,
			fmt.Sprintf("source path does not exist: %s", srcdir)).WithProject(name)
	}
	if !info.IsDir() {
		return "", apperrors.ValidationError(fmt.Sprintf("source path is not a directory: %s", srcdir)).WithProject(name)
	}
	return srcdir, nil
}

// relPath makes target relative to base, falling back to the original path.
func relPath(base, target string) string {
	absBase, err1 := filepath.Abs(base)
	absTarget, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil {
		return target
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return target
	}
	return rel
}
