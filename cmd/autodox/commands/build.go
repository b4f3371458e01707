package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekumenlabs/autodox/internal/build"
	"github.com/ekumenlabs/autodox/internal/config"
	"github.com/ekumenlabs/autodox/internal/git"
	"github.com/ekumenlabs/autodox/internal/history"
	"github.com/ekumenlabs/autodox/internal/workspace"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Project   string `short:"p" help:"Build a single project instead of all configured projects"`
	KeepGoing bool   `short:"k" name:"keep-going" help:"Continue with remaining projects after a failure"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunBuild(cfg, b.Project, b.KeepGoing)
}

func RunBuild(cfg *config.Config, project string, keepGoing bool) error {
	fmt.Println("Starting documentation build")

	builder := build.NewBuilder(cfg)

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("Build history unavailable", "error", err)
	} else {
		builder = builder.WithHistory(hist)
		defer func() {
			if err := hist.Close(); err != nil {
				slog.Warn("Failed to close history store", "error", err)
			}
		}()
	}

	// Git-sourced projects need a workspace to clone into.
	if hasGitProjects(cfg) {
		wsManager := workspace.NewManager("")
		if err := wsManager.Create(); err != nil {
			return err
		}
		defer func() {
			if err := wsManager.Cleanup(); err != nil {
				slog.Warn("Failed to cleanup workspace", "error", err)
			}
		}()
		builder = builder.WithFetcher(git.NewClient(wsManager.GetPath()))
	}

	result, err := builder.Run(context.Background(), build.Options{Project: project, KeepGoing: keepGoing})
	if err != nil {
		if result != nil {
			fmt.Printf("Build failed: %d of %d projects failed\n", result.Failed, len(result.Projects))
		}
		return err
	}

	for _, pr := range result.Projects {
		fmt.Printf("  %s -> %s\n", pr.Project, pr.Entry.RefPath)
	}
	fmt.Printf("Build finished: %d projects in %s\n", len(result.Projects), result.Duration.Round(time.Millisecond))
	return nil
}

func hasGitProjects(cfg *config.Config) bool {
	for _, p := range cfg.Projects {
		if p.Git != nil {
			return true
		}
	}
	return false
}
