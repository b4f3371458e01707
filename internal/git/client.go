// Package git fetches project sources for projects configured with a
// remote repository instead of a local source directory.
package git

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/ekumenlabs/autodox/internal/config"
	apperrors "github.com/ekumenlabs/autodox/internal/errors"
	"github.com/ekumenlabs/autodox/internal/logfields"
)

// Client handles Git operations
type Client struct {
	workspaceDir string
}

// NewClient creates a new Git client with the specified workspace directory
func NewClient(workspaceDir string) *Client { return &Client{workspaceDir: workspaceDir} }

// FetchSource clones the project's configured repository into the workspace
// and returns the checkout path. An existing checkout is removed first so
// every build converts a clean tree.
func (c *Client) FetchSource(name string, src *config.GitSource) (string, error) {
	if src == nil || src.URL == "" {
		return "", apperrors.ConfigError("no git source configured").WithProject(name)
	}

	repoPath := filepath.Join(c.workspaceDir, name)
	slog.Debug("Fetching project sources",
		logfields.Project(name),
		slog.String("url", src.URL),
		slog.String("branch", src.Branch),
		logfields.Path(repoPath))

	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("failed to remove existing checkout: %w", err)
	}

	cloneOptions := &git.CloneOptions{URL: src.URL, Depth: 1}
	if src.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + src.Branch)
		cloneOptions.SingleBranch = true
	}

	repository, err := git.PlainClone(repoPath, false, cloneOptions)
	if err != nil {
		return "", classifyCloneError(name, src.URL, err)
	}

	if ref, herr := repository.Head(); herr == nil {
		slog.Info("Project sources fetched",
			logfields.Project(name),
			slog.String("commit", ref.Hash().String()[:8]),
			logfields.Path(repoPath))
	} else {
		slog.Info("Project sources fetched", logfields.Project(name), logfields.Path(repoPath))
	}
	return repoPath, nil
}

// classifyCloneError wraps underlying go-git errors with enough context to
// identify the offending project.
func classifyCloneError(name, url string, err error) error {
	l := strings.ToLower(err.Error())
	msg := fmt.Sprintf("failed to clone %s", url)
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "invalid username or password"):
		msg = fmt.Sprintf("authentication failed for %s", url)
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		msg = fmt.Sprintf("repository not found: %s", url)
	case strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout"):
		msg = fmt.Sprintf("network timeout cloning %s", url)
	}
	return apperrors.Wrap(err, apperrors.CategoryGit, apperrors.SeverityFatal, msg).WithProject(name)
}
