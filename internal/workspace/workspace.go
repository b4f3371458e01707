// Package workspace manages the scratch directories that git-sourced
// project checkouts are fetched into.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ekumenlabs/autodox/internal/logfields"
)

// Manager owns one workspace directory. Ephemeral workspaces get a fresh
// timestamped directory and are removed on Cleanup; persistent ones reuse a
// fixed directory across runs so the daemon can refetch incrementally.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
}

// NewManager creates a manager for an ephemeral workspace under baseDir
// (the system temp directory when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a manager for the fixed directory
// baseDir/subdirName, which Cleanup leaves in place.
func NewPersistentManager(baseDir, subdirName string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdirName == "" {
		subdirName = "autodox-sources"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdirName),
		persistent: true,
	}
}

// Create makes the workspace directory.
func (m *Manager) Create() error {
	if !m.persistent {
		m.dir = filepath.Join(m.baseDir, fmt.Sprintf("autodox-%s", time.Now().Format("20060102-150405")))
	}
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	slog.Info("Created workspace", logfields.Path(m.dir))
	return nil
}

// GetPath returns the workspace directory path.
func (m *Manager) GetPath() string {
	return m.dir
}

// Cleanup removes an ephemeral workspace; persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Info("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
