package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ekumenlabs/autodox/internal/config"
	"github.com/ekumenlabs/autodox/internal/logfields"
)

// SourceWatcher monitors project source directories and queues debounced
// rebuilds of the affected project.
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	enqueue  func(BuildJob)

	// dirs maps watched directories to their project name.
	dirs map[string]string

	mu     sync.Mutex
	timers map[string]*time.Timer
	stopCh chan struct{}
}

// NewSourceWatcher creates a watcher over every locally sourced project.
// Git-sourced projects are skipped; their sources are fetched per build.
func NewSourceWatcher(cfg *config.Config, debounce time.Duration, enqueue func(BuildJob)) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	sw := &SourceWatcher{
		watcher:  watcher,
		debounce: debounce,
		enqueue:  enqueue,
		dirs:     make(map[string]string),
		timers:   make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}

	for _, name := range cfg.SortedProjectNames() {
		p := cfg.Projects[name]
		if p.Git != nil {
			continue
		}
		dir, err := filepath.Abs(p.ResolveSrcdir(cfg.SourceRoot))
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("resolve source path for %s: %w", name, err)
		}
		sw.dirs[dir] = name
	}

	return sw, nil
}

// Start begins monitoring. Watch registration failures are fatal so a typo'd
// source path is caught at startup, not silently ignored.
func (sw *SourceWatcher) Start(ctx context.Context) error {
	for dir, name := range sw.dirs {
		if err := sw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s for project %s: %w", dir, name, err)
		}
		slog.Info("Watching project sources", logfields.Project(name), logfields.Path(dir))
	}

	go sw.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and cancels pending debounce timers.
func (sw *SourceWatcher) Stop() error {
	close(sw.stopCh)

	sw.mu.Lock()
	for _, t := range sw.timers {
		t.Stop()
	}
	sw.timers = make(map[string]*time.Timer)
	sw.mu.Unlock()

	return sw.watcher.Close()
}

func (sw *SourceWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Generated doxyfiles land inside the output tree, never the
			// source tree, so no self-triggering loop exists; still skip
			// editor swap files to avoid double rebuilds.
			if strings.HasSuffix(event.Name, "~") || strings.HasSuffix(event.Name, ".swp") {
				continue
			}
			if project := sw.projectFor(event.Name); project != "" {
				sw.trigger(project)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Source watcher error", logfields.Error(err))
		}
	}
}

// projectFor maps an event path to the owning project.
func (sw *SourceWatcher) projectFor(path string) string {
	dir := filepath.Dir(path)
	for watched, name := range sw.dirs {
		if dir == watched || strings.HasPrefix(dir+string(filepath.Separator), watched+string(filepath.Separator)) {
			return name
		}
	}
	return ""
}

// trigger (re)arms the project's debounce timer; a burst of writes yields a
// single rebuild after the quiet window.
func (sw *SourceWatcher) trigger(project string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if t, ok := sw.timers[project]; ok {
		t.Reset(sw.debounce)
		return
	}
	sw.timers[project] = time.AfterFunc(sw.debounce, func() {
		sw.mu.Lock()
		delete(sw.timers, project)
		sw.mu.Unlock()

		select {
		case <-sw.stopCh:
			return
		default:
		}
		slog.Debug("Source change detected", logfields.Project(project))
		sw.enqueue(BuildJob{Project: project, Reason: "source_change"})
	})
}
