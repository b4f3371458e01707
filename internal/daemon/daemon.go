// Package daemon implements watch mode: it rebuilds projects when their
// sources change, reloads configuration on the fly, runs periodic full
// rebuilds, and exposes build metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ekumenlabs/autodox/internal/build"
	"github.com/ekumenlabs/autodox/internal/config"
	"github.com/ekumenlabs/autodox/internal/git"
	"github.com/ekumenlabs/autodox/internal/history"
	"github.com/ekumenlabs/autodox/internal/logfields"
	"github.com/ekumenlabs/autodox/internal/metrics"
	"github.com/ekumenlabs/autodox/internal/workspace"
)

// BuildJob is a queued rebuild request.
type BuildJob struct {
	// Project is empty for a full rebuild.
	Project string
	// Reason records what queued the job (source_change, schedule, startup).
	Reason string
}

// Daemon coordinates watchers, the scheduler, and sequential build execution.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string

	recorder  metrics.Recorder
	registry  *prom.Registry
	hist      *history.Store
	publisher *Publisher

	server        *http.Server
	scheduler     *Scheduler
	configWatcher *ConfigWatcher
	sourceWatcher *SourceWatcher
	ws            *workspace.Manager

	jobs chan BuildJob
	done chan struct{}

	// buildFunc is swappable for tests; defaults to runBuild.
	buildFunc func(ctx context.Context, cfg *config.Config, job BuildJob) error
}

// New creates a daemon for the given configuration. configPath enables
// config reload on change; empty disables it.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	reg := prom.NewRegistry()
	d := &Daemon{
		cfg:        cfg,
		configPath: configPath,
		registry:   reg,
		recorder:   metrics.NewPrometheusRecorder(reg),
		jobs:       make(chan BuildJob, 16),
		done:       make(chan struct{}),
	}
	d.buildFunc = d.runBuild

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	d.hist = hist

	if cfg.Daemon.NATSURL != "" {
		pub, err := NewPublisher(cfg.Daemon.NATSURL, cfg.Daemon.NATSSubject)
		if err != nil {
			_ = hist.Close()
			return nil, err
		}
		d.publisher = pub
	}

	return d, nil
}

// Start runs the daemon until ctx is canceled.
func (d *Daemon) Start(ctx context.Context) error {
	cfg := d.config()
	slog.Info("Starting daemon",
		slog.Int("projects", len(cfg.Projects)),
		slog.String("listen", cfg.Daemon.Listen))

	d.startMetricsServer(cfg.Daemon.Listen)

	sw, err := NewSourceWatcher(cfg, cfg.Daemon.Debounce, d.enqueue)
	if err != nil {
		return err
	}
	d.sourceWatcher = sw
	if err := sw.Start(ctx); err != nil {
		return err
	}

	if d.configPath != "" {
		cw, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			return err
		}
		d.configWatcher = cw
		if err := cw.Start(ctx); err != nil {
			return err
		}
	}

	if cfg.Daemon.RebuildInterval > 0 {
		sched, err := NewScheduler(cfg.Daemon.RebuildInterval, d.enqueue)
		if err != nil {
			return err
		}
		d.scheduler = sched
		sched.Start(ctx)
	}

	// Initial full build so the daemon never serves stale output.
	d.enqueue(BuildJob{Reason: "startup"})

	go d.worker(ctx)

	<-ctx.Done()
	return nil
}

// Stop shuts the daemon down gracefully.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("Stopping daemon")
	close(d.done)

	var errs []error
	if d.configWatcher != nil {
		errs = append(errs, d.configWatcher.Stop(ctx))
	}
	if d.sourceWatcher != nil {
		errs = append(errs, d.sourceWatcher.Stop())
	}
	if d.scheduler != nil {
		errs = append(errs, d.scheduler.Stop(ctx))
	}
	if d.server != nil {
		errs = append(errs, d.server.Shutdown(ctx))
	}
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.ws != nil {
		errs = append(errs, d.ws.Cleanup())
	}
	if d.hist != nil {
		errs = append(errs, d.hist.Close())
	}
	return errors.Join(errs...)
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Reload swaps in a new configuration and repoints the source watcher.
func (d *Daemon) Reload(ctx context.Context, cfg *config.Config) error {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	if d.sourceWatcher != nil {
		if err := d.sourceWatcher.Stop(); err != nil {
			slog.Warn("Failed to stop source watcher during reload", logfields.Error(err))
		}
		sw, err := NewSourceWatcher(cfg, cfg.Daemon.Debounce, d.enqueue)
		if err != nil {
			return err
		}
		d.sourceWatcher = sw
		if err := sw.Start(ctx); err != nil {
			return err
		}
	}

	slog.Info("Configuration reloaded", slog.Int("projects", len(cfg.Projects)))
	d.enqueue(BuildJob{Reason: "config_reload"})
	return nil
}

// enqueue adds a job, dropping it if an identical rebuild is already queued.
func (d *Daemon) enqueue(job BuildJob) {
	select {
	case <-d.done:
	case d.jobs <- job:
		slog.Debug("Queued rebuild", logfields.Project(job.Project), slog.String("reason", job.Reason))
	default:
		slog.Warn("Build queue full, dropping job", logfields.Project(job.Project), slog.String("reason", job.Reason))
	}
}

// worker executes queued jobs sequentially; conversion is external-tool
// bound and intentionally unparallelized.
func (d *Daemon) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case job := <-d.jobs:
			if err := d.buildFunc(ctx, d.config(), job); err != nil {
				slog.Error("Rebuild failed", logfields.Project(job.Project), logfields.Error(err))
			}
		}
	}
}

func (d *Daemon) runBuild(ctx context.Context, cfg *config.Config, job BuildJob) error {
	builder := build.NewBuilder(cfg).
		WithRecorder(d.recorder).
		WithHistory(d.hist)
	if gc := d.gitClient(); gc != nil {
		builder = builder.WithFetcher(gc)
	}

	start := time.Now()
	result, err := builder.Run(ctx, build.Options{Project: job.Project, KeepGoing: job.Project == ""})

	if d.publisher != nil && result != nil {
		for _, pr := range result.Projects {
			d.publisher.Publish(BuildEvent{
				BuildID:    result.BuildID,
				Project:    pr.Project,
				Status:     statusOf(pr.Err),
				DurationMS: pr.Duration.Milliseconds(),
				Error:      errText(pr.Err),
				Timestamp:  time.Now().UTC(),
			})
		}
	}

	slog.Info("Rebuild finished",
		logfields.Project(job.Project),
		slog.String("reason", job.Reason),
		logfields.Status(statusOf(err)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return err
}

// gitClient lazily creates the persistent workspace used for git-sourced projects.
func (d *Daemon) gitClient() *git.Client {
	if d.ws == nil {
		d.ws = workspace.NewPersistentManager("", "autodox-sources")
		if err := d.ws.Create(); err != nil {
			slog.Warn("Failed to create sources workspace", logfields.Error(err))
			return nil
		}
	}
	return git.NewClient(d.ws.GetPath())
}

func (d *Daemon) startMetricsServer(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	d.server = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	slog.Info("Metrics server listening", slog.String("addr", listen))
}

func statusOf(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

func errText(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
