package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ekumenlabs/autodox/internal/logfields"
)

// Scheduler queues periodic full rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	enqueue   func(BuildJob)
}

// NewScheduler creates a scheduler that enqueues a full rebuild every interval.
func NewScheduler(interval time.Duration, enqueue func(BuildJob)) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, interval: interval, enqueue: enqueue}, nil
}

// Start registers the rebuild job and starts the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			s.enqueue(BuildJob{Reason: "schedule"})
		}),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		slog.Error("Failed to schedule periodic rebuild", logfields.Error(err))
		return
	}

	s.scheduler.Start()
	slog.Info("Periodic rebuilds enabled", slog.Duration("interval", s.interval))
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop(_ context.Context) error {
	return s.scheduler.Shutdown()
}
