package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ekumenlabs/autodox/internal/logfields"
)

// BuildEvent is the message published after each project build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Project    string    `json:"project"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends build events to NATS so CI pipelines and dashboards can
// react to finished builds without polling.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	slog.Info("Connected to NATS", slog.String("url", url), slog.String("subject", subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish sends one event. Publish failures are logged, not fatal; the build
// result itself is already recorded in history.
func (p *Publisher) Publish(event BuildEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Failed to encode build event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish build event",
			logfields.Project(event.Project), logfields.Error(err))
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("Failed to drain NATS connection", logfields.Error(err))
	}
}
