package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/ekumenlabs/autodox/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Project string `short:"p" help:"Filter to a single project"`
	Limit   int    `short:"n" help:"Maximum number of records to show" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), h.Project, h.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No build history recorded")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %-8s  %-20s  %6dms",
			rec.Timestamp.Format(time.RFC3339), rec.Status, rec.Project, rec.DurationMS)
		if rec.Error != "" {
			line += "  " + rec.Error
		}
		fmt.Println(line)
	}
	return nil
}
