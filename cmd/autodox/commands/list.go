package commands

import (
	"fmt"

	"github.com/ekumenlabs/autodox/internal/registry"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Refs bool `help:"Show the reference path registered for each project"`
}

func (l *ListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, name := range cfg.SortedProjectNames() {
		p := cfg.Projects[name]
		source := p.ResolveSrcdir(cfg.SourceRoot)
		if p.Git != nil {
			source = p.Git.URL
		}
		if l.Refs {
			fmt.Printf("%s\t%s\t%s\n", name, source, registry.RefPath(cfg.Outdir, name))
		} else {
			fmt.Printf("%s\t%s\n", name, source)
		}
	}
	return nil
}
