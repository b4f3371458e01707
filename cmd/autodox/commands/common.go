// Package commands defines the autodox CLI surface.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ekumenlabs/autodox/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"autodox.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Run doxygen and doxysphinx for configured projects"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Validate ValidateCmd `cmd:"" help:"Validate configuration, source paths, and tool availability"`
	List     ListCmd     `cmd:"" help:"List configured projects and their output paths"`
	History  HistoryCmd  `cmd:"" help:"Show recent build outcomes"`
	Daemon   DaemonCmd   `cmd:"" help:"Watch sources and rebuild continuously"`
	VersionC VersionCmd  `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
