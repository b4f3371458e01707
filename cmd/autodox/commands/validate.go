package commands

import (
	"fmt"

	"github.com/ekumenlabs/autodox/internal/doxygen"
	"github.com/ekumenlabs/autodox/internal/doxysphinx"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Tools bool `help:"Also check that doxygen and doxysphinx are on PATH" default:"true" negatable:""`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidatePaths(); err != nil {
		return err
	}
	fmt.Printf("Configuration valid: %d projects\n", len(cfg.Projects))

	if !v.Tools {
		return nil
	}

	if !doxygen.NewRunner(cfg.DoxygenExe).Available() {
		return fmt.Errorf("doxygen executable not found: %s", cfg.DoxygenExe)
	}
	if !doxysphinx.NewRunner("").Available() {
		return fmt.Errorf("doxysphinx executable not found on PATH")
	}
	fmt.Println("Tools available: doxygen, doxysphinx")
	return nil
}
