package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Outdir:     "api",
		DoxygenExe: "doxygen",
		SourceRoot: ".",
		Projects: map[string]Project{
			"libfoo": {
				Srcdir:   "doxygen/libfoo",
				Doxyfile: "Doxyfile",
			},
			"libbar": {
				Srcdir:     "doxygen/libbar",
				Doxyfile:   "Doxyfile",
				Conforming: true,
				Tagfiles: []TagfileRef{
					{Tagfile: "api/libfoo/html/tagfile.xml", Sitepath: "api/libfoo/html"},
				},
			},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
