package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Outdir is the output root for generated documentation, relative to SourceRoot.
	Outdir string `yaml:"outdir,omitempty"`
	// DoxygenExe is the default doxygen executable name; projects may override it.
	DoxygenExe string `yaml:"doxygen_exe,omitempty"`
	// SourceRoot is the documentation source root all relative paths resolve against.
	SourceRoot string `yaml:"source_root,omitempty"`
	// Stylesheet is an optional extra stylesheet (relative to SourceRoot)
	// copied into each project's HTML directory and linked from every page.
	Stylesheet string `yaml:"stylesheet,omitempty"`
	// Projects maps unique project names to their settings.
	Projects map[string]Project `yaml:"projects"`

	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// DaemonConfig configures watch mode.
type DaemonConfig struct {
	// RebuildInterval triggers a periodic full rebuild when > 0.
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty"`
	// Debounce is the quiet window after a source change before rebuilding.
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// Listen is the address of the metrics/health endpoint.
	Listen string `yaml:"listen,omitempty"`
	// NATSURL enables build event publishing when non-empty.
	NATSURL     string `yaml:"nats_url,omitempty"`
	NATSSubject string `yaml:"nats_subject,omitempty"`
}

// HistoryConfig configures the build history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default values applied by Load.
const (
	DefaultOutdir      = "_doxygen"
	DefaultDoxygenExe  = "doxygen"
	DefaultDoxyfile    = "Doxyfile"
	DefaultListen      = ":9180"
	DefaultNATSSubject = "autodox.builds"
	DefaultHistoryPath = ".autodox/history.db"
	DefaultDebounce    = 2 * time.Second
)

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env files if present so ${VAR} expansion below can see them.
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			slog.Debug("Loaded environment variables", "path", envPath)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Outdir == "" {
		c.Outdir = DefaultOutdir
	}
	if c.DoxygenExe == "" {
		c.DoxygenExe = DefaultDoxygenExe
	}
	if c.SourceRoot == "" {
		c.SourceRoot = "."
	}
	for name, p := range c.Projects {
		if p.Doxyfile == "" {
			p.Doxyfile = DefaultDoxyfile
		}
		if p.DoxygenExe == "" {
			p.DoxygenExe = c.DoxygenExe
		}
		c.Projects[name] = p
	}
	if c.Daemon.Debounce <= 0 {
		c.Daemon.Debounce = DefaultDebounce
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = DefaultListen
	}
	if c.Daemon.NATSSubject == "" {
		c.Daemon.NATSSubject = DefaultNATSSubject
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
}

// SortedProjectNames returns project names in deterministic order.
// Builds, logs, and manifests all iterate in this order.
func (c *Config) SortedProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
