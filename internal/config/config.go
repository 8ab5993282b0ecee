// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file >
// embedded config > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinInterval is the shortest supported sampling interval. Rates are bytes
// per interval, so sub-second sampling is not supported.
const MinInterval = time.Second

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "1s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all configuration.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	Sink     SinkConfig     `yaml:"sink"`
	Buffer   BufferConfig   `yaml:"buffer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds process table sampling settings.
type SamplingConfig struct {
	Interval      Duration `yaml:"interval"`
	BatchInterval Duration `yaml:"batch_interval"`
	ProcRoot      string   `yaml:"proc_root"`
	TopProcesses  int      `yaml:"top_processes"`
}

// OutputConfig controls what is printed every tick.
type OutputConfig struct {
	Format     string `yaml:"format"` // table, json or none
	Sort       string `yaml:"sort"`   // pid, name, read or write
	Descending bool   `yaml:"descending"`
}

// SinkConfig holds the optional HTTP ingestion endpoint. An empty URL
// disables export.
type SinkConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	Path  string `yaml:"path"`
}

// BufferConfig holds the local buffer used while the sink is unreachable.
type BufferConfig struct {
	MaxSizeMB int    `yaml:"max_size_mb"`
	Dir       string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Interval:      Duration{1 * time.Second},
			BatchInterval: Duration{30 * time.Second},
			ProcRoot:      "/proc",
			TopProcesses:  20,
		},
		Output: OutputConfig{
			Format:     "table",
			Sort:       "read",
			Descending: true,
		},
		Sink: SinkConfig{
			Path: "/api/ingest",
		},
		Buffer: BufferConfig{
			MaxSizeMB: 50,
			Dir:       "./buffer",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Interval time.Duration
	ProcRoot string
	Format   string
	SinkURL  string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	return LoadLayered(CLIOverrides{}, nil, path)
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Interval > 0 {
		cfg.Sampling.Interval.Duration = cli.Interval
	}
	if cli.ProcRoot != "" {
		cfg.Sampling.ProcRoot = cli.ProcRoot
	}
	if cli.Format != "" {
		cfg.Output.Format = cli.Format
	}
	if cli.SinkURL != "" {
		cfg.Sink.URL = cli.SinkURL
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies PROCIO_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PROCIO_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PROCIO_INTERVAL: %w", err)
		}
		cfg.Sampling.Interval.Duration = d
	}
	if v := os.Getenv("PROCIO_PROC_ROOT"); v != "" {
		cfg.Sampling.ProcRoot = v
	}
	if v := os.Getenv("PROCIO_TOP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROCIO_TOP: %w", err)
		}
		cfg.Sampling.TopProcesses = n
	}
	if v := os.Getenv("PROCIO_SINK_URL"); v != "" {
		cfg.Sink.URL = v
	}
	if v := os.Getenv("PROCIO_SINK_TOKEN"); v != "" {
		cfg.Sink.Token = v
	}
	if v := os.Getenv("PROCIO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Sampling.Interval.Duration < MinInterval {
		return fmt.Errorf("sampling interval must be at least %s (got %s)", MinInterval, c.Sampling.Interval.Duration)
	}
	if c.Sampling.BatchInterval.Duration < c.Sampling.Interval.Duration {
		return fmt.Errorf("batch interval %s is shorter than the sampling interval %s",
			c.Sampling.BatchInterval.Duration, c.Sampling.Interval.Duration)
	}
	if c.Sampling.ProcRoot == "" {
		return fmt.Errorf("proc root is required")
	}
	if c.Sampling.TopProcesses < 0 {
		return fmt.Errorf("top_processes must not be negative")
	}

	switch c.Output.Format {
	case "table", "json", "none":
	default:
		return fmt.Errorf("unknown output format %q (expected table, json or none)", c.Output.Format)
	}
	switch c.Output.Sort {
	case "pid", "name", "read", "write":
	default:
		return fmt.Errorf("unknown sort column %q (expected pid, name, read or write)", c.Output.Sort)
	}

	if c.Sink.URL != "" && !strings.HasPrefix(c.Sink.URL, "https://") {
		// Allow localhost for development
		if !strings.Contains(c.Sink.URL, "localhost") && !strings.Contains(c.Sink.URL, "127.0.0.1") {
			return fmt.Errorf("sink URL must use HTTPS (got: %s)", c.Sink.URL)
		}
	}
	return nil
}
