package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("sampling:\n  interval: \"5s\"\n  proc_root: \"/embedded/proc\"")
	t.Setenv("PROCIO_PROC_ROOT", "/env/proc")
	cli := CLIOverrides{Interval: 3 * time.Second, ProcRoot: "/cli/proc"}

	cfg, err := LoadLayered(cli, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sampling.ProcRoot != "/cli/proc" {
		t.Errorf("ProcRoot = %q, want CLI override", cfg.Sampling.ProcRoot)
	}
	if cfg.Sampling.Interval.Duration != 3*time.Second {
		t.Errorf("Interval = %v, want CLI override", cfg.Sampling.Interval.Duration)
	}
}

func TestLoadLayered_EnvOverridesEmbed(t *testing.T) {
	embedded := []byte("sampling:\n  interval: \"5s\"\n  proc_root: \"/embedded/proc\"")
	t.Setenv("PROCIO_PROC_ROOT", "/env/proc")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sampling.ProcRoot != "/env/proc" {
		t.Errorf("ProcRoot = %q, want env override", cfg.Sampling.ProcRoot)
	}
	if cfg.Sampling.Interval.Duration != 5*time.Second {
		t.Errorf("Interval = %v, want embedded value", cfg.Sampling.Interval.Duration)
	}
}

func TestLoadLayered_FileOverridesEmbed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procio.yaml")
	if err := os.WriteFile(path, []byte("output:\n  format: json\n  sort: write\n"), 0644); err != nil {
		t.Fatal(err)
	}
	embedded := []byte("output:\n  format: none\n")

	cfg, err := LoadLayered(CLIOverrides{}, embedded, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "json" || cfg.Output.Sort != "write" {
		t.Errorf("Output = %+v, want file values", cfg.Output)
	}
	if !cfg.Output.Descending {
		t.Error("Descending default should survive a partial file")
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sampling.Interval.Duration.Seconds() != 1 {
		t.Errorf("Interval = %v, want 1s default", cfg.Sampling.Interval.Duration)
	}
	if cfg.Sampling.ProcRoot != "/proc" {
		t.Errorf("ProcRoot = %q, want /proc", cfg.Sampling.ProcRoot)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadLayered_BadEnv(t *testing.T) {
	t.Setenv("PROCIO_INTERVAL", "soon")
	if _, err := LoadLayered(CLIOverrides{}, nil, ""); err == nil {
		t.Error("expected error for unparsable PROCIO_INTERVAL")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sampling.TopProcesses != 20 {
		t.Errorf("TopProcesses = %d, want 20", cfg.Sampling.TopProcesses)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"sub-second interval", func(c *Config) { c.Sampling.Interval.Duration = 500 * time.Millisecond }, true},
		{"batch shorter than interval", func(c *Config) { c.Sampling.BatchInterval.Duration = 0 }, true},
		{"empty root", func(c *Config) { c.Sampling.ProcRoot = "" }, true},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"unknown sort", func(c *Config) { c.Output.Sort = "cpu" }, true},
		{"plain http sink", func(c *Config) { c.Sink.URL = "http://metrics.example.com" }, true},
		{"local http sink", func(c *Config) { c.Sink.URL = "http://localhost:8080" }, false},
		{"https sink", func(c *Config) { c.Sink.URL = "https://metrics.example.com" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Sampling.Interval.Duration = 2 * time.Second
	cfg.Sink.URL = "https://test.example.com"

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Sampling.Interval.Duration != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", loaded.Sampling.Interval.Duration)
	}
	if loaded.Sink.URL != "https://test.example.com" {
		t.Errorf("Sink.URL = %q", loaded.Sink.URL)
	}
}
