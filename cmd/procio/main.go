// Package main is the entry point for procio, a per-process disk I/O
// monitor. It loads configuration, registers the collectors, runs the
// sampling scheduler and prints every tick as a table or as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/procio/internal/buffer"
	"github.com/Guliveer/procio/internal/collector"
	"github.com/Guliveer/procio/internal/config"
	"github.com/Guliveer/procio/internal/models"
	"github.com/Guliveer/procio/internal/scheduler"
	"github.com/Guliveer/procio/internal/sender"
	"github.com/Guliveer/procio/internal/view"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "", "Path to configuration file (default: search standard locations)")
	showVersion = flag.Bool("version", false, "Show version and exit")
	once        = flag.Bool("once", false, "Take two samples one interval apart, print, and exit")
	interval    = flag.Duration("interval", 0, "Sampling interval (overrides config)")
	procRoot    = flag.String("root", "", "Process information root (overrides config)")
	format      = flag.String("format", "", "Output format: table, json or none (overrides config)")
	sinkURL     = flag.String("sink", "", "Ingestion endpoint base URL (overrides config)")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("procio %s\n", version)
		os.Exit(0)
	}

	cli := config.CLIOverrides{
		Interval: *interval,
		ProcRoot: *procRoot,
		Format:   *format,
		SinkURL:  *sinkURL,
	}
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, *configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting procio",
		zap.String("version", version),
		zap.String("proc_root", cfg.Sampling.ProcRoot),
		zap.Duration("interval", cfg.Sampling.Interval.Duration))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		cancel()
	}()

	run(ctx, cfg, logger)
	logger.Info("procio stopped")
}

// run wires the collectors, output and optional sink, then blocks until the
// context is cancelled (or after one printed tick with -once).
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	registry := collector.NewRegistry(logger)
	registry.Register(collector.NewProcessIOCollector(cfg.Sampling.ProcRoot, logger))
	registry.Register(collector.NewDeviceCollector(logger))
	registry.Register(collector.NewHostCollector())

	sched := scheduler.New(registry, cfg, logger)
	printTick := newPrinter(cfg, os.Stdout, logger)

	if *once {
		// The first round only establishes the baseline.
		sched.Collect(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Sampling.Interval.Duration):
		}
		printTick(sched.Collect(ctx))
		return
	}

	sched.OnTick(printTick)

	if cfg.Sink.URL != "" {
		buf, err := buffer.New(cfg.Buffer.Dir, cfg.Buffer.MaxSizeMB, logger)
		if err != nil {
			logger.Fatal("Failed to initialize buffer", zap.Error(err))
		}
		snd := sender.New(cfg.Sink, logger, buf)
		snd.FlushBuffer(ctx)
		sched.OnBatchReady(func(batch []models.MetricSnapshot) {
			// Use a fresh context so the shutdown flush still gets a chance
			// to be delivered or buffered.
			snd.Send(context.Background(), batch)
		})
	}

	logger.Info("Sampling",
		zap.Duration("interval", cfg.Sampling.Interval.Duration),
		zap.Duration("batch_interval", cfg.Sampling.BatchInterval.Duration),
		zap.Bool("sink", cfg.Sink.URL != ""))
	sched.Start(ctx)
}

// newPrinter returns the tick callback for the configured output format.
func newPrinter(cfg *config.Config, out io.Writer, logger *zap.Logger) func(scheduler.Tick) {
	switch cfg.Output.Format {
	case "json":
		enc := json.NewEncoder(out)
		return func(t scheduler.Tick) {
			if err := enc.Encode(t.Snapshot); err != nil {
				logger.Error("Failed to write snapshot", zap.Error(err))
			}
		}
	case "table":
		col, _ := view.ParseColumn(cfg.Output.Sort)
		table := &view.Table{}
		renderer := view.NewRenderer(out, cfg.Sampling.TopProcesses)
		return func(t scheduler.Tick) {
			table.Apply(t.Processes)
			table.Sort(col, cfg.Output.Descending)
			if err := renderer.Render(table); err != nil {
				logger.Error("Failed to render table", zap.Error(err))
			}
		}
	default:
		return func(scheduler.Tick) {}
	}
}

// initLogger creates a zap logger based on the configuration.
// Console output goes to stderr so stdout carries only the table or JSON;
// a JSON log file is added when configured.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleLevel := level
	if cfg.Output.Format == "table" && level < zapcore.WarnLevel {
		// The table redraws the terminal; keep chatter out of it.
		consoleLevel = zapcore.WarnLevel
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		consoleLevel,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
