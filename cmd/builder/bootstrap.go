package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"prop-strategy-builder/internal/codegen"
	"prop-strategy-builder/internal/codegen/codegenobs"
	"prop-strategy-builder/internal/export"
	"prop-strategy-builder/internal/export/exportobs"
	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/journal"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/store"
)

// app carries the wired dependencies shared by every subcommand.
type app struct {
	cfg       *store.Config
	generator interfaces.Generator
	journal   *journal.Journal
	outDir    string
}

// initializeSystem loads .env and initializes the logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// stdout is reserved for command output
	logCfg := logger.LoadConfigFromEnv()
	logCfg.Output = os.Stderr
	logCfg.TraceWriter = os.Stderr
	if err := logger.InitWithConfig(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// newApp wires the generator, exporter and journal with observability
func newApp(ctx context.Context, cfg *store.Config, outDir string) *app {
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	a := &app{
		cfg:       cfg,
		generator: codegenobs.Wrap(codegen.NewGenerator()),
		journal:   journal.New(cfg.Journal.Dir),
		outDir:    outDir,
	}
	compressOldJournals(ctx, a.journal, cfg.Journal.RetentionDays)
	return a
}

func (a *app) exporter(dir string) interfaces.Exporter {
	if dir == "" {
		dir = a.outDir
	}
	return exportobs.Wrap(export.New(dir))
}

// compressOldJournals gzips journal files past the retention window
func compressOldJournals(ctx context.Context, j *journal.Journal, days int) {
	if days <= 0 {
		return
	}
	compressed, err := j.CompressOlder(days)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
		return
	}
	if len(compressed) > 0 {
		logger.Info(ctx, "Compressed old journals", "files", len(compressed))
	}
}
