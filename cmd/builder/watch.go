package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"prop-strategy-builder/internal/journal"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/regen"
	"prop-strategy-builder/internal/strategyfile"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <strategy-file>",
		Short: "Regenerate the EA project whenever the strategy file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			return a.watch(ctx, args[0], cmd)
		},
	}
}

func (a *app) watch(ctx context.Context, path string, cmd *cobra.Command) error {
	exp := a.exporter("")
	out := cmd.OutOrStdout()
	// the final flush publishes after ctx is cancelled
	sinkCtx := context.WithoutCancel(ctx)

	sched := regen.New(a.generator, a.cfg.Debounce(), func(r regen.Result) {
		entry := journal.Entry{Action: "regenerate", Strategy: r.Strategy, Result: journal.ResultOK}
		if r.Err != nil {
			entry.Result, entry.Error = journal.ResultFailed, r.Err.Error()
			a.record(sinkCtx, entry)
			fmt.Fprintf(out, "#%d %s: %v\n", r.Seq, r.Strategy, r.Err)
			return
		}
		files, err := exp.Export(sinkCtx, r.Artifact)
		if err != nil {
			entry.Result, entry.Error = journal.ResultFailed, err.Error()
			a.record(sinkCtx, entry)
			fmt.Fprintf(out, "#%d %s: %v\n", r.Seq, r.Strategy, err)
			return
		}
		entry.Files = files
		a.record(sinkCtx, entry)
		fmt.Fprintf(out, "#%d %s -> %s\n", r.Seq, r.Strategy, files[0])
	})
	defer sched.Close()

	submit := func() {
		saved, err := strategyfile.Load(path)
		if err != nil {
			logger.Warn(ctx, "Cannot load strategy file", "path", path, "error", err)
			return
		}
		preset := a.resolvePreset(ctx, saved)
		reportIssues(ctx, saved.Strategy, preset)
		seq := sched.Submit(saved.Strategy, preset)
		logger.Debug(ctx, "Regeneration requested", "seq", seq, "strategy", saved.Strategy.Name)
	}

	last := fileModTime(path)
	submit()
	logger.Info(ctx, "Watching strategy file", "path", path, "debounce", a.cfg.Debounce().String())

	ticker := time.NewTicker(a.cfg.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sched.Flush()
			return nil
		case <-ticker.C:
			if mt := fileModTime(path); !mt.Equal(last) {
				last = mt
				submit()
			}
		}
	}
}

// fileModTime returns the zero time when path cannot be read.
func fileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
