package main

import (
	"context"
	"fmt"

	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/journal"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/types"
	"prop-strategy-builder/internal/validate"
)

// reportIssues logs every validation finding and returns them. Findings never
// stop generation; the compiler tolerates inconsistent inputs.
func reportIssues(ctx context.Context, s types.Strategy, p types.PropFirmPreset) validate.Issues {
	issues := validate.Check(s, p)
	for _, is := range issues {
		logger.Compliance(ctx, s.Name, p.FirmName, string(is.Severity), is.Message, "field", is.Field)
	}
	return issues
}

// build validates, generates and exports one strategy, journaling the outcome.
func (a *app) build(ctx context.Context, s types.Strategy, p types.PropFirmPreset, exp interfaces.Exporter) ([]string, error) {
	runID := journal.NewRunID()
	op := logger.StartOperation(ctx, "builder.build", "run_id", runID, "strategy", s.Name, "firm", p.FirmName)
	ctx = op.GetContext()

	reportIssues(ctx, s, p)

	entry := journal.Entry{RunID: runID, Action: "export", Strategy: s.Name, Firm: p.FirmName}

	art, err := a.generator.Generate(ctx, s, p)
	if err == nil {
		entry.Files, err = exp.Export(ctx, art)
	}
	if err != nil {
		entry.Result = journal.ResultFailed
		entry.Error = err.Error()
		a.record(ctx, entry)
		op.EndWithError(err)
		logger.Generation(ctx, s.Name, p.FirmName, journal.ResultFailed, "run_id", runID, "error", err.Error())
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	entry.Result = journal.ResultOK
	a.record(ctx, entry)
	op.End("files", len(entry.Files))
	logger.Generation(ctx, s.Name, p.FirmName, journal.ResultOK, "run_id", runID, "base_name", art.BaseName)
	return entry.Files, nil
}

func (a *app) record(ctx context.Context, e journal.Entry) {
	if _, err := a.journal.Append(e); err != nil {
		logger.Warn(ctx, "Failed to write journal entry", "error", err, "dir", a.journal.Dir())
	}
}
