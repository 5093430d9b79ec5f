package codegenobs

import (
	"context"
	"time"

	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/metrics"
	"prop-strategy-builder/internal/trace"
	"prop-strategy-builder/internal/types"
)

// observableGenerator wraps a Generator with observability (logging, tracing & metrics)
type observableGenerator struct {
	generator interfaces.Generator
}

// Compile-time interface check
var _ interfaces.Generator = (*observableGenerator)(nil)

// Wrap wraps a generator with observability middleware
func Wrap(generator interfaces.Generator) interfaces.Generator {
	return &observableGenerator{
		generator: generator,
	}
}

// Generate compiles a strategy with observability
func (og *observableGenerator) Generate(ctx context.Context, strategy types.Strategy, preset types.PropFirmPreset) (*types.Artifact, error) {
	ctx, span := trace.StartSpan(ctx, "codegen.Generate")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Generating EA",
		"strategy", strategy.Name,
		"firm", preset.FirmName,
		"entry_conditions", len(strategy.EntryConditions),
		"exit_conditions", len(strategy.ExitConditions),
	)

	start := time.Now()
	artifact, err := og.generator.Generate(ctx, strategy, preset)
	elapsed := time.Since(start)
	metrics.GenerationDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.ErrorWithErrSkip(ctx, 1, "EA generation failed", err,
			"strategy", strategy.Name,
			"firm", preset.FirmName,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, err
	}

	metrics.GenerationsTotal.WithLabelValues(metrics.ResultOK).Inc()
	logger.InfoSkip(ctx, 1, "EA generated",
		"strategy", strategy.Name,
		"firm", preset.FirmName,
		"base_name", artifact.BaseName,
		"source_bytes", len(artifact.Source),
		"duration_ms", elapsed.Milliseconds(),
	)

	return artifact, nil
}
