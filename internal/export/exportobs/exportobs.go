package exportobs

import (
	"context"

	"prop-strategy-builder/internal/interfaces"
	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/metrics"
	"prop-strategy-builder/internal/types"
)

type observableExporter struct {
	exporter interfaces.Exporter
}

var _ interfaces.Exporter = (*observableExporter)(nil)

// Wrap wraps an exporter with logging, tracing and the export counter
func Wrap(exporter interfaces.Exporter) interfaces.Exporter {
	return &observableExporter{exporter: exporter}
}

func (oe *observableExporter) Export(ctx context.Context, art *types.Artifact) ([]string, error) {
	op := logger.StartOperation(ctx, "export.Export", "base_name", baseName(art))
	ctx = op.GetContext()

	files, err := oe.exporter.Export(ctx, art)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		op.EndWithError(err)
		return nil, err
	}

	metrics.ExportsTotal.WithLabelValues(metrics.ResultOK).Inc()
	op.End("files", len(files))
	logger.InfoSkip(ctx, 1, "Project exported", "base_name", art.BaseName, "files", files)
	return files, nil
}

func baseName(art *types.Artifact) string {
	if art == nil {
		return ""
	}
	return art.BaseName
}
