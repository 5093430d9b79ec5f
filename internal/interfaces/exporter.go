package interfaces

import (
	"context"

	"prop-strategy-builder/internal/types"
)

// Exporter writes a generated artifact somewhere durable and returns the paths it wrote.
type Exporter interface {
	Export(ctx context.Context, artifact *types.Artifact) ([]string, error)
}
