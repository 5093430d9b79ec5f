package interfaces

import (
	"context"

	"prop-strategy-builder/internal/types"
)

type Generator interface {
	Generate(ctx context.Context, strategy types.Strategy, preset types.PropFirmPreset) (*types.Artifact, error)
}
