package interfaces

import (
	"context"

	"prop-strategy-builder/internal/types"
)

type CalendarSource interface {
	Fetch(ctx context.Context) ([]types.NewsEvent, error)
}
