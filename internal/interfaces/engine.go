package interfaces

import (
	"context"

	"lorentzian-trading-bot/internal/types"
)

type Engine interface {
	Step(ctx context.Context) (*types.CycleResult, error)
}
