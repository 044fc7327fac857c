package interfaces

import (
	"context"

	"lorentzian-trading-bot/internal/types"
)

// SignalReader returns the newest classification row, or false when none is available.
type SignalReader interface {
	Latest(ctx context.Context) (types.ClassificationRow, bool)
}

type Deduplicator interface {
	ShouldAct(ctx context.Context, row types.ClassificationRow) (bool, error)
	Commit(ctx context.Context, timestamp string) error
}

type SettingsProvider interface {
	Snapshot(ctx context.Context) types.Settings
}
