// Package dedup remembers the last classification row acted upon so the same
// row never opens two trades.
package dedup

import (
	"context"
	"fmt"

	"lorentzian-trading-bot/internal/types"
)

// Cursor is the timestamp of the last row acted upon.
type Cursor struct {
	Timestamp string `json:"timestamp"`
	Set       bool   `json:"set"`
}

// ShouldAct is true when no cursor exists yet or the row differs from it.
func (c Cursor) ShouldAct(row types.ClassificationRow) bool {
	return !c.Set || c.Timestamp != row.Timestamp
}

func (c Cursor) Commit(timestamp string) Cursor {
	return Cursor{Timestamp: timestamp, Set: true}
}

// Store persists cursors by key.
type Store interface {
	Load(ctx context.Context, key string) (Cursor, error)
	Save(ctx context.Context, key string, c Cursor) error
}

// Deduplicator binds a Store to one symbol/interval key.
type Deduplicator struct {
	store Store
	key   string
}

func New(store Store, key string) *Deduplicator {
	return &Deduplicator{store: store, key: key}
}

// Key builds the cursor key for a symbol/interval pair.
func Key(prefix, symbol, interval string) string {
	if prefix == "" {
		return fmt.Sprintf("%s:%s", symbol, interval)
	}
	return fmt.Sprintf("%s:%s:%s", prefix, symbol, interval)
}

func (d *Deduplicator) Key() string { return d.key }

func (d *Deduplicator) ShouldAct(ctx context.Context, row types.ClassificationRow) (bool, error) {
	c, err := d.store.Load(ctx, d.key)
	if err != nil {
		return false, fmt.Errorf("load dedup cursor %s: %w", d.key, err)
	}
	return c.ShouldAct(row), nil
}

func (d *Deduplicator) Commit(ctx context.Context, timestamp string) error {
	c, err := d.store.Load(ctx, d.key)
	if err != nil {
		return fmt.Errorf("load dedup cursor %s: %w", d.key, err)
	}
	if err := d.store.Save(ctx, d.key, c.Commit(timestamp)); err != nil {
		return fmt.Errorf("save dedup cursor %s: %w", d.key, err)
	}
	return nil
}
