package dedup

import (
	"context"
	"path/filepath"
	"testing"

	"lorentzian-trading-bot/internal/types"
)

func TestCursorShouldAct(t *testing.T) {
	row := types.ClassificationRow{Timestamp: "2025-08-17 14:05:00"}

	var c Cursor
	if !c.ShouldAct(row) {
		t.Error("Expected an unset cursor to act")
	}
	c = c.Commit(row.Timestamp)
	if c.ShouldAct(row) {
		t.Error("Expected committed row to be suppressed")
	}
	next := types.ClassificationRow{Timestamp: "2025-08-17 14:06:00"}
	if !c.ShouldAct(next) {
		t.Error("Expected a new row to act")
	}
}

func TestDeduplicatorStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file":   func(t *testing.T) Store { return NewFileStore(filepath.Join(t.TempDir(), "cursor.json")) },
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := mk(t)
			d := New(store, Key("lorentzian:cursor", "BTCUSDT", "1m"))
			row := types.ClassificationRow{Timestamp: "2025-08-17 14:05:00"}

			ok, err := d.ShouldAct(ctx, row)
			if err != nil || !ok {
				t.Fatalf("Expected first row to act, got %v %v", ok, err)
			}
			if err := d.Commit(ctx, row.Timestamp); err != nil {
				t.Fatalf("commit failed: %v", err)
			}
			ok, err = d.ShouldAct(ctx, row)
			if err != nil || ok {
				t.Fatalf("Expected committed row to be suppressed, got %v %v", ok, err)
			}

			other := New(store, Key("lorentzian:cursor", "ETHUSDT", "1m"))
			ok, err = other.ShouldAct(ctx, row)
			if err != nil || !ok {
				t.Errorf("Expected independent cursor per symbol, got %v %v", ok, err)
			}
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cursor.json")
	key := Key("", "BTCUSDT", "1m")

	if err := New(NewFileStore(path), key).Commit(ctx, "2025-08-17 14:05:00"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	c, err := NewFileStore(path).Load(ctx, key)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !c.Set || c.Timestamp != "2025-08-17 14:05:00" {
		t.Errorf("Expected persisted cursor, got %+v", c)
	}
}
