package settings

import (
	"context"
	"path/filepath"
	"testing"

	"lorentzian-trading-bot/internal/types"
)

var fallback = types.Settings{
	Symbol:              "BTCUSDT",
	Interval:            "1m",
	Limit:               1000,
	PredictionThreshold: 6,
	Risk: types.RiskConfig{
		StoplossFromAccountBalance:   0.23,
		TakeProfitFromAccountBalance: 0.30,
		StoplossFromCoin:             0.03,
		TakeProfitFromCoin:           0.023,
	},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open settings db: %v", err)
	}
	s := NewStore(db, fallback)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotEmptyTableUsesFallback(t *testing.T) {
	s := newTestStore(t)
	if got := s.Snapshot(context.Background()); got != fallback {
		t.Errorf("Expected fallback settings, got %+v", got)
	}
}

func TestSeedDefaultsDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetValue(ctx, KeyPredictionThreshold, "8"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := s.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}

	v, err := s.GetValue(ctx, KeyPredictionThreshold, "")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "8" {
		t.Errorf("Expected seeded value to keep 8, got %s", v)
	}
	v, _ = s.GetValue(ctx, KeyDefaultSymbol, "")
	if v != "BTCUSDT" {
		t.Errorf("Expected seeded symbol BTCUSDT, got %s", v)
	}
}

func TestSnapshotIsHotRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetValue(ctx, KeyStoplossFromCoin, "0.05"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot(ctx).Risk.StoplossFromCoin; got != 0.05 {
		t.Errorf("Expected 0.05, got %v", got)
	}

	if err := s.SetValue(ctx, KeyStoplossFromCoin, "0.04"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot(ctx).Risk.StoplossFromCoin; got != 0.04 {
		t.Errorf("Expected updated 0.04, got %v", got)
	}
}

func TestSnapshotIgnoresMalformedValues(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.SetValue(ctx, KeyDefaultLimit, "lots"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot(ctx).Limit; got != fallback.Limit {
		t.Errorf("Expected fallback limit %d, got %d", fallback.Limit, got)
	}
}

func TestGetValueMissingKey(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetValue(context.Background(), "UNKNOWN", "dflt")
	if err != nil || v != "dflt" {
		t.Errorf("Expected default value, got %q %v", v, err)
	}
}
