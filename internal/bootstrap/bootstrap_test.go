package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"lorentzian-trading-bot/internal/dedup"
	"lorentzian-trading-bot/internal/store"
)

func tempConfig(t *testing.T, extra string) *store.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := store.ParseConfig([]byte("worker:\n  data_dir: " + dir + "\n" + extra))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	return cfg
}

func TestCursorStoreBackends(t *testing.T) {
	cfg := tempConfig(t, "cursor:\n  backend: memory\n")
	s, closeFn, err := CursorStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := s.(*dedup.MemoryStore); !ok {
		t.Errorf("Expected memory store, got %T", s)
	}

	cfg = tempConfig(t, "")
	s, _, err = CursorStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*dedup.FileStore); !ok {
		t.Errorf("Expected file store by default, got %T", s)
	}
}

func TestOpenSettingsSeedsDefaults(t *testing.T) {
	cfg := tempConfig(t, "settings:\n  seed: true\ndefaults:\n  symbol: ETHUSDT\n")
	st, err := OpenSettings(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenSettings: %v", err)
	}
	defer st.Close()

	if got := st.Snapshot(context.Background()).Symbol; got != "ETHUSDT" {
		t.Errorf("Expected seeded symbol ETHUSDT, got %q", got)
	}
}

func TestNewWorkerManagerPaths(t *testing.T) {
	cfg := tempConfig(t, "")
	m, err := NewWorkerManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if m.ResultStorePath() != filepath.Join(cfg.Worker.DataDir, "results.db") {
		t.Errorf("Unexpected result store path %q", m.ResultStorePath())
	}
	if m.LogPath() != filepath.Join(cfg.Worker.DataDir, "lorentzian.log") {
		t.Errorf("Unexpected log path %q", m.LogPath())
	}
}
