// Package bootstrap wires config, logging, storage and the trading core for the
// command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"lorentzian-trading-bot/internal/dedup"
	"lorentzian-trading-bot/internal/engine"
	"lorentzian-trading-bot/internal/eod"
	"lorentzian-trading-bot/internal/eod/eodobs"
	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/settings"
	"lorentzian-trading-bot/internal/signals"
	"lorentzian-trading-bot/internal/store"
	"lorentzian-trading-bot/internal/trace"
	"lorentzian-trading-bot/internal/tradelog"
	"lorentzian-trading-bot/internal/venue"
	"lorentzian-trading-bot/internal/worker"
)

// Init loads .env and the config file, then brings up logging, tracing, the
// trade journal and the EOD summarizer.
func Init(configPath string) (*store.Config, error) {
	_ = godotenv.Load()

	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	if err := logger.InitWithConfig(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(cfg.Tracing, trace.Deployment{
		Mode:   cfg.Mode,
		Venue:  cfg.Venue.Name,
		Symbol: cfg.Defaults.Symbol,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	tradelog.SetDir(cfg.TradeLog.Dir)
	eod.SetDefaultSummarizer(eodobs.Wrap(eod.NewSummarizer("")))
	return cfg, nil
}

// Shutdown flushes tracing and logging.
func Shutdown(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to shut down tracer", err)
	}
	logger.Sync()
}

// CompressOldLogs gzips journal files past the configured retention.
func CompressOldLogs(ctx context.Context, cfg *store.Config) {
	if err := tradelog.CompressOlder(cfg.TradeLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// OpenSettings opens, migrates and optionally seeds the settings store.
func OpenSettings(ctx context.Context, cfg *store.Config) (*settings.Store, error) {
	if cfg.Settings.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Settings.DSN), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := settings.Open(cfg.Settings.Driver, cfg.Settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	st := settings.NewStore(db, cfg.DefaultSettings())
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate settings store: %w", err)
	}
	if cfg.Settings.Seed {
		if err := st.SeedDefaults(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("seed settings store: %w", err)
		}
	}
	return st, nil
}

// CursorStore returns the dedup store for the configured backend and a closer.
func CursorStore(cfg *store.Config) (dedup.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Cursor.Backend {
	case "memory":
		return dedup.NewMemoryStore(), noop, nil
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.Cursor.Path), 0o755); err != nil {
			return nil, nil, err
		}
		return dedup.NewFileStore(cfg.Cursor.Path), noop, nil
	case "redis":
		rs := dedup.NewRedisStore(&redis.Options{Addr: cfg.Cursor.RedisAddr, DB: cfg.Cursor.RedisDB})
		return rs, rs.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cursor backend %q", cfg.Cursor.Backend)
}

// NewWorkerManager builds the classifier lifecycle manager for cfg.
func NewWorkerManager(cfg *store.Config) (*worker.Manager, error) {
	if err := os.MkdirAll(cfg.Worker.DataDir, 0o755); err != nil {
		return nil, err
	}
	return worker.NewManager(worker.Config{
		Python:          cfg.Worker.Python,
		Script:          cfg.Worker.Script,
		Args:            cfg.Worker.Args,
		DataDir:         cfg.Worker.DataDir,
		PIDFile:         cfg.WorkerPath(cfg.Worker.PIDFile),
		ResultStorePath: cfg.WorkerPath(cfg.Worker.ResultStore),
		LogPath:         cfg.WorkerPath(cfg.Worker.LogFile),
	}), nil
}

// NewReader opens the worker's result store read-only.
func NewReader(cfg *store.Config) *signals.Reader {
	return signals.NewReader(cfg.WorkerPath(cfg.Worker.ResultStore), cfg.Worker.Table)
}

// Core is the trading engine with the resources it holds open.
type Core struct {
	Engine   *engine.Engine
	Venue    interfaces.Venue
	Settings *settings.Store
	Reader   *signals.Reader

	closers []func() error
}

func NewCore(ctx context.Context, cfg *store.Config) (*Core, error) {
	v, err := venue.New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}

	st, err := OpenSettings(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Core{Venue: v, Settings: st, closers: []func() error{st.Close}}

	cursors, closeCursors, err := CursorStore(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.closers = append(c.closers, closeCursors)

	c.Reader = NewReader(cfg)
	c.closers = append(c.closers, c.Reader.Close)

	prefix := cfg.Cursor.KeyPrefix
	c.Engine, err = engine.New(engine.Deps{
		Venue:    v,
		Reader:   c.Reader,
		Settings: st,
		Cursors: func(symbol, interval string) interfaces.Deduplicator {
			return dedup.New(cursors, dedup.Key(prefix, symbol, interval))
		},
		QuoteCurrency: cfg.Venue.QuoteCurrency,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Core) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
