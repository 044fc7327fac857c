package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lorentzian-trading-bot/internal/bootstrap"
	"lorentzian-trading-bot/internal/engine"
	"lorentzian-trading-bot/internal/engine/engineobs"
	"lorentzian-trading-bot/internal/eod"
	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/metrics"
	"lorentzian-trading-bot/internal/scheduler"
	"lorentzian-trading-bot/internal/store"
	"lorentzian-trading-bot/internal/worker"
)

// run wires the trading core and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *store.Config) error {
	bootstrap.CompressOldLogs(ctx, cfg)

	core, err := bootstrap.NewCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer core.Close()

	mgr, err := bootstrap.NewWorkerManager(cfg)
	if err != nil {
		return err
	}
	if cfg.Worker.Autostart {
		startWorker(ctx, mgr, core)
	}

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			logger.ErrorWithErr(ctx, "Metrics server stopped", err)
		}
	}()

	eng := engineobs.Wrap(core.Engine)
	runner := scheduler.New(ctx)
	if _, err := runner.Add("cycle", cfg.Schedule.Cycle, func(ctx context.Context) {
		runCycle(ctx, cfg, eng, mgr)
	}); err != nil {
		return fmt.Errorf("schedule cycle %q: %w", cfg.Schedule.Cycle, err)
	}
	if _, err := runner.Add("eod", cfg.Schedule.EOD, func(ctx context.Context) {
		if _, err := eod.SummarizeYesterday(ctx); err == nil {
			bootstrap.CompressOldLogs(ctx, cfg)
		}
	}); err != nil {
		return fmt.Errorf("schedule eod %q: %w", cfg.Schedule.EOD, err)
	}

	logger.Info(ctx, "Bot started",
		"mode", cfg.Mode,
		"venue", cfg.Venue.Name,
		"cycle", cfg.Schedule.Cycle,
		"result_store", mgr.ResultStorePath(),
	)
	runner.Start()

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down...")
	runner.Stop()
	return nil
}

func startWorker(ctx context.Context, mgr *worker.Manager, core *bootstrap.Core) {
	s := core.Settings.Snapshot(ctx)
	res, err := mgr.Start(ctx, s.Symbol, s.Interval, s.Limit)
	if err != nil {
		var se *worker.StartError
		if errors.As(err, &se) {
			logger.ErrorWithErr(ctx, "Classifier worker did not start", err, "command", se.Command)
		} else {
			logger.ErrorWithErr(ctx, "Classifier worker did not start", err)
		}
		return
	}
	logger.Info(ctx, "Classifier worker", "status", res.Status, "pid", res.PID, "log", res.LogPath)
}

func runCycle(ctx context.Context, cfg *store.Config, eng interfaces.Engine, mgr *worker.Manager) {
	metrics.SetWorkerRunning(mgr.IsRunning(ctx))

	cctx, cancel := context.WithTimeout(ctx, cfg.CycleTimeout())
	defer cancel()

	res, err := eng.Step(cctx)
	if errors.Is(err, engine.ErrCycleInProgress) {
		return
	}
	if res != nil {
		b, _ := json.Marshal(res)
		fmt.Println(string(b))
	}
}
