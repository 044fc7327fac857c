// Package scheduler fires jobs on cron specs (seconds field enabled). A job
// still running when its next tick arrives is skipped, never overlapped.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"lorentzian-trading-bot/internal/logger"
)

type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	cl := cronLogger{ctx: baseCtx}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		baseCtx: baseCtx,
	}
}

// Add registers job under spec; name is only used in logs.
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		if r.baseCtx.Err() != nil {
			return
		}
		logger.Debug(r.baseCtx, "Cron job fired", "job", name)
		job(r.baseCtx)
	})
}

func (r *Runner) Start() {
	logger.Info(r.baseCtx, "cron started", "entries", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop waits for running jobs to return.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.Info(r.baseCtx, "cron stopped")
}

// cronLogger routes cron's internal events into the bot logger.
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ErrorWithErr(l.ctx, "cron: "+msg, err, keysAndValues...)
}
