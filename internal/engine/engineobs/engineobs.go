package engineobs

import (
	"context"
	"time"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/trace"
	"lorentzian-trading-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context) (result *types.CycleResult, err error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer func() { trace.End(span, err) }()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting trading cycle")

	result, err = oe.engine.Step(ctx)
	if err != nil {
		args := []any{"duration_ms", time.Since(start).Milliseconds()}
		if result != nil {
			args = append(args, "symbol", result.Symbol, "outcome", result.Outcome)
		}
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err, args...)
		return result, err
	}

	args := []any{
		"symbol", result.Symbol,
		"interval", result.Interval,
		"outcome", result.Outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if result.RowTimestamp != "" {
		args = append(args, "row_timestamp", result.RowTimestamp)
	}
	if t := result.Trade; t != nil {
		args = append(args, "side", t.Side, "amount", t.Amount, "reason", t.Reason)
		if t.Levels != nil {
			args = append(args, "entry", t.Levels.EntryPrice, "take_profit", t.Levels.TakeProfit, "stop_loss", t.Levels.StopLoss)
		}
	}

	switch result.Outcome {
	case types.OutcomeNoData, types.OutcomeDuplicate, types.OutcomeNoSignal:
		logger.DebugSkip(ctx, 1, "Trading cycle completed", args...)
	default:
		logger.InfoSkip(ctx, 1, "Trading cycle completed", args...)
	}
	return result, nil
}
