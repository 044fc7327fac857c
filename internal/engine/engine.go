// Package engine runs one trading cycle: read the newest classification row,
// gate it through the cursor and the evaluator, then plan and place a bracket.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/metrics"
	"lorentzian-trading-bot/internal/signals"
	"lorentzian-trading-bot/internal/types"
)

// ErrCycleInProgress is returned by Step while another cycle is running.
var ErrCycleInProgress = errors.New("trading cycle already in progress")

// TradeRequest opens a bracket outside the signal path, or from it.
// DesiredEntry is optional.
type TradeRequest struct {
	Symbol       string
	Side         types.Side
	DesiredEntry *float64
	Risk         types.RiskConfig
}

type Engine struct {
	venue    interfaces.Venue
	reader   interfaces.SignalReader
	settings interfaces.SettingsProvider
	cursors  CursorFunc
	planner  *RiskPlanner
	executor *OrderExecutor

	running atomic.Bool
}

var _ interfaces.Engine = (*Engine)(nil)

func newEngine(d Deps) *Engine {
	return &Engine{
		venue:    d.Venue,
		reader:   d.Reader,
		settings: d.Settings,
		cursors:  d.Cursors,
		planner:  NewRiskPlanner(d.Venue, d.QuoteCurrency),
		executor: NewOrderExecutor(d.Venue),
	}
}

// Planner exposes the risk planner, e.g. for leverage previews.
func (e *Engine) Planner() *RiskPlanner { return e.planner }

// Step runs one cycle. The cursor is committed before any order is placed, so a
// row is traded at most once even when execution fails.
func (e *Engine) Step(ctx context.Context) (*types.CycleResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer e.running.Store(false)

	s := e.settings.Snapshot(ctx)
	res := &types.CycleResult{Symbol: s.Symbol, Interval: s.Interval}

	row, ok := e.reader.Latest(ctx)
	if !ok {
		logger.Debug(ctx, "No classification row available", "symbol", s.Symbol)
		return e.finish(res, types.OutcomeNoData), nil
	}
	res.RowTimestamp = row.Timestamp

	cursor := e.cursors(s.Symbol, s.Interval)
	act, err := cursor.ShouldAct(ctx, row)
	if err != nil {
		metrics.IncCycle("error")
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	if !act {
		logger.Debug(ctx, "Row already handled", "symbol", s.Symbol, "timestamp", row.Timestamp)
		return e.finish(res, types.OutcomeDuplicate), nil
	}

	sig := signals.Evaluate(row, s.PredictionThreshold)
	res.Signal = sig
	side, actionable := sig.Side()
	if !actionable {
		logger.Debug(ctx, "No signal", "symbol", s.Symbol, "timestamp", row.Timestamp, "prediction", row.Prediction)
		return e.finish(res, types.OutcomeNoSignal), nil
	}

	logger.Decision(ctx, s.Symbol, string(sig.Status), row.Prediction, "classification signal",
		"timestamp", row.Timestamp,
		"entry_price", sig.EntryPrice,
	)

	if err := cursor.Commit(ctx, row.Timestamp); err != nil {
		metrics.IncCycle("error")
		return nil, fmt.Errorf("commit cursor: %w", err)
	}

	req := TradeRequest{Symbol: s.Symbol, Side: side, Risk: s.Risk}
	if sig.EntryPrice > 0 {
		entry := sig.EntryPrice
		req.DesiredEntry = &entry
	}
	out, err := e.ExecuteTrade(ctx, req)
	res.Trade = &out
	e.finish(res, out.Outcome)
	return res, err
}

func (e *Engine) finish(res *types.CycleResult, o types.Outcome) *types.CycleResult {
	res.Outcome = o
	metrics.IncCycle(string(o))
	return res
}

// ExecuteTrade checks that the symbol is flat, plans the bracket and places it.
// Take-profit and stop-loss distances come from the coin fractions of req.Risk.
func (e *Engine) ExecuteTrade(ctx context.Context, req TradeRequest) (types.TradeOutcome, error) {
	out := types.TradeOutcome{Symbol: req.Symbol, Side: req.Side}

	busy, err := e.hasExposure(ctx, req.Symbol)
	if err != nil {
		out.Outcome, out.Reason = types.OutcomeFailed, err.Error()
		return out, err
	}
	if busy {
		logger.Risk(ctx, req.Symbol, "TRADE_DECLINED_EXPOSURE", "side", req.Side)
		out.Outcome, out.Reason = types.OutcomeDeclined, "open orders or positions exist"
		return out, nil
	}

	levels, err := e.planner.PlanLevels(ctx, req.Symbol, req.DesiredEntry, req.Risk.TakeProfitFromCoin, req.Risk.StoplossFromCoin, req.Side)
	if err != nil {
		out.Outcome, out.Reason = types.OutcomeFailed, err.Error()
		return out, err
	}
	if levels == nil {
		out.Outcome, out.Reason = types.OutcomeAborted, "no market price"
		return out, nil
	}
	out.Levels = levels

	amount, err := e.planner.PlanAmount(ctx, req.Symbol, levels.EntryPrice, req.Risk)
	if err != nil {
		out.Outcome, out.Reason = types.OutcomeFailed, err.Error()
		return out, err
	}
	if amount <= 0 {
		out.Outcome, out.Reason = types.OutcomeAborted, "position size is zero"
		return out, nil
	}
	out.Amount = amount

	ok, err := e.executor.Execute(ctx, req.Symbol, req.Side, amount, levels.EntryPrice, levels.TakeProfit, levels.StopLoss)
	if !ok {
		out.Outcome = types.OutcomeFailed
		if err != nil {
			out.Reason = err.Error()
		}
		return out, err
	}
	out.Outcome = types.OutcomeExecuted
	return out, nil
}

func (e *Engine) hasExposure(ctx context.Context, symbol string) (bool, error) {
	positions, err := e.venue.FetchPositions(ctx, symbol)
	if err != nil {
		return false, fmt.Errorf("fetch positions %s: %w", symbol, err)
	}
	for _, p := range positions {
		if p.Amount != 0 {
			return true, nil
		}
	}
	orders, err := e.venue.FetchOpenOrders(ctx, symbol)
	if err != nil {
		return false, fmt.Errorf("fetch open orders %s: %w", symbol, err)
	}
	return len(orders) > 0, nil
}
