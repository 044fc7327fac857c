package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/metrics"
	"lorentzian-trading-bot/internal/tradelog"
	"lorentzian-trading-bot/internal/types"
)

// ExecutionError reports a bracket that was not fully accepted. Every order
// on the symbol has been cancelled when it is returned.
type ExecutionError struct {
	Symbol string
	Legs   []string // legs that failed, e.g. "stop_loss: rejected (-2021)"
	Err    error    // batch or cancellation error, if any
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bracket on %s failed", e.Symbol)
	if len(e.Legs) > 0 {
		b.WriteString(": " + strings.Join(e.Legs, "; "))
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

var legNames = [...]string{"entry", "take_profit", "stop_loss"}

// OrderExecutor submits the three legs of a bracket as one batch.
type OrderExecutor struct {
	venue interfaces.Venue
}

func NewOrderExecutor(venue interfaces.Venue) *OrderExecutor {
	return &OrderExecutor{venue: venue}
}

// Execute places a limit entry with reduce-only take-profit and stop-loss exits
// on the opposite side. If any leg is not left open the symbol's orders are
// cancelled and false is returned with an *ExecutionError.
func (oe *OrderExecutor) Execute(ctx context.Context, symbol string, side types.Side, amount, entry, tp, sl float64) (bool, error) {
	bracketID := newBracketID()
	exit := side.Opposite()
	specs := []types.OrderSpec{
		{
			Symbol:        symbol,
			Type:          types.OrderTypeLimit,
			Side:          side,
			Amount:        amount,
			Price:         entry,
			MarginMode:    types.MarginIsolated,
			TimeInForce:   types.TimeInForceGTC,
			ClientOrderID: bracketID + "-e",
		},
		{
			Symbol:        symbol,
			Type:          types.OrderTypeTakeProfitMarket,
			Side:          exit,
			Amount:        amount,
			TriggerPrice:  tp,
			ReduceOnly:    true,
			MarginMode:    types.MarginIsolated,
			ClientOrderID: bracketID + "-tp",
		},
		{
			Symbol:        symbol,
			Type:          types.OrderTypeStopMarket,
			Side:          exit,
			Amount:        amount,
			TriggerPrice:  sl,
			ReduceOnly:    true,
			MarginMode:    types.MarginIsolated,
			ClientOrderID: bracketID + "-sl",
		},
	}

	entryLog := tradelog.Entry{
		Symbol:     symbol,
		Side:       string(side),
		Amount:     amount,
		EntryPrice: entry,
		TakeProfit: tp,
		StopLoss:   sl,
		BracketID:  bracketID,
	}

	results, err := oe.venue.CreateOrders(ctx, specs)
	if err != nil {
		return false, oe.rollback(ctx, entryLog, nil, fmt.Errorf("create orders: %w", err))
	}

	var failed []string
	for i := range specs {
		if i >= len(results) {
			failed = append(failed, legNames[i]+": no result")
			metrics.IncOrder(string(specs[i].Side), false)
			continue
		}
		r := results[i]
		metrics.IncOrder(string(specs[i].Side), r.Accepted())
		entryLog.OrderIDs = append(entryLog.OrderIDs, r.ID)
		if !r.Accepted() {
			leg := legNames[i] + ": " + r.Status
			if r.Message != "" {
				leg += " (" + r.Message + ")"
			}
			failed = append(failed, leg)
		}
	}
	if len(failed) > 0 {
		return false, oe.rollback(ctx, entryLog, failed, nil)
	}

	for i, r := range results[:len(specs)] {
		price := specs[i].Price
		if price == 0 {
			price = specs[i].TriggerPrice
		}
		logger.Trade(ctx, symbol, string(specs[i].Side), amount, price, r.ID,
			"leg", legNames[i],
			"client_order_id", specs[i].ClientOrderID,
		)
	}

	entryLog.Outcome = string(types.OutcomeExecuted)
	if err := tradelog.Append(entryLog); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal bracket", err, "symbol", symbol)
	}
	return true, nil
}

// rollback cancels every order on the symbol and journals the failure.
func (oe *OrderExecutor) rollback(ctx context.Context, e tradelog.Entry, failed []string, cause error) error {
	metrics.IncRollback()
	logger.Risk(ctx, e.Symbol, "BRACKET_ROLLBACK",
		"bracket_id", e.BracketID,
		"failed_legs", failed,
	)
	if err := oe.venue.CancelAllOrders(ctx, e.Symbol); err != nil {
		cause = errors.Join(cause, fmt.Errorf("cancel all orders: %w", err))
	}

	execErr := &ExecutionError{Symbol: e.Symbol, Legs: failed, Err: cause}
	e.Outcome = string(types.OutcomeFailed)
	e.Reason = execErr.Error()
	if err := tradelog.Append(e); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal bracket", err, "symbol", e.Symbol)
	}
	return execErr
}

// newBracketID is a short client-order-id prefix shared by the three legs.
func newBracketID() string {
	return "lz" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
