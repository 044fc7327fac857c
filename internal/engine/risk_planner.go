package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/types"
)

const (
	// entryDistance is the fractional offset of a limit entry from the last price,
	// and the tolerance for honouring a suggested entry.
	entryDistance = 0.001
	// leverageBuffer is added to the venue leverage on top of the sizing leverage.
	leverageBuffer = 5
)

// RiskPlanner turns a side and risk fractions into bracket prices and a
// leveraged position size.
type RiskPlanner struct {
	venue interfaces.Venue
	quote string
}

func NewRiskPlanner(venue interfaces.Venue, quoteCurrency string) *RiskPlanner {
	return &RiskPlanner{venue: venue, quote: quoteCurrency}
}

// PlanLevels computes entry, take-profit and stop-loss. desiredEntry is honoured
// only within entryDistance of the last price; buys never enter above the last
// price and sells never below it. A nil result with no error means the ticker
// had no price and the trade should be abandoned.
func (p *RiskPlanner) PlanLevels(ctx context.Context, symbol string, desiredEntry *float64, tp, sl float64, side types.Side) (*types.TradeLevels, error) {
	if side != types.SideBuy && side != types.SideSell {
		return nil, fmt.Errorf("unsupported side %q: must be 'buy' or 'sell'", side)
	}

	ticker, err := p.venue.FetchTicker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}
	last := ticker.Last
	if last <= 0 {
		logger.Warn(ctx, "Ticker has no last price", "symbol", symbol)
		return nil, nil
	}

	entry := marketEntry(last, side)
	if desiredEntry != nil {
		d := *desiredEntry
		if math.Abs(d-last)/last <= entryDistance {
			if side == types.SideBuy {
				entry = math.Min(d, last)
			} else {
				entry = math.Max(d, last)
			}
		} else {
			logger.Debug(ctx, "Suggested entry too far from market, recomputing",
				"symbol", symbol,
				"desired", d,
				"last", last,
			)
		}
	}

	takeProfit, stopLoss := entry*(1+tp), entry*(1-sl)
	if side == types.SideSell {
		takeProfit, stopLoss = entry*(1-tp), entry*(1+sl)
	}

	levels := &types.TradeLevels{}
	for _, f := range []struct {
		dst *float64
		v   float64
	}{{&levels.EntryPrice, entry}, {&levels.TakeProfit, takeProfit}, {&levels.StopLoss, stopLoss}} {
		*f.dst, err = p.venue.PriceToPrecision(ctx, symbol, f.v)
		if err != nil {
			return nil, fmt.Errorf("price precision %s: %w", symbol, err)
		}
	}
	return levels, nil
}

func marketEntry(last float64, side types.Side) float64 {
	if side == types.SideBuy {
		return last * (1 - entryDistance)
	}
	return last * (1 + entryDistance)
}

// PlanAmount sizes the position from the quote balance. It sets the venue
// leverage as a side effect and returns 0 when there is nothing to trade with.
func (p *RiskPlanner) PlanAmount(ctx context.Context, symbol string, entry float64, risk types.RiskConfig) (float64, error) {
	bal, err := p.venue.FetchBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	balance := bal.Total[p.quote]
	if balance <= 0 || entry <= 0 {
		logger.Risk(ctx, symbol, "NO_BALANCE", "balance", balance, "entry", entry, "quote", p.quote)
		return 0, nil
	}

	leverage := p.CalculateLeverage(risk)
	if err := p.venue.SetLeverage(ctx, symbol, leverage+leverageBuffer); err != nil {
		return 0, fmt.Errorf("set leverage %s: %w", symbol, err)
	}

	amount, err := p.venue.AmountToPrecision(ctx, symbol, balance*leverage/entry)
	if err != nil {
		return 0, fmt.Errorf("amount precision %s: %w", symbol, err)
	}
	logger.Debug(ctx, "Position sized",
		"symbol", symbol,
		"balance", balance,
		"leverage", leverage,
		"entry", entry,
		"amount", amount,
	)
	return amount, nil
}

// CalculateLeverage is the larger of the stop-loss and take-profit ratios of
// account fraction to price move, rounded to two decimals.
func (p *RiskPlanner) CalculateLeverage(risk types.RiskConfig) float64 {
	if risk.StoplossFromCoin <= 0 || risk.TakeProfitFromCoin <= 0 {
		return 0
	}
	slLev := decimal.NewFromFloat(risk.StoplossFromAccountBalance).Div(decimal.NewFromFloat(risk.StoplossFromCoin))
	tpLev := decimal.NewFromFloat(risk.TakeProfitFromAccountBalance).Div(decimal.NewFromFloat(risk.TakeProfitFromCoin))
	lev, _ := decimal.Max(slLev, tpLev).Round(2).Float64()
	return lev
}
