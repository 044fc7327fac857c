// Package paper simulates an account for DRY_RUN mode. Market data and
// precision come from a real venue; balances, leverage and orders stay local.
package paper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/types"
)

// MarketData is the read-only subset of a venue the simulator needs.
type MarketData interface {
	FetchTicker(ctx context.Context, symbol string) (types.Ticker, error)
	PriceToPrecision(ctx context.Context, symbol string, price float64) (float64, error)
	AmountToPrecision(ctx context.Context, symbol string, amount float64) (float64, error)
}

type Venue struct {
	market MarketData
	quote  string

	mu       sync.Mutex
	balance  float64
	leverage map[string]float64
	orders   map[string][]types.Order

	seq atomic.Int64
}

var _ interfaces.Venue = (*Venue)(nil)

func New(market MarketData, quoteCurrency string, startingBalance float64) *Venue {
	return &Venue{
		market:   market,
		quote:    quoteCurrency,
		balance:  startingBalance,
		leverage: map[string]float64{},
		orders:   map[string][]types.Order{},
	}
}

func (v *Venue) FetchTicker(ctx context.Context, symbol string) (types.Ticker, error) {
	return v.market.FetchTicker(ctx, symbol)
}

func (v *Venue) PriceToPrecision(ctx context.Context, symbol string, price float64) (float64, error) {
	return v.market.PriceToPrecision(ctx, symbol, price)
}

func (v *Venue) AmountToPrecision(ctx context.Context, symbol string, amount float64) (float64, error) {
	return v.market.AmountToPrecision(ctx, symbol, amount)
}

func (v *Venue) FetchBalance(context.Context) (types.Balance, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return types.Balance{
		Total: map[string]float64{v.quote: v.balance},
		Free:  map[string]float64{v.quote: v.balance},
	}, nil
}

// FetchPositions is always empty: the simulator tracks brackets as orders only.
func (v *Venue) FetchPositions(context.Context, string) ([]types.Position, error) {
	return nil, nil
}

// FetchOpenOrders settles the symbol's bracket against the last price first.
// Once the price reaches a take-profit or stop-loss trigger the whole bracket
// is closed out.
func (v *Venue) FetchOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	v.mu.Lock()
	pending := len(v.orders[symbol]) > 0
	v.mu.Unlock()
	if pending {
		if t, err := v.market.FetchTicker(ctx, symbol); err != nil {
			logger.Warn(ctx, "Simulated bracket not settled", "symbol", symbol, "error", err)
		} else {
			v.settle(ctx, symbol, t.Last)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]types.Order(nil), v.orders[symbol]...), nil
}

func (v *Venue) settle(ctx context.Context, symbol string, last float64) {
	if last <= 0 {
		return
	}
	v.mu.Lock()
	var hit *types.Order
	for i, o := range v.orders[symbol] {
		if triggered(o, last) {
			hit = &v.orders[symbol][i]
			break
		}
	}
	if hit == nil {
		v.mu.Unlock()
		return
	}
	id, typ, trigger := hit.ID, hit.Type, hit.TriggerPrice
	n := len(v.orders[symbol])
	delete(v.orders, symbol)
	v.mu.Unlock()

	logger.Info(ctx, "Simulated bracket closed",
		"symbol", symbol,
		"order_id", id,
		"type", typ,
		"trigger_price", trigger,
		"last", last,
		"orders", n,
	)
}

// triggered reports whether a reduce-only exit fires at last. Sell exits close
// a long, buy exits close a short.
func triggered(o types.Order, last float64) bool {
	if !o.ReduceOnly || o.TriggerPrice <= 0 {
		return false
	}
	switch o.Type {
	case types.OrderTypeTakeProfitMarket:
		if o.Side == types.SideSell {
			return last >= o.TriggerPrice
		}
		return last <= o.TriggerPrice
	case types.OrderTypeStopMarket:
		if o.Side == types.SideSell {
			return last <= o.TriggerPrice
		}
		return last >= o.TriggerPrice
	}
	return false
}

func (v *Venue) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	v.mu.Lock()
	v.leverage[symbol] = leverage
	v.mu.Unlock()
	logger.Debug(ctx, "Simulated leverage set", "symbol", symbol, "leverage", leverage)
	return nil
}

// Leverage returns the last leverage set for symbol.
func (v *Venue) Leverage(symbol string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.leverage[symbol]
}

// CreateOrders accepts every well-formed spec as a resting order.
func (v *Venue) CreateOrders(ctx context.Context, specs []types.OrderSpec) ([]types.OrderResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]types.OrderResult, 0, len(specs))
	for _, s := range specs {
		if msg := validate(s); msg != "" {
			out = append(out, types.OrderResult{ClientOrderID: s.ClientOrderID, Status: "rejected", Message: msg})
			continue
		}
		id := fmt.Sprintf("SIM-%d", v.seq.Add(1))
		v.orders[s.Symbol] = append(v.orders[s.Symbol], types.Order{
			ID:            id,
			ClientOrderID: s.ClientOrderID,
			Symbol:        s.Symbol,
			Side:          s.Side,
			Type:          s.Type,
			Amount:        s.Amount,
			Price:         s.Price,
			TriggerPrice:  s.TriggerPrice,
			ReduceOnly:    s.ReduceOnly,
			Status:        "NEW",
		})
		out = append(out, types.OrderResult{ID: id, ClientOrderID: s.ClientOrderID, Status: "NEW"})
		logger.Info(ctx, "Simulated order accepted",
			"order_id", id,
			"symbol", s.Symbol,
			"type", s.Type,
			"side", s.Side,
			"amount", s.Amount,
			"price", s.Price,
			"trigger_price", s.TriggerPrice,
		)
	}
	return out, nil
}

func (v *Venue) CancelAllOrders(ctx context.Context, symbol string) error {
	v.mu.Lock()
	n := len(v.orders[symbol])
	delete(v.orders, symbol)
	v.mu.Unlock()
	logger.Info(ctx, "Simulated orders cancelled", "symbol", symbol, "count", n)
	return nil
}

func validate(s types.OrderSpec) string {
	switch {
	case s.Symbol == "":
		return "symbol required"
	case s.Amount <= 0:
		return "amount must be positive"
	case s.Side != types.SideBuy && s.Side != types.SideSell:
		return "invalid side " + string(s.Side)
	}
	switch s.Type {
	case types.OrderTypeLimit:
		if s.Price <= 0 {
			return "limit order requires a price"
		}
	case types.OrderTypeTakeProfitMarket, types.OrderTypeStopMarket:
		if s.TriggerPrice <= 0 {
			return strings.ReplaceAll(string(s.Type), "_", " ") + " requires a trigger price"
		}
	default:
		return "unsupported order type " + string(s.Type)
	}
	return ""
}
