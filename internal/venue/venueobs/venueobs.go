package venueobs

import (
	"context"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/metrics"
	"lorentzian-trading-bot/internal/trace"
	"lorentzian-trading-bot/internal/types"
)

// observableVenue wraps a Venue with logging, tracing and call metrics
type observableVenue struct {
	venue interfaces.Venue
	name  string
}

var _ interfaces.Venue = (*observableVenue)(nil)

func Wrap(venue interfaces.Venue, name string) interfaces.Venue {
	return &observableVenue{venue: venue, name: name}
}

func (ov *observableVenue) observe(op string, err error) {
	metrics.VenueCall(ov.name, op, err)
}

func (ov *observableVenue) FetchTicker(ctx context.Context, symbol string) (t types.Ticker, err error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchTicker")
	defer func() { trace.End(span, err) }()

	t, err = ov.venue.FetchTicker(ctx, symbol)
	ov.observe("fetch_ticker", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch ticker", err, "symbol", symbol)
		return types.Ticker{}, err
	}
	logger.DebugSkip(ctx, 1, "Ticker fetched", "symbol", symbol, "last", t.Last)
	return t, nil
}

func (ov *observableVenue) FetchBalance(ctx context.Context) (b types.Balance, err error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchBalance")
	defer func() { trace.End(span, err) }()

	b, err = ov.venue.FetchBalance(ctx)
	ov.observe("fetch_balance", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err)
		return types.Balance{}, err
	}
	logger.DebugSkip(ctx, 1, "Balance fetched", "assets", len(b.Total))
	return b, nil
}

func (ov *observableVenue) FetchPositions(ctx context.Context, symbol string) (p []types.Position, err error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchPositions")
	defer func() { trace.End(span, err) }()

	p, err = ov.venue.FetchPositions(ctx, symbol)
	ov.observe("fetch_positions", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err, "symbol", symbol)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Positions fetched", "symbol", symbol, "count", len(p))
	return p, nil
}

func (ov *observableVenue) FetchOpenOrders(ctx context.Context, symbol string) (o []types.Order, err error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchOpenOrders")
	defer func() { trace.End(span, err) }()

	o, err = ov.venue.FetchOpenOrders(ctx, symbol)
	ov.observe("fetch_open_orders", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch open orders", err, "symbol", symbol)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Open orders fetched", "symbol", symbol, "count", len(o))
	return o, nil
}

func (ov *observableVenue) SetLeverage(ctx context.Context, symbol string, leverage float64) (err error) {
	ctx, span := trace.StartSpan(ctx, "venue.SetLeverage")
	defer func() { trace.End(span, err) }()

	err = ov.venue.SetLeverage(ctx, symbol, leverage)
	ov.observe("set_leverage", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to set leverage", err, "symbol", symbol, "leverage", leverage)
		return err
	}
	logger.InfoSkip(ctx, 1, "Leverage set", "symbol", symbol, "leverage", leverage)
	return nil
}

func (ov *observableVenue) PriceToPrecision(ctx context.Context, symbol string, price float64) (float64, error) {
	p, err := ov.venue.PriceToPrecision(ctx, symbol, price)
	if err != nil {
		ov.observe("price_to_precision", err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to apply price precision", err, "symbol", symbol, "price", price)
	}
	return p, err
}

func (ov *observableVenue) AmountToPrecision(ctx context.Context, symbol string, amount float64) (float64, error) {
	a, err := ov.venue.AmountToPrecision(ctx, symbol, amount)
	if err != nil {
		ov.observe("amount_to_precision", err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to apply amount precision", err, "symbol", symbol, "amount", amount)
	}
	return a, err
}

func (ov *observableVenue) CreateOrders(ctx context.Context, specs []types.OrderSpec) (res []types.OrderResult, err error) {
	ctx, span := trace.StartSpan(ctx, "venue.CreateOrders")
	defer func() { trace.End(span, err) }()

	logger.InfoSkip(ctx, 1, "Submitting orders", "count", len(specs))

	res, err = ov.venue.CreateOrders(ctx, specs)
	ov.observe("create_orders", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit orders", err, "count", len(specs))
		return nil, err
	}
	for i, r := range res {
		args := []any{"index", i, "order_id", r.ID, "client_order_id", r.ClientOrderID, "status", r.Status}
		if r.Message != "" {
			args = append(args, "message", r.Message)
		}
		logger.InfoSkip(ctx, 1, "Order result", args...)
	}
	return res, nil
}

func (ov *observableVenue) CancelAllOrders(ctx context.Context, symbol string) (err error) {
	ctx, span := trace.StartSpan(ctx, "venue.CancelAllOrders")
	defer func() { trace.End(span, err) }()

	logger.InfoSkip(ctx, 1, "Cancelling all orders", "symbol", symbol)

	err = ov.venue.CancelAllOrders(ctx, symbol)
	ov.observe("cancel_all_orders", err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel orders", err, "symbol", symbol)
		return err
	}
	logger.InfoSkip(ctx, 1, "Orders cancelled", "symbol", symbol)
	return nil
}
