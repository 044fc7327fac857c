package engine

import (
	"context"
	"math"
	"sync"

	"lorentzian-trading-bot/internal/dedup"
	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/types"
)

var testRisk = types.RiskConfig{
	StoplossFromAccountBalance:   0.23,
	TakeProfitFromAccountBalance: 0.30,
	StoplossFromCoin:             0.03,
	TakeProfitFromCoin:           0.023,
}

type fakeVenue struct {
	mu sync.Mutex

	last       float64
	balance    float64
	positions  []types.Position
	openOrders []types.Order
	statuses   []string // per leg; defaults to NEW
	batchErr   error
	tickerErr  error

	leverage float64
	specs    [][]types.OrderSpec
	cancels  int
}

var _ interfaces.Venue = (*fakeVenue)(nil)

func (f *fakeVenue) FetchTicker(_ context.Context, symbol string) (types.Ticker, error) {
	if f.tickerErr != nil {
		return types.Ticker{}, f.tickerErr
	}
	return types.Ticker{Symbol: symbol, Last: f.last}, nil
}

func (f *fakeVenue) FetchBalance(context.Context) (types.Balance, error) {
	return types.Balance{Total: map[string]float64{"USDT": f.balance}}, nil
}

func (f *fakeVenue) FetchPositions(context.Context, string) ([]types.Position, error) {
	return f.positions, nil
}

func (f *fakeVenue) FetchOpenOrders(context.Context, string) ([]types.Order, error) {
	return f.openOrders, nil
}

func (f *fakeVenue) SetLeverage(_ context.Context, _ string, leverage float64) error {
	f.leverage = leverage
	return nil
}

func (f *fakeVenue) PriceToPrecision(_ context.Context, _ string, price float64) (float64, error) {
	return math.Round(price*100) / 100, nil
}

func (f *fakeVenue) AmountToPrecision(_ context.Context, _ string, amount float64) (float64, error) {
	return math.Floor(amount*1000+1e-9) / 1000, nil
}

func (f *fakeVenue) CreateOrders(_ context.Context, specs []types.OrderSpec) ([]types.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, specs)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([]types.OrderResult, len(specs))
	for i, s := range specs {
		status := "NEW"
		if i < len(f.statuses) && f.statuses[i] != "" {
			status = f.statuses[i]
		}
		out[i] = types.OrderResult{ID: s.ClientOrderID + "-id", ClientOrderID: s.ClientOrderID, Status: status}
	}
	return out, nil
}

func (f *fakeVenue) CancelAllOrders(context.Context, string) error {
	f.cancels++
	return nil
}

type fakeReader struct {
	row types.ClassificationRow
	ok  bool
}

func (r *fakeReader) Latest(context.Context) (types.ClassificationRow, bool) { return r.row, r.ok }

type staticSettings types.Settings

func (s staticSettings) Snapshot(context.Context) types.Settings { return types.Settings(s) }

func buyRow(ts string) types.ClassificationRow {
	return types.ClassificationRow{
		Timestamp:      ts,
		IsNewBuySignal: true,
		IsSmaUptrend:   true,
		IsEmaUptrend:   true,
		Prediction:     8,
		StartLongTrade: 100.05,
	}
}

func newTestEngine(v *fakeVenue, r *fakeReader) *Engine {
	store := dedup.NewMemoryStore()
	e, err := New(Deps{
		Venue:  v,
		Reader: r,
		Settings: staticSettings{
			Symbol:              "BTCUSDT",
			Interval:            "1m",
			Limit:               1000,
			PredictionThreshold: 6,
			Risk:                testRisk,
		},
		Cursors: func(symbol, interval string) interfaces.Deduplicator {
			return dedup.New(store, dedup.Key("test", symbol, interval))
		},
	})
	if err != nil {
		panic(err)
	}
	return e
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }
