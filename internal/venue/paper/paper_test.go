package paper

import (
	"context"
	"math"
	"testing"

	"lorentzian-trading-bot/internal/types"
)

type staticMarket struct{ last float64 }

func (m staticMarket) FetchTicker(_ context.Context, symbol string) (types.Ticker, error) {
	return types.Ticker{Symbol: symbol, Last: m.last}, nil
}

func (staticMarket) PriceToPrecision(_ context.Context, _ string, p float64) (float64, error) {
	return math.Round(p*10) / 10, nil
}

func (staticMarket) AmountToPrecision(_ context.Context, _ string, a float64) (float64, error) {
	return math.Floor(a*1000) / 1000, nil
}

func TestPaperOrdersLifecycle(t *testing.T) {
	ctx := context.Background()
	v := New(staticMarket{last: 100}, "USDT", 1000)

	bal, _ := v.FetchBalance(ctx)
	if bal.Total["USDT"] != 1000 {
		t.Fatalf("Expected starting balance 1000, got %v", bal.Total["USDT"])
	}

	res, err := v.CreateOrders(ctx, []types.OrderSpec{
		{Symbol: "BTCUSDT", Type: types.OrderTypeLimit, Side: types.SideBuy, Amount: 0.1, Price: 99.9},
		{Symbol: "BTCUSDT", Type: types.OrderTypeTakeProfitMarket, Side: types.SideSell, Amount: 0.1, TriggerPrice: 102.2, ReduceOnly: true},
		{Symbol: "BTCUSDT", Type: types.OrderTypeStopMarket, Side: types.SideSell, Amount: 0.1, ReduceOnly: true},
	})
	if err != nil {
		t.Fatalf("CreateOrders returned error: %v", err)
	}
	if !res[0].Accepted() || !res[1].Accepted() {
		t.Errorf("Expected first two legs accepted, got %+v", res)
	}
	if res[2].Accepted() {
		t.Errorf("Expected stop without trigger rejected, got %+v", res[2])
	}

	open, _ := v.FetchOpenOrders(ctx, "BTCUSDT")
	if len(open) != 2 {
		t.Fatalf("Expected 2 open orders, got %d", len(open))
	}

	if err := v.CancelAllOrders(ctx, "BTCUSDT"); err != nil {
		t.Fatal(err)
	}
	open, _ = v.FetchOpenOrders(ctx, "BTCUSDT")
	if len(open) != 0 {
		t.Errorf("Expected no open orders after cancel, got %d", len(open))
	}
}

func TestPaperLeverageAndMarketData(t *testing.T) {
	ctx := context.Background()
	v := New(staticMarket{last: 250}, "USDT", 500)

	if err := v.SetLeverage(ctx, "ETHUSDT", 18.04); err != nil {
		t.Fatal(err)
	}
	if got := v.Leverage("ETHUSDT"); got != 18.04 {
		t.Errorf("Expected leverage 18.04, got %v", got)
	}
	tk, _ := v.FetchTicker(ctx, "ETHUSDT")
	if tk.Last != 250 {
		t.Errorf("Expected market price passthrough, got %v", tk.Last)
	}
	if p, _ := v.PriceToPrecision(ctx, "ETHUSDT", 249.76); p != 249.8 {
		t.Errorf("Expected precision passthrough, got %v", p)
	}
}

// movingMarket lets a test move the last price between calls.
type movingMarket struct {
	staticMarket
}

func (m *movingMarket) FetchTicker(_ context.Context, symbol string) (types.Ticker, error) {
	return types.Ticker{Symbol: symbol, Last: m.last}, nil
}

func bracket(side types.Side, entry, tp, sl float64) []types.OrderSpec {
	exit := side.Opposite()
	return []types.OrderSpec{
		{Symbol: "BTCUSDT", Type: types.OrderTypeLimit, Side: side, Amount: 0.1, Price: entry},
		{Symbol: "BTCUSDT", Type: types.OrderTypeTakeProfitMarket, Side: exit, Amount: 0.1, TriggerPrice: tp, ReduceOnly: true},
		{Symbol: "BTCUSDT", Type: types.OrderTypeStopMarket, Side: exit, Amount: 0.1, TriggerPrice: sl, ReduceOnly: true},
	}
}

func TestPaperBracketSettlesOnTrigger(t *testing.T) {
	tests := []struct {
		name          string
		side          types.Side
		entry, tp, sl float64
		last          float64
	}{
		{"long take profit", types.SideBuy, 99.9, 102.2, 96.9, 102.5},
		{"long stop loss", types.SideBuy, 99.9, 102.2, 96.9, 96.0},
		{"short take profit", types.SideSell, 100.1, 97.8, 103.1, 97.5},
		{"short stop loss", types.SideSell, 100.1, 97.8, 103.1, 103.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := &movingMarket{staticMarket{last: 100}}
			v := New(m, "USDT", 1000)
			if _, err := v.CreateOrders(ctx, bracket(tt.side, tt.entry, tt.tp, tt.sl)); err != nil {
				t.Fatal(err)
			}

			open, _ := v.FetchOpenOrders(ctx, "BTCUSDT")
			if len(open) != 3 {
				t.Fatalf("Expected bracket to rest at 100, got %d orders", len(open))
			}

			m.last = tt.last
			open, _ = v.FetchOpenOrders(ctx, "BTCUSDT")
			if len(open) != 0 {
				t.Errorf("Expected bracket closed at %v, got %d orders", tt.last, len(open))
			}
		})
	}
}

func TestPaperAllowsNextBracketAfterSettlement(t *testing.T) {
	ctx := context.Background()
	m := &movingMarket{staticMarket{last: 100}}
	v := New(m, "USDT", 1000)

	if _, err := v.CreateOrders(ctx, bracket(types.SideBuy, 99.9, 102.2, 96.9)); err != nil {
		t.Fatal(err)
	}
	m.last = 103
	if open, _ := v.FetchOpenOrders(ctx, "BTCUSDT"); len(open) != 0 {
		t.Fatalf("Expected first bracket closed, got %d orders", len(open))
	}

	res, err := v.CreateOrders(ctx, bracket(types.SideSell, 103.1, 100.7, 106.1))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if !r.Accepted() {
			t.Errorf("Expected second bracket accepted, got %+v", r)
		}
	}
	if open, _ := v.FetchOpenOrders(ctx, "BTCUSDT"); len(open) != 3 {
		t.Errorf("Expected second bracket resting, got %d orders", len(open))
	}
}
