package signals

import (
	"testing"

	"lorentzian-trading-bot/internal/types"
)

func buyRow() types.ClassificationRow {
	return types.ClassificationRow{
		Timestamp:       "2025-08-17 14:05:00",
		IsNewBuySignal:  true,
		IsSmaUptrend:    true,
		IsEmaUptrend:    true,
		Prediction:      7,
		StartLongTrade:  64210.5,
		StartShortTrade: 64300,
	}
}

func sellRow() types.ClassificationRow {
	return types.ClassificationRow{
		Timestamp:       "2025-08-17 14:06:00",
		IsNewSellSignal: true,
		IsSmaDowntrend:  true,
		IsEmaDowntrend:  true,
		Prediction:      -8,
		StartLongTrade:  64100,
		StartShortTrade: 64350.25,
	}
}

func TestEvaluateBuy(t *testing.T) {
	sig := Evaluate(buyRow(), DefaultPredictionThreshold)
	if sig.Status != types.SignalBuy {
		t.Fatalf("Expected buy, got %s", sig.Status)
	}
	if sig.EntryPrice != 64210.5 {
		t.Errorf("Expected entry from startLongTrade, got %f", sig.EntryPrice)
	}
}

func TestEvaluateSell(t *testing.T) {
	sig := Evaluate(sellRow(), DefaultPredictionThreshold)
	if sig.Status != types.SignalSell {
		t.Fatalf("Expected sell, got %s", sig.Status)
	}
	if sig.EntryPrice != 64350.25 {
		t.Errorf("Expected entry from startShortTrade, got %f", sig.EntryPrice)
	}
}

func TestEvaluateBuyGates(t *testing.T) {
	cases := map[string]func(*types.ClassificationRow){
		"no new buy signal":      func(r *types.ClassificationRow) { r.IsNewBuySignal = false },
		"sma not up":             func(r *types.ClassificationRow) { r.IsSmaUptrend = false },
		"ema not up":             func(r *types.ClassificationRow) { r.IsEmaUptrend = false },
		"prediction below limit": func(r *types.ClassificationRow) { r.Prediction = 5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			row := buyRow()
			mutate(&row)
			if sig := Evaluate(row, DefaultPredictionThreshold); sig.Status != types.SignalNoSignal {
				t.Errorf("Expected no_signal, got %s", sig.Status)
			}
		})
	}
}

func TestEvaluateSellGates(t *testing.T) {
	cases := map[string]func(*types.ClassificationRow){
		"no new sell signal":     func(r *types.ClassificationRow) { r.IsNewSellSignal = false },
		"sma not down":           func(r *types.ClassificationRow) { r.IsSmaDowntrend = false },
		"ema not down":           func(r *types.ClassificationRow) { r.IsEmaDowntrend = false },
		"prediction above limit": func(r *types.ClassificationRow) { r.Prediction = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			row := sellRow()
			mutate(&row)
			if sig := Evaluate(row, DefaultPredictionThreshold); sig.Status != types.SignalNoSignal {
				t.Errorf("Expected no_signal, got %s", sig.Status)
			}
		})
	}
}

func TestEvaluateThresholdBoundary(t *testing.T) {
	row := buyRow()
	row.Prediction = 6
	if sig := Evaluate(row, 6); sig.Status != types.SignalBuy {
		t.Errorf("Expected buy at threshold, got %s", sig.Status)
	}
	srow := sellRow()
	srow.Prediction = -6
	if sig := Evaluate(srow, 6); sig.Status != types.SignalSell {
		t.Errorf("Expected sell at negative threshold, got %s", sig.Status)
	}
}

func TestEvaluateBuyAndSellExclusive(t *testing.T) {
	for mask := 0; mask < 1<<6; mask++ {
		for _, pred := range []float64{-9, -6, 0, 6, 9} {
			row := types.ClassificationRow{
				IsNewBuySignal:  mask&1 != 0,
				IsNewSellSignal: mask&2 != 0,
				IsSmaUptrend:    mask&4 != 0,
				IsSmaDowntrend:  mask&8 != 0,
				IsEmaUptrend:    mask&16 != 0,
				IsEmaDowntrend:  mask&32 != 0,
				Prediction:      pred,
			}
			buy := row.IsNewBuySignal && row.IsSmaUptrend && row.IsEmaUptrend && row.Prediction >= 6
			sell := row.IsNewSellSignal && row.IsSmaDowntrend && row.IsEmaDowntrend && row.Prediction <= -6
			if buy && sell {
				t.Fatalf("buy and sell both hold for %+v", row)
			}
			sig := Evaluate(row, 6)
			switch {
			case buy && sig.Status != types.SignalBuy,
				sell && sig.Status != types.SignalSell,
				!buy && !sell && sig.Status != types.SignalNoSignal:
				t.Errorf("mask %06b prediction %v: got %s", mask, pred, sig.Status)
			}
		}
	}
}
