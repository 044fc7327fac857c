package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lorentzian-trading-bot/internal/types"
)

func TestExecuteBracketAccepted(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	v := &fakeVenue{statuses: []string{"NEW", "new", "open"}}

	ok, err := NewOrderExecutor(v).Execute(context.Background(), "BTCUSDT", types.SideBuy, 0.5, 99.9, 102.2, 96.9)
	if !ok || err != nil {
		t.Fatalf("Expected success, got %v, %v", ok, err)
	}
	if v.cancels != 0 {
		t.Errorf("Expected no cancellation, got %d", v.cancels)
	}

	specs := v.specs[0]
	if len(specs) != 3 {
		t.Fatalf("Expected 3 legs, got %d", len(specs))
	}
	entry, tp, sl := specs[0], specs[1], specs[2]
	if entry.Type != types.OrderTypeLimit || entry.Side != types.SideBuy || entry.Price != 99.9 ||
		entry.MarginMode != types.MarginIsolated || entry.TimeInForce != types.TimeInForceGTC || entry.ReduceOnly {
		t.Errorf("Unexpected entry leg %+v", entry)
	}
	if tp.Type != types.OrderTypeTakeProfitMarket || tp.Side != types.SideSell || !tp.ReduceOnly || tp.TriggerPrice != 102.2 {
		t.Errorf("Unexpected take-profit leg %+v", tp)
	}
	if sl.Type != types.OrderTypeStopMarket || sl.Side != types.SideSell || !sl.ReduceOnly || sl.TriggerPrice != 96.9 {
		t.Errorf("Unexpected stop-loss leg %+v", sl)
	}
	for _, leg := range specs {
		if leg.MarginMode != types.MarginIsolated {
			t.Errorf("Expected isolated margin on %q, got %q", leg.ClientOrderID, leg.MarginMode)
		}
	}

	prefix := strings.TrimSuffix(entry.ClientOrderID, "-e")
	if prefix == entry.ClientOrderID || !strings.HasPrefix(tp.ClientOrderID, prefix) || !strings.HasPrefix(sl.ClientOrderID, prefix) {
		t.Errorf("Expected legs to share a bracket id: %q %q %q", entry.ClientOrderID, tp.ClientOrderID, sl.ClientOrderID)
	}
	if len(entry.ClientOrderID) > 36 {
		t.Errorf("Client order id too long: %q", entry.ClientOrderID)
	}
}

func TestExecuteSellExitsOnBuySide(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	v := &fakeVenue{}

	if ok, _ := NewOrderExecutor(v).Execute(context.Background(), "BTCUSDT", types.SideSell, 1, 100.1, 97.8, 103.1); !ok {
		t.Fatal("Expected success")
	}
	if v.specs[0][1].Side != types.SideBuy || v.specs[0][2].Side != types.SideBuy {
		t.Errorf("Expected buy-side exits, got %+v", v.specs[0])
	}
}

func TestExecuteRollsBackRejectedLeg(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	v := &fakeVenue{statuses: []string{"NEW", "NEW", "REJECTED"}}

	ok, err := NewOrderExecutor(v).Execute(context.Background(), "BTCUSDT", types.SideBuy, 0.5, 99.9, 102.2, 96.9)
	if ok {
		t.Fatal("Expected failure")
	}
	var ee *ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("Expected ExecutionError, got %v", err)
	}
	if len(ee.Legs) != 1 || !strings.HasPrefix(ee.Legs[0], "stop_loss") {
		t.Errorf("Expected stop_loss leg named, got %v", ee.Legs)
	}
	if v.cancels != 1 {
		t.Errorf("Expected one cancel-all, got %d", v.cancels)
	}
}

func TestExecuteRollsBackBatchError(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	boom := errors.New("network down")
	v := &fakeVenue{batchErr: boom}

	ok, err := NewOrderExecutor(v).Execute(context.Background(), "BTCUSDT", types.SideBuy, 0.5, 99.9, 102.2, 96.9)
	if ok || !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped batch error, got %v, %v", ok, err)
	}
	if v.cancels != 1 {
		t.Errorf("Expected one cancel-all, got %d", v.cancels)
	}
}
