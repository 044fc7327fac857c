package eod

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"lorentzian-trading-bot/internal/tradelog"
)

func TestSummarizeDayNoJournal(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	path, err := NewSummarizer("").SummarizeDay(context.Background(), time.Now())
	if err != nil || path != "" {
		t.Fatalf("Expected empty result, got %q, %v", path, err)
	}
}

func TestSummarizeDayAggregatesBySymbol(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	for _, e := range []tradelog.Entry{
		{Symbol: "BTCUSDT", Side: "buy", Amount: 2, EntryPrice: 100, Outcome: "executed"},
		{Symbol: "BTCUSDT", Side: "sell", Amount: 1, EntryPrice: 110, Outcome: "executed"},
		{Symbol: "BTCUSDT", Side: "buy", Amount: 5, EntryPrice: 100, Outcome: "failed"},
		{Symbol: "ADAUSDT", Side: "sell", Amount: 10, EntryPrice: 0.5, Outcome: "executed"},
	} {
		if err := tradelog.Append(e); err != nil {
			t.Fatal(err)
		}
	}

	path, err := NewSummarizer(t.TempDir()).SummarizeDay(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("SummarizeDay: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"symbol", "attempts", "executed", "failed", "buy_notional", "sell_notional"},
		{"ADAUSDT", "1", "1", "0", "0.00", "5.00"},
		{"BTCUSDT", "3", "2", "1", "200.00", "110.00"},
		{"TOTAL", "4", "3", "1", "200.00", "115.00"},
	}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d: %v", len(want), len(rows), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d: expected %q, got %q", i, j, want[i][j], rows[i][j])
			}
		}
	}
}

func TestSummarizeYesterdayUsesPreviousUTCDay(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	s := &eodSummarizer{now: func() time.Time { return time.Date(2024, 5, 2, 0, 5, 0, 0, time.UTC) }}

	if err := os.WriteFile(tradelog.DailyPath(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		[]byte(`{"symbol":"BTCUSDT","side":"buy","amount":1,"entry_price":50,"outcome":"executed"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := s.SummarizeYesterday(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if path == "" || path != s.csvPath(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected summary path %q", path)
	}
}
