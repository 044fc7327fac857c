// Package eod writes a per-symbol CSV summary of a day's trade journal.
package eod

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"lorentzian-trading-bot/internal/tradelog"
	"lorentzian-trading-bot/internal/types"
)

type eodSummarizer struct {
	outDir string
	now    func() time.Time
}

func (s *eodSummarizer) csvPath(day time.Time) string {
	dir := s.outDir
	if dir == "" {
		dir = filepath.Join(tradelog.Dir(), "eod")
	}
	return filepath.Join(dir, day.UTC().Format("2006-01-02")+".csv")
}

// SummarizeDay returns "" with no error when nothing was journaled that day.
func (s *eodSummarizer) SummarizeDay(ctx context.Context, day time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entries, err := tradelog.ReadDay(day)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	aggs := map[string]*aggRow{}
	for _, e := range entries {
		row := aggs[e.Symbol]
		if row == nil {
			row = &aggRow{Symbol: e.Symbol}
			aggs[e.Symbol] = row
		}
		row.Attempts++
		if e.Outcome != string(types.OutcomeExecuted) {
			row.Failed++
			continue
		}
		row.Executed++
		notional := e.Amount * e.EntryPrice
		switch types.Side(e.Side) {
		case types.SideBuy:
			row.BuyNotional += notional
		case types.SideSell:
			row.SellNotional += notional
		}
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(day)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"symbol", "attempts", "executed", "failed", "buy_notional", "sell_notional"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var total aggRow
	for _, k := range keys {
		r := aggs[k]
		if err := w.Write(record(r.Symbol, r)); err != nil {
			return "", err
		}
		total.Attempts += r.Attempts
		total.Executed += r.Executed
		total.Failed += r.Failed
		total.BuyNotional += r.BuyNotional
		total.SellNotional += r.SellNotional
	}
	if err := w.Write(record("TOTAL", &total)); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *eodSummarizer) SummarizeYesterday(ctx context.Context) (string, error) {
	return s.SummarizeDay(ctx, s.now().UTC().AddDate(0, 0, -1))
}

func record(label string, r *aggRow) []string {
	return []string{
		label,
		strconv.Itoa(r.Attempts),
		strconv.Itoa(r.Executed),
		strconv.Itoa(r.Failed),
		fmt.Sprintf("%.2f", r.BuyNotional),
		fmt.Sprintf("%.2f", r.SellNotional),
	}
}
