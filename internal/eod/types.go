package eod

// aggRow is the per-symbol summary of one day's journal.
type aggRow struct {
	Symbol       string
	Attempts     int
	Executed     int
	Failed       int
	BuyNotional  float64 // amount * entry over executed buy brackets
	SellNotional float64
}
