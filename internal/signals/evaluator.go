package signals

import "lorentzian-trading-bot/internal/types"

const DefaultPredictionThreshold = 6

// Evaluate turns a classification row into a trade signal. BUY needs a new buy
// flag, both trend filters up and prediction >= threshold; SELL is the mirror
// with prediction <= -threshold. BUY is checked first.
func Evaluate(row types.ClassificationRow, threshold int) types.TradeSignal {
	t := float64(threshold)
	if row.IsNewBuySignal && row.IsSmaUptrend && row.IsEmaUptrend && row.Prediction >= t {
		return types.TradeSignal{Status: types.SignalBuy, EntryPrice: row.StartLongTrade}
	}
	if row.IsNewSellSignal && row.IsSmaDowntrend && row.IsEmaDowntrend && row.Prediction <= -t {
		return types.TradeSignal{Status: types.SignalSell, EntryPrice: row.StartShortTrade}
	}
	return types.TradeSignal{Status: types.SignalNoSignal}
}
