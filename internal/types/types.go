package types

import (
	"fmt"
	"strings"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the exit side for an entry on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func ParseSide(v string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(v))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unsupported side %q: must be 'buy' or 'sell'", v)
}

// ClassificationRow is one row appended by the classification worker.
// Column names follow the worker's table layout.
type ClassificationRow struct {
	Timestamp       string  `gorm:"column:timestamp" json:"timestamp"`
	Open            float64 `gorm:"column:open" json:"open"`
	High            float64 `gorm:"column:high" json:"high"`
	Low             float64 `gorm:"column:low" json:"low"`
	Close           float64 `gorm:"column:close" json:"close"`
	Volume          float64 `gorm:"column:volume" json:"volume"`
	IsNewBuySignal  bool    `gorm:"column:isNewBuySignal" json:"isNewBuySignal"`
	IsNewSellSignal bool    `gorm:"column:isNewSellSignal" json:"isNewSellSignal"`
	IsSmaUptrend    bool    `gorm:"column:isSmaUptrend" json:"isSmaUptrend"`
	IsSmaDowntrend  bool    `gorm:"column:isSmaDowntrend" json:"isSmaDowntrend"`
	IsEmaUptrend    bool    `gorm:"column:isEmaUptrend" json:"isEmaUptrend"`
	IsEmaDowntrend  bool    `gorm:"column:isEmaDowntrend" json:"isEmaDowntrend"`
	Prediction      float64 `gorm:"column:prediction" json:"prediction"`
	StartLongTrade  float64 `gorm:"column:startLongTrade" json:"startLongTrade"`
	StartShortTrade float64 `gorm:"column:startShortTrade" json:"startShortTrade"`
}

type SignalStatus string

const (
	SignalBuy      SignalStatus = "buy"
	SignalSell     SignalStatus = "sell"
	SignalNoSignal SignalStatus = "no_signal"
)

type TradeSignal struct {
	Status     SignalStatus `json:"status"`
	EntryPrice float64      `json:"entry_price,omitempty"`
}

// Side maps an actionable signal onto an order side.
func (s TradeSignal) Side() (Side, bool) {
	switch s.Status {
	case SignalBuy:
		return SideBuy, true
	case SignalSell:
		return SideSell, true
	}
	return "", false
}

// RiskConfig holds the account-level and price-move fractions that drive leverage.
type RiskConfig struct {
	StoplossFromAccountBalance   float64 `yaml:"stoploss_from_account_balance" json:"stoploss_from_account_balance"`
	TakeProfitFromAccountBalance float64 `yaml:"take_profit_from_account_balance" json:"take_profit_from_account_balance"`
	StoplossFromCoin             float64 `yaml:"stoploss_from_coin" json:"stoploss_from_coin"`
	TakeProfitFromCoin           float64 `yaml:"take_profit_from_coin" json:"take_profit_from_coin"`
}

// Settings is the hot-read configuration snapshot taken at the start of every cycle.
type Settings struct {
	Symbol              string     `json:"symbol"`
	Interval            string     `json:"interval"`
	Limit               int        `json:"limit"`
	PredictionThreshold int        `json:"prediction_threshold"`
	Risk                RiskConfig `json:"risk"`
}

type Ticker struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
}

type Balance struct {
	Total map[string]float64 `json:"total"`
	Free  map[string]float64 `json:"free"`
}

type Position struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Amount        float64 `json:"amount"`
	EntryPrice    float64 `json:"entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Leverage      float64 `json:"leverage"`
}

type OrderType string

const (
	OrderTypeLimit            OrderType = "limit"
	OrderTypeTakeProfitMarket OrderType = "take_profit_market"
	OrderTypeStopMarket       OrderType = "stop_market"
)

type MarginMode string

const MarginIsolated MarginMode = "isolated"

const TimeInForceGTC = "GTC"

type Order struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Type          OrderType `json:"type"`
	Amount        float64   `json:"amount"`
	Price         float64   `json:"price"`
	TriggerPrice  float64   `json:"trigger_price"`
	ReduceOnly    bool      `json:"reduce_only"`
	Status        string    `json:"status"`
}

// OrderSpec describes one order to submit. Price is for limit orders,
// TriggerPrice for the market-triggered exits.
type OrderSpec struct {
	Symbol        string     `json:"symbol"`
	Type          OrderType  `json:"type"`
	Side          Side       `json:"side"`
	Amount        float64    `json:"amount"`
	Price         float64    `json:"price,omitempty"`
	TriggerPrice  float64    `json:"trigger_price,omitempty"`
	ReduceOnly    bool       `json:"reduce_only"`
	MarginMode    MarginMode `json:"margin_mode,omitempty"`
	TimeInForce   string     `json:"time_in_force,omitempty"`
	ClientOrderID string     `json:"client_order_id,omitempty"`
}

type OrderResult struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

// Accepted reports whether the venue left the order open.
func (r OrderResult) Accepted() bool {
	switch strings.ToLower(r.Status) {
	case "open", "new":
		return true
	}
	return false
}

type TradeLevels struct {
	EntryPrice float64 `json:"entry_price"`
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
}

type Outcome string

const (
	OutcomeNoData    Outcome = "no_data"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeNoSignal  Outcome = "no_signal"
	OutcomeDeclined  Outcome = "declined"
	OutcomeAborted   Outcome = "aborted"
	OutcomeExecuted  Outcome = "executed"
	OutcomeFailed    Outcome = "failed"
)

// TradeOutcome is the result of one attempt to open a bracket.
type TradeOutcome struct {
	Outcome Outcome      `json:"outcome"`
	Symbol  string       `json:"symbol"`
	Side    Side         `json:"side"`
	Levels  *TradeLevels `json:"levels,omitempty"`
	Amount  float64      `json:"amount,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

type CycleResult struct {
	Symbol       string        `json:"symbol"`
	Interval     string        `json:"interval"`
	RowTimestamp string        `json:"row_timestamp,omitempty"`
	Signal       TradeSignal   `json:"signal"`
	Outcome      Outcome       `json:"outcome"`
	Trade        *TradeOutcome `json:"trade,omitempty"`
}
