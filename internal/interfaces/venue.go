package interfaces

import (
	"context"

	"lorentzian-trading-bot/internal/types"
)

// Venue is the set of exchange operations the trading core depends on.
type Venue interface {
	FetchTicker(ctx context.Context, symbol string) (types.Ticker, error)
	FetchBalance(ctx context.Context) (types.Balance, error)
	FetchPositions(ctx context.Context, symbol string) ([]types.Position, error)
	FetchOpenOrders(ctx context.Context, symbol string) ([]types.Order, error)
	SetLeverage(ctx context.Context, symbol string, leverage float64) error
	PriceToPrecision(ctx context.Context, symbol string, price float64) (float64, error)
	AmountToPrecision(ctx context.Context, symbol string, amount float64) (float64, error)
	CreateOrders(ctx context.Context, specs []types.OrderSpec) ([]types.OrderResult, error)
	CancelAllOrders(ctx context.Context, symbol string) error
}
