// Package binance adapts the Binance USDⓈ-M futures API to interfaces.Venue.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/types"
)

// Binance error code for a margin type that is already set.
const codeNoNeedToChangeMarginType = -4046

type Params struct {
	APIKey    string
	APISecret string
	Testnet   bool
	// ExchangeInfoTTL bounds how long symbol filters are cached.
	ExchangeInfoTTL time.Duration
}

type Client struct {
	futures *futures.Client

	mu        sync.Mutex
	filters   map[string]symbolFilters
	fetchedAt time.Time
	ttl       time.Duration
	isolated  map[string]bool
}

var _ interfaces.Venue = (*Client)(nil)

func New(p Params) *Client {
	if p.Testnet {
		futures.UseTestnet = true
	}
	ttl := p.ExchangeInfoTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		futures:  futures.NewClient(p.APIKey, p.APISecret),
		filters:  map[string]symbolFilters{},
		ttl:      ttl,
		isolated: map[string]bool{},
	}
}

func (c *Client) FetchTicker(ctx context.Context, symbol string) (types.Ticker, error) {
	prices, err := c.futures.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Ticker{}, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}
	for _, p := range prices {
		if p.Symbol == symbol {
			return types.Ticker{Symbol: symbol, Last: parseFloat(p.Price)}, nil
		}
	}
	return types.Ticker{Symbol: symbol}, nil
}

func (c *Client) FetchBalance(ctx context.Context) (types.Balance, error) {
	balances, err := c.futures.NewGetBalanceService().Do(ctx)
	if err != nil {
		return types.Balance{}, fmt.Errorf("fetch balance: %w", err)
	}
	out := types.Balance{Total: map[string]float64{}, Free: map[string]float64{}}
	for _, b := range balances {
		out.Total[b.Asset] = parseFloat(b.Balance)
		out.Free[b.Asset] = parseFloat(b.AvailableBalance)
	}
	return out, nil
}

func (c *Client) FetchPositions(ctx context.Context, symbol string) ([]types.Position, error) {
	risks, err := c.futures.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch positions %s: %w", symbol, err)
	}
	var out []types.Position
	for _, r := range risks {
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		side := types.SideBuy
		if amt < 0 {
			side = types.SideSell
			amt = -amt
		}
		out = append(out, types.Position{
			Symbol:        r.Symbol,
			Side:          side,
			Amount:        amt,
			EntryPrice:    parseFloat(r.EntryPrice),
			MarkPrice:     parseFloat(r.MarkPrice),
			UnrealizedPnL: parseFloat(r.UnRealizedProfit),
			Leverage:      parseFloat(r.Leverage),
		})
	}
	return out, nil
}

func (c *Client) FetchOpenOrders(ctx context.Context, symbol string) ([]types.Order, error) {
	orders, err := c.futures.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch open orders %s: %w", symbol, err)
	}
	out := make([]types.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, types.Order{
			ID:            strconv.FormatInt(o.OrderID, 10),
			ClientOrderID: o.ClientOrderID,
			Symbol:        o.Symbol,
			Side:          types.Side(strings.ToLower(string(o.Side))),
			Type:          types.OrderType(strings.ToLower(string(o.Type))),
			Amount:        parseFloat(o.OrigQuantity),
			Price:         parseFloat(o.Price),
			TriggerPrice:  parseFloat(o.StopPrice),
			ReduceOnly:    o.ReduceOnly,
			Status:        string(o.Status),
		})
	}
	return out, nil
}

// SetLeverage floors to the integer leverage Binance accepts, minimum 1.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	lev := int(leverage)
	if lev < 1 {
		lev = 1
	}
	if _, err := c.futures.NewChangeLeverageService().Symbol(symbol).Leverage(lev).Do(ctx); err != nil {
		return fmt.Errorf("set leverage %s x%d: %w", symbol, lev, err)
	}
	return nil
}

func (c *Client) PriceToPrecision(ctx context.Context, symbol string, price float64) (float64, error) {
	f, err := c.symbolFilters(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return roundToTick(price, f.tickSize), nil
}

func (c *Client) AmountToPrecision(ctx context.Context, symbol string, amount float64) (float64, error) {
	f, err := c.symbolFilters(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return truncateToStep(amount, f.stepSize), nil
}

// CreateOrders submits specs as one batch. Legs rejected by the venue come
// back with status "rejected" and the venue message.
func (c *Client) CreateOrders(ctx context.Context, specs []types.OrderSpec) ([]types.OrderResult, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	for _, s := range specs {
		if s.MarginMode == types.MarginIsolated {
			if err := c.ensureIsolated(ctx, s.Symbol); err != nil {
				return nil, err
			}
		}
	}

	services := make([]*futures.CreateOrderService, 0, len(specs))
	for _, s := range specs {
		svc, err := c.buildOrder(ctx, s)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}

	resp, err := c.futures.NewCreateBatchOrdersService().OrderList(services).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("create batch orders: %w", err)
	}
	return batchResults(specs, resp), nil
}

func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := c.futures.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		return fmt.Errorf("cancel all orders %s: %w", symbol, err)
	}
	return nil
}

func (c *Client) buildOrder(ctx context.Context, s types.OrderSpec) (*futures.CreateOrderService, error) {
	f, err := c.symbolFilters(ctx, s.Symbol)
	if err != nil {
		return nil, err
	}
	side := futures.SideTypeBuy
	if s.Side == types.SideSell {
		side = futures.SideTypeSell
	}

	svc := c.futures.NewCreateOrderService().
		Symbol(s.Symbol).
		Side(side).
		Quantity(formatStep(s.Amount, f.stepSize))
	if s.ClientOrderID != "" {
		svc = svc.NewClientOrderID(s.ClientOrderID)
	}

	switch s.Type {
	case types.OrderTypeLimit:
		tif := futures.TimeInForceTypeGTC
		if s.TimeInForce != "" {
			tif = futures.TimeInForceType(s.TimeInForce)
		}
		svc = svc.Type(futures.OrderTypeLimit).
			TimeInForce(tif).
			Price(formatStep(s.Price, f.tickSize))
	case types.OrderTypeTakeProfitMarket:
		svc = svc.Type(futures.OrderTypeTakeProfitMarket).
			StopPrice(formatStep(s.TriggerPrice, f.tickSize)).
			WorkingType(futures.WorkingTypeMarkPrice)
	case types.OrderTypeStopMarket:
		svc = svc.Type(futures.OrderTypeStopMarket).
			StopPrice(formatStep(s.TriggerPrice, f.tickSize)).
			WorkingType(futures.WorkingTypeMarkPrice)
	default:
		return nil, fmt.Errorf("unsupported order type %q", s.Type)
	}
	if s.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	return svc, nil
}

// batchResults maps the batch response back onto specs. The client
// library either fills both slices index-aligned or appends successes and
// failures separately; both layouts are handled and missing slots are rejected.
func batchResults(specs []types.OrderSpec, resp *futures.CreateBatchOrdersResponse) []types.OrderResult {
	out := make([]types.OrderResult, len(specs))
	for i, s := range specs {
		out[i] = types.OrderResult{ClientOrderID: s.ClientOrderID, Status: "rejected", Message: "no result returned"}
	}
	if resp == nil {
		return out
	}

	aligned := len(resp.Orders) == len(specs) && len(resp.Errors) == len(specs)
	if aligned {
		for i := range specs {
			if i < len(resp.Errors) && resp.Errors[i] != nil {
				out[i].Message = resp.Errors[i].Error()
				continue
			}
			if o := resp.Orders[i]; o != nil {
				out[i] = orderResult(o)
			}
		}
		return out
	}

	byClientID := map[string]int{}
	for i, s := range specs {
		if s.ClientOrderID != "" {
			byClientID[s.ClientOrderID] = i
		}
	}
	filled := make([]bool, len(specs))
	for _, o := range resp.Orders {
		if o == nil {
			continue
		}
		if i, ok := byClientID[o.ClientOrderID]; ok {
			out[i] = orderResult(o)
			filled[i] = true
		}
	}
	errs := make([]error, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		if e != nil {
			errs = append(errs, e)
		}
	}
	for i := range out {
		if !filled[i] && len(errs) > 0 {
			out[i].Message = errs[0].Error()
			errs = errs[1:]
		}
	}
	return out
}

func orderResult(o *futures.Order) types.OrderResult {
	return types.OrderResult{
		ID:            strconv.FormatInt(o.OrderID, 10),
		ClientOrderID: o.ClientOrderID,
		Status:        string(o.Status),
	}
}

func (c *Client) ensureIsolated(ctx context.Context, symbol string) error {
	c.mu.Lock()
	done := c.isolated[symbol]
	c.mu.Unlock()
	if done {
		return nil
	}

	err := c.futures.NewChangeMarginTypeService().Symbol(symbol).MarginType(futures.MarginTypeIsolated).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != codeNoNeedToChangeMarginType {
			return fmt.Errorf("set isolated margin %s: %w", symbol, err)
		}
	}
	logger.Debug(ctx, "Isolated margin confirmed", "symbol", symbol)

	c.mu.Lock()
	c.isolated[symbol] = true
	c.mu.Unlock()
	return nil
}

func (c *Client) symbolFilters(ctx context.Context, symbol string) (symbolFilters, error) {
	c.mu.Lock()
	f, ok := c.filters[symbol]
	fresh := time.Since(c.fetchedAt) < c.ttl
	c.mu.Unlock()
	if ok && fresh {
		return f, nil
	}

	info, err := c.futures.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return symbolFilters{}, fmt.Errorf("fetch exchange info: %w", err)
	}

	loaded := make(map[string]symbolFilters, len(info.Symbols))
	for _, s := range info.Symbols {
		sf := symbolFilters{}
		if pf := s.PriceFilter(); pf != nil {
			sf.tickSize = parseDecimal(pf.TickSize)
		}
		if lf := s.LotSizeFilter(); lf != nil {
			sf.stepSize = parseDecimal(lf.StepSize)
		}
		loaded[s.Symbol] = sf
	}

	c.mu.Lock()
	c.filters = loaded
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	f, ok = loaded[symbol]
	if !ok {
		return symbolFilters{}, fmt.Errorf("unknown symbol %s", symbol)
	}
	return f, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
