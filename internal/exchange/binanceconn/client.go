// Package binanceconn implements the exchange connectivity boundary for
// Binance on top of the go-binance SDK. One client carries both the spot and
// the USD-M futures transports, mirroring the two sub-accounts a Binance
// credential spans; the canonical symbol decides which transport serves a
// call.
package binanceconn

import (
	"context"
	"strconv"
	"strings"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

type Client struct {
	spot    *binance.Client
	futures *futures.Client
}

var _ exchange.Client = (*Client)(nil)

func New(key, secret string) *Client {
	return &Client{
		spot:    binance.NewClient(key, secret),
		futures: binance.NewFuturesClient(key, secret),
	}
}

// isFutures reports whether the canonical symbol names a derivative product
// (settlement suffix present).
func isFutures(symbol string) bool {
	return strings.Contains(symbol, ":")
}

// wireSymbol flattens the canonical symbol to Binance's joined form:
// BTC/USDT:USDT -> BTCUSDT.
func wireSymbol(symbol string) string {
	if i := strings.Index(symbol, ":"); i >= 0 {
		symbol = symbol[:i]
	}

	return strings.ReplaceAll(symbol, "/", "")
}

func (c *Client) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	wire := wireSymbol(symbol)

	if isFutures(symbol) {
		prices, err := c.futures.NewListPricesService().Symbol(wire).Do(ctx)
		if err != nil {
			return exchange.Ticker{}, err
		}

		if len(prices) == 0 {
			return exchange.Ticker{}, errors.Newf(errors.ErrCodePriceFailed, "no price for %s", symbol)
		}

		last, err := decimal.NewFromString(prices[0].Price)
		if err != nil {
			return exchange.Ticker{}, err
		}

		return exchange.Ticker{Symbol: symbol, Last: last}, nil
	}

	prices, err := c.spot.NewListPricesService().Symbol(wire).Do(ctx)
	if err != nil {
		return exchange.Ticker{}, err
	}

	if len(prices) == 0 {
		return exchange.Ticker{}, errors.Newf(errors.ErrCodePriceFailed, "no price for %s", symbol)
	}

	last, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return exchange.Ticker{}, err
	}

	return exchange.Ticker{Symbol: symbol, Last: last}, nil
}

// FetchFreeBalance merges the futures wallet over the spot wallet. The
// derivative balance is the funding source for futures instructions, and the
// merge order lets it shadow same-asset spot entries.
func (c *Client) FetchFreeBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	free := make(map[string]decimal.Decimal)

	account, err := c.spot.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, err
	}

	for _, b := range account.Balances {
		amount, err := decimal.NewFromString(b.Free)
		if err != nil {
			continue
		}

		if amount.IsPositive() {
			free[b.Asset] = amount
		}
	}

	balances, err := c.futures.NewGetBalanceService().Do(ctx)
	if err != nil {
		return nil, err
	}

	for _, b := range balances {
		amount, err := decimal.NewFromString(b.AvailableBalance)
		if err != nil {
			continue
		}

		if amount.IsPositive() {
			free[b.Asset] = amount
		}
	}

	return free, nil
}

func (c *Client) FetchPositions(ctx context.Context, symbols []string) ([]exchange.PositionEntry, error) {
	entries := make([]exchange.PositionEntry, 0, len(symbols))

	for _, symbol := range symbols {
		risks, err := c.futures.NewGetPositionRiskService().Symbol(wireSymbol(symbol)).Do(ctx)
		if err != nil {
			return nil, err
		}

		for _, risk := range risks {
			amount, err := decimal.NewFromString(risk.PositionAmt)
			if err != nil || amount.IsZero() {
				continue
			}

			side := "long"
			if amount.IsNegative() || strings.EqualFold(risk.PositionSide, "SHORT") {
				side = "short"
			}

			entries = append(entries, exchange.PositionEntry{
				Symbol:    symbol,
				Side:      side,
				Contracts: amount.Abs(),
			})
		}
	}

	return entries, nil
}

// FetchMarket reads the LOT_SIZE step for the symbol. Binance USD-M products
// are quantity-based, so ContractSize stays zero.
func (c *Client) FetchMarket(ctx context.Context, symbol string) (types.MarketInfo, error) {
	wire := wireSymbol(symbol)
	info := types.MarketInfo{Symbol: symbol}

	if isFutures(symbol) {
		res, err := c.futures.NewExchangeInfoService().Do(ctx)
		if err != nil {
			return types.MarketInfo{}, err
		}

		for _, s := range res.Symbols {
			if s.Symbol != wire {
				continue
			}

			if f := s.LotSizeFilter(); f != nil {
				step, err := decimal.NewFromString(f.StepSize)
				if err == nil {
					info.AmountIncrement = step
				}
			}

			return info, nil
		}

		return types.MarketInfo{}, errors.Newf(errors.ErrCodeConnectivity, "unknown symbol %s", symbol)
	}

	res, err := c.spot.NewExchangeInfoService().Symbol(wire).Do(ctx)
	if err != nil {
		return types.MarketInfo{}, err
	}

	for _, s := range res.Symbols {
		if s.Symbol != wire {
			continue
		}

		if f := s.LotSizeFilter(); f != nil {
			step, err := decimal.NewFromString(f.StepSize)
			if err == nil {
				info.AmountIncrement = step
			}
		}

		return info, nil
	}

	return types.MarketInfo{}, errors.Newf(errors.ErrCodeConnectivity, "unknown symbol %s", symbol)
}

func (c *Client) SetLeverage(ctx context.Context, leverage float64, symbol string, params map[string]any) error {
	_, err := c.futures.NewChangeLeverageService().
		Symbol(wireSymbol(symbol)).
		Leverage(int(leverage)).
		Do(ctx)

	return err
}

func (c *Client) CreateOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
	quantity decimal.Decimal, price optional.Option[float64], params map[string]any,
) (string, error) {
	if isFutures(symbol) {
		return c.createFuturesOrder(ctx, symbol, kind, side, quantity, price, params)
	}

	return c.createSpotOrder(ctx, symbol, kind, side, quantity, price, params)
}

func (c *Client) createFuturesOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
	quantity decimal.Decimal, price optional.Option[float64], params map[string]any,
) (string, error) {
	svc := c.futures.NewCreateOrderService().
		Symbol(wireSymbol(symbol))

	if side == types.SideBuy {
		svc = svc.Side(futures.SideTypeBuy)
	} else {
		svc = svc.Side(futures.SideTypeSell)
	}

	// closePosition trigger orders carry no quantity: they flatten whatever
	// the position holds when the trigger fires.
	if closeAll, ok := params["closePosition"].(bool); ok && closeAll {
		svc = svc.ClosePosition(true)
	} else {
		svc = svc.Quantity(quantity.String())
	}

	switch {
	case params["orderType"] != nil:
		svc = svc.Type(futures.OrderType(params["orderType"].(string)))
	case kind == types.OrderKindLimit && price.IsSome():
		svc = svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(decimal.NewFromFloat(price.Unwrap()).String())
	default:
		svc = svc.Type(futures.OrderTypeMarket)
	}

	if stop, ok := params["stopPrice"].(float64); ok {
		svc = svc.StopPrice(decimal.NewFromFloat(stop).String())
	}

	if id, ok := params["newClientOrderId"].(string); ok {
		svc = svc.NewClientOrderID(id)
	}

	if reduce, ok := params["reduceOnly"].(bool); ok && reduce {
		svc = svc.ReduceOnly(true)
	}

	if posSide, ok := params["positionSide"].(string); ok {
		svc = svc.PositionSide(futures.PositionSideType(posSide))
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Client) createSpotOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
	quantity decimal.Decimal, price optional.Option[float64], params map[string]any,
) (string, error) {
	svc := c.spot.NewCreateOrderService().
		Symbol(wireSymbol(symbol)).
		Quantity(quantity.String())

	if side == types.SideBuy {
		svc = svc.Side(binance.SideTypeBuy)
	} else {
		svc = svc.Side(binance.SideTypeSell)
	}

	if kind == types.OrderKindLimit && price.IsSome() {
		svc = svc.Type(binance.OrderTypeLimit).
			TimeInForce(binance.TimeInForceTypeGTC).
			Price(decimal.NewFromFloat(price.Unwrap()).String())
	} else {
		svc = svc.Type(binance.OrderTypeMarket)
	}

	if id, ok := params["newClientOrderId"].(string); ok {
		svc = svc.NewClientOrderID(id)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(res.OrderID, 10), nil
}

// SyncTime re-derives the client/server time offset used to sign requests.
func (c *Client) SyncTime(ctx context.Context) error {
	if _, err := c.spot.NewSetServerTimeService().Do(ctx); err != nil {
		return err
	}

	_, err := c.futures.NewSetServerTimeService().Do(ctx)

	return err
}
