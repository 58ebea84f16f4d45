package restconn

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

const (
	bybitBaseURL    = "https://api.bybit.com"
	bybitRecvWindow = "5000"
)

// Bybit talks the v5 unified API.
type Bybit struct {
	key    string
	secret string
	base   string
	http   *http.Client
	// clockOffset is the learned server-local clock delta in milliseconds,
	// applied to every signed timestamp after a SyncTime.
	clockOffset atomic.Int64
}

var _ exchange.Client = (*Bybit)(nil)

func NewBybit(key, secret string) *Bybit {
	return &Bybit{
		key:    key,
		secret: secret,
		base:   bybitBaseURL,
		http:   newHTTPClient(),
	}
}

// bybitCategory maps a canonical symbol to the v5 product category.
func bybitCategory(symbol string) string {
	switch {
	case isInverse(symbol):
		return "inverse"
	case isDerivative(symbol):
		return "linear"
	default:
		return "spot"
	}
}

// bybitSymbol flattens the canonical symbol: BTC/USDT:USDT -> BTCUSDT,
// BTC/USD:BTC -> BTCUSD.
func bybitSymbol(symbol string) string {
	base, quote, _ := splitSymbol(symbol)

	return base + quote
}

func (c *Bybit) timestamp() string {
	return strconv.FormatInt(time.Now().UnixMilli()+c.clockOffset.Load(), 10)
}

// sign adds the v5 authentication headers: the signature covers
// timestamp + key + recvWindow + payload.
func (c *Bybit) sign(req *http.Request, payload string) {
	ts := c.timestamp()
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(ts + c.key + bybitRecvWindow + payload))

	req.Header.Set("X-BAPI-API-KEY", c.key)
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
	req.Header.Set("X-BAPI-SIGN", hex.EncodeToString(mac.Sum(nil)))
}

type bybitEnvelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

func (c *Bybit) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := getRequest(c.base, path, query)
	if err != nil {
		return err
	}
	c.sign(req, query.Encode())

	return c.send(ctx, req, out)
}

func (c *Bybit) post(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "encode venue request", err)
	}

	req, err := postRequest(c.base, path, payload)
	if err != nil {
		return err
	}
	c.sign(req, string(payload))

	return c.send(ctx, req, out)
}

func (c *Bybit) send(ctx context.Context, req *http.Request, out any) error {
	var env bybitEnvelope
	if err := doJSON(ctx, c.http, req, &env); err != nil {
		return err
	}

	if env.RetCode != 0 {
		return errors.Newf(errors.ErrCodeUnknown, "bybit %d: %s", env.RetCode, env.RetMsg)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "decode venue response", err)
	}

	return nil
}

func (c *Bybit) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	query := url.Values{
		"category": {bybitCategory(symbol)},
		"symbol":   {bybitSymbol(symbol)},
	}
	if err := c.get(ctx, "/v5/market/tickers", query, &result); err != nil {
		return exchange.Ticker{}, err
	}

	if len(result.List) == 0 {
		return exchange.Ticker{}, errors.Newf(errors.ErrCodePriceFailed, "no price for %s", symbol)
	}

	last, err := decimal.NewFromString(result.List[0].LastPrice)
	if err != nil {
		return exchange.Ticker{}, err
	}

	return exchange.Ticker{Symbol: symbol, Last: last}, nil
}

func (c *Bybit) FetchFreeBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var result struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
				Locked        string `json:"locked"`
			} `json:"coin"`
		} `json:"list"`
	}
	query := url.Values{"accountType": {"UNIFIED"}}
	if err := c.get(ctx, "/v5/account/wallet-balance", query, &result); err != nil {
		return nil, err
	}

	free := make(map[string]decimal.Decimal)
	for _, account := range result.List {
		for _, coin := range account.Coin {
			balance, err := decimal.NewFromString(coin.WalletBalance)
			if err != nil {
				continue
			}

			if locked, err := decimal.NewFromString(coin.Locked); err == nil {
				balance = balance.Sub(locked)
			}

			free[coin.Coin] = balance
		}
	}

	return free, nil
}

func (c *Bybit) FetchPositions(ctx context.Context, symbols []string) ([]exchange.PositionEntry, error) {
	var entries []exchange.PositionEntry
	for _, symbol := range symbols {
		var result struct {
			List []struct {
				Side string `json:"side"` // Buy or Sell
				Size string `json:"size"`
			} `json:"list"`
		}
		query := url.Values{
			"category": {bybitCategory(symbol)},
			"symbol":   {bybitSymbol(symbol)},
		}
		if err := c.get(ctx, "/v5/position/list", query, &result); err != nil {
			return nil, err
		}

		for _, row := range result.List {
			size, err := decimal.NewFromString(row.Size)
			if err != nil || size.IsZero() {
				continue
			}

			side := "long"
			if row.Side == "Sell" {
				side = "short"
			}

			entries = append(entries, exchange.PositionEntry{
				Symbol:    symbol,
				Side:      side,
				Contracts: size,
			})
		}
	}

	return entries, nil
}

func (c *Bybit) FetchMarket(ctx context.Context, symbol string) (types.MarketInfo, error) {
	var result struct {
		List []struct {
			LotSizeFilter struct {
				QtyStep       string `json:"qtyStep"`
				BasePrecision string `json:"basePrecision"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}
	query := url.Values{
		"category": {bybitCategory(symbol)},
		"symbol":   {bybitSymbol(symbol)},
	}
	if err := c.get(ctx, "/v5/market/instruments-info", query, &result); err != nil {
		return types.MarketInfo{}, err
	}

	if len(result.List) == 0 {
		return types.MarketInfo{}, errors.Newf(errors.ErrCodeConnectivity, "no market info for %s", symbol)
	}

	step := result.List[0].LotSizeFilter.QtyStep
	if step == "" {
		step = result.List[0].LotSizeFilter.BasePrecision
	}

	increment, err := decimal.NewFromString(step)
	if err != nil {
		return types.MarketInfo{}, err
	}

	info := types.MarketInfo{Symbol: symbol, AmountIncrement: increment}
	if isInverse(symbol) {
		// Inverse contracts are denominated 1 USD per contract.
		info.IsContract = true
		info.ContractSize = decimal.NewFromInt(1)
	}

	return info, nil
}

func (c *Bybit) SetLeverage(ctx context.Context, leverage float64, symbol string, params map[string]any) error {
	lever := strconv.FormatFloat(leverage, 'f', -1, 64)

	return c.post(ctx, "/v5/position/set-leverage", map[string]any{
		"category":     bybitCategory(symbol),
		"symbol":       bybitSymbol(symbol),
		"buyLeverage":  lever,
		"sellLeverage": lever,
	}, nil)
}

func (c *Bybit) CreateOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
	quantity decimal.Decimal, price optional.Option[float64], params map[string]any) (string, error) {
	body := map[string]any{
		"category":  bybitCategory(symbol),
		"symbol":    bybitSymbol(symbol),
		"side":      capitalize(string(side)),
		"orderType": capitalize(string(kind)),
		"qty":       quantity.String(),
	}
	if kind == types.OrderKindLimit && price.IsSome() {
		body["price"] = decimal.NewFromFloat(price.Unwrap()).String()
	}

	if v, ok := params["orderLinkId"]; ok {
		body["orderLinkId"] = v
	}

	if v, ok := params["reduceOnly"]; ok {
		body["reduceOnly"] = v
	}

	if v, ok := params["position_idx"]; ok {
		body["positionIdx"] = v
	}

	// Bybit takes preset protections as price strings on the entry order.
	if v, ok := params["stopLoss"].(float64); ok {
		body["stopLoss"] = decimal.NewFromFloat(v).String()
	}

	if v, ok := params["takeProfit"].(float64); ok {
		body["takeProfit"] = decimal.NewFromFloat(v).String()
	}

	var result struct {
		OrderID string `json:"orderId"`
	}
	if err := c.post(ctx, "/v5/order/create", body, &result); err != nil {
		return "", err
	}

	return result.OrderID, nil
}

// SyncTime learns the server clock delta and applies it to later signatures.
func (c *Bybit) SyncTime(ctx context.Context) error {
	var result struct {
		TimeNano string `json:"timeNano"`
	}
	if err := c.get(ctx, "/v5/market/time", url.Values{}, &result); err != nil {
		return err
	}

	nanos, err := strconv.ParseInt(result.TimeNano, 10, 64)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "parse server time", err)
	}

	c.clockOffset.Store(nanos/int64(time.Millisecond) - time.Now().UnixMilli())

	return nil
}
