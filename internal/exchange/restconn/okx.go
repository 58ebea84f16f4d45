package restconn

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
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

const okxBaseURL = "https://www.okx.com"

// OKX talks the v5 API. All private calls carry the four OK-ACCESS headers;
// the signature covers timestamp + method + path + body.
type OKX struct {
	key         string
	secret      string
	passphrase  string
	base        string
	http        *http.Client
	clockOffset atomic.Int64
}

var _ exchange.Client = (*OKX)(nil)

func NewOKX(key, secret, passphrase string) *OKX {
	return &OKX{
		key:        key,
		secret:     secret,
		passphrase: passphrase,
		base:       okxBaseURL,
		http:       newHTTPClient(),
	}
}

// okxInstID maps a canonical symbol to the venue instrument ID:
// BTC/USDT -> BTC-USDT, BTC/USDT:USDT -> BTC-USDT-SWAP,
// BTC/USD:BTC -> BTC-USD-SWAP.
func okxInstID(symbol string) string {
	base, quote, _ := splitSymbol(symbol)
	id := base + "-" + quote
	if isDerivative(symbol) {
		id += "-SWAP"
	}

	return id
}

func okxInstType(symbol string) string {
	if isDerivative(symbol) {
		return "SWAP"
	}

	return "SPOT"
}

func (c *OKX) timestamp() string {
	return time.Now().
		Add(time.Duration(c.clockOffset.Load()) * time.Millisecond).
		UTC().Format("2006-01-02T15:04:05.000Z")
}

func (c *OKX) sign(req *http.Request, method, pathWithQuery, body string) {
	ts := c.timestamp()
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(ts + method + pathWithQuery + body))

	req.Header.Set("OK-ACCESS-KEY", c.key)
	req.Header.Set("OK-ACCESS-SIGN", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passphrase)
}

type okxEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *OKX) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := getRequest(c.base, path, query)
	if err != nil {
		return err
	}

	pathWithQuery := path
	if len(query) > 0 {
		pathWithQuery += "?" + query.Encode()
	}
	c.sign(req, http.MethodGet, pathWithQuery, "")

	return c.send(ctx, req, out)
}

func (c *OKX) post(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "encode venue request", err)
	}

	req, err := postRequest(c.base, path, payload)
	if err != nil {
		return err
	}
	c.sign(req, http.MethodPost, path, string(payload))

	return c.send(ctx, req, out)
}

func (c *OKX) send(ctx context.Context, req *http.Request, out any) error {
	var env okxEnvelope
	if err := doJSON(ctx, c.http, req, &env); err != nil {
		return err
	}

	if env.Code != "0" {
		// Order-level rejections ride in data[].sCode/sMsg with a generic
		// top-level message; surface both so classifiers see the real text.
		var details []struct {
			SCode string `json:"sCode"`
			SMsg  string `json:"sMsg"`
		}
		_ = json.Unmarshal(env.Data, &details)
		if len(details) > 0 && details[0].SMsg != "" {
			return errors.Newf(errors.ErrCodeUnknown, "okx %s: %s", details[0].SCode, details[0].SMsg)
		}

		return errors.Newf(errors.ErrCodeUnknown, "okx %s: %s", env.Code, env.Msg)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "decode venue response", err)
	}

	return nil
}

func (c *OKX) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	var data []struct {
		Last string `json:"last"`
	}
	query := url.Values{"instId": {okxInstID(symbol)}}
	if err := c.get(ctx, "/api/v5/market/ticker", query, &data); err != nil {
		return exchange.Ticker{}, err
	}

	if len(data) == 0 {
		return exchange.Ticker{}, errors.Newf(errors.ErrCodePriceFailed, "no price for %s", symbol)
	}

	last, err := decimal.NewFromString(data[0].Last)
	if err != nil {
		return exchange.Ticker{}, err
	}

	return exchange.Ticker{Symbol: symbol, Last: last}, nil
}

func (c *OKX) FetchFreeBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var data []struct {
		Details []struct {
			Currency  string `json:"ccy"`
			Available string `json:"availBal"`
		} `json:"details"`
	}
	if err := c.get(ctx, "/api/v5/account/balance", url.Values{}, &data); err != nil {
		return nil, err
	}

	free := make(map[string]decimal.Decimal)
	for _, account := range data {
		for _, detail := range account.Details {
			if balance, err := decimal.NewFromString(detail.Available); err == nil {
				free[detail.Currency] = balance
			}
		}
	}

	return free, nil
}

func (c *OKX) FetchPositions(ctx context.Context, symbols []string) ([]exchange.PositionEntry, error) {
	var entries []exchange.PositionEntry
	for _, symbol := range symbols {
		var data []struct {
			PosSide string `json:"posSide"` // long, short, or net
			Pos     string `json:"pos"`
		}
		query := url.Values{"instId": {okxInstID(symbol)}}
		if err := c.get(ctx, "/api/v5/account/positions", query, &data); err != nil {
			return nil, err
		}

		for _, row := range data {
			size, err := decimal.NewFromString(row.Pos)
			if err != nil || size.IsZero() {
				continue
			}

			side := row.PosSide
			if side == "net" || side == "" {
				// Net positions encode direction in the sign.
				side = "long"
				if size.IsNegative() {
					side = "short"
				}
			}

			entries = append(entries, exchange.PositionEntry{
				Symbol:    symbol,
				Side:      side,
				Contracts: size.Abs(),
			})
		}
	}

	return entries, nil
}

func (c *OKX) FetchMarket(ctx context.Context, symbol string) (types.MarketInfo, error) {
	var data []struct {
		LotSize       string `json:"lotSz"`
		ContractValue string `json:"ctVal"`
	}
	query := url.Values{
		"instType": {okxInstType(symbol)},
		"instId":   {okxInstID(symbol)},
	}
	if err := c.get(ctx, "/api/v5/public/instruments", query, &data); err != nil {
		return types.MarketInfo{}, err
	}

	if len(data) == 0 {
		return types.MarketInfo{}, errors.Newf(errors.ErrCodeConnectivity, "no market info for %s", symbol)
	}

	increment, err := decimal.NewFromString(data[0].LotSize)
	if err != nil {
		return types.MarketInfo{}, err
	}

	info := types.MarketInfo{Symbol: symbol, AmountIncrement: increment}
	if isDerivative(symbol) {
		info.IsContract = true
		if value, err := decimal.NewFromString(data[0].ContractValue); err == nil {
			info.ContractSize = value
		}
	}

	return info, nil
}

func (c *OKX) SetLeverage(ctx context.Context, leverage float64, symbol string, params map[string]any) error {
	body := map[string]any{
		"instId": okxInstID(symbol),
		"lever":  strconv.FormatFloat(leverage, 'f', -1, 64),
	}
	for _, key := range []string{"mgnMode", "posSide"} {
		if v, ok := params[key]; ok {
			body[key] = v
		}
	}

	return c.post(ctx, "/api/v5/account/set-leverage", body, nil)
}

func (c *OKX) CreateOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
	quantity decimal.Decimal, price optional.Option[float64], params map[string]any) (string, error) {
	body := map[string]any{
		"instId":  okxInstID(symbol),
		"side":    string(side),
		"ordType": string(kind),
		"sz":      quantity.String(),
		"tdMode":  "cash",
	}
	if kind == types.OrderKindLimit && price.IsSome() {
		body["px"] = decimal.NewFromFloat(price.Unwrap()).String()
	}

	for param, wire := range map[string]string{
		"clOrdId":    "clOrdId",
		"tgtCcy":     "tgtCcy",
		"tdMode":     "tdMode",
		"reduceOnly": "reduceOnly",
		"posSide":    "posSide",
		"slOrdPx":    "slOrdPx",
		"tpOrdPx":    "tpOrdPx",
	} {
		if v, ok := params[param]; ok {
			body[wire] = v
		}
	}

	for _, key := range []string{"slTriggerPx", "tpTriggerPx"} {
		if v, ok := params[key].(float64); ok {
			body[key] = decimal.NewFromFloat(v).String()
		}
	}

	var data []struct {
		OrderID string `json:"ordId"`
	}
	if err := c.post(ctx, "/api/v5/trade/order", body, &data); err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeConnectivity, "okx returned no order id")
	}

	return data[0].OrderID, nil
}

// SyncTime learns the server clock delta used by signed timestamps.
func (c *OKX) SyncTime(ctx context.Context) error {
	var data []struct {
		TS string `json:"ts"`
	}
	if err := c.get(ctx, "/api/v5/public/time", url.Values{}, &data); err != nil {
		return err
	}

	if len(data) == 0 {
		return errors.New(errors.ErrCodeConnectivity, "okx returned no server time")
	}

	millis, err := strconv.ParseInt(data[0].TS, 10, 64)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "parse server time", err)
	}

	c.clockOffset.Store(millis - time.Now().UnixMilli())

	return nil
}
