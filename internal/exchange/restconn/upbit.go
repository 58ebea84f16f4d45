package restconn

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

const upbitBaseURL = "https://api.upbit.com"

// Upbit authenticates with a per-request JWT: HS256 over a payload carrying
// the access key, a nonce, and a SHA-512 hash of the query string.
type Upbit struct {
	key    string
	secret string
	base   string
	http   *http.Client
}

var _ exchange.Client = (*Upbit)(nil)

func NewUpbit(key, secret string) *Upbit {
	return &Upbit{
		key:    key,
		secret: secret,
		base:   upbitBaseURL,
		http:   newHTTPClient(),
	}
}

// upbitMarket maps BTC/KRW to the venue's KRW-BTC form.
func upbitMarket(symbol string) string {
	base, quote, _ := splitSymbol(symbol)

	return quote + "-" + base
}

func jwtSegment(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (c *Upbit) token(query url.Values) (string, error) {
	payload := map[string]any{
		"access_key": c.key,
		"nonce":      uuid.New().String(),
	}
	if len(query) > 0 {
		digest := sha512.Sum512([]byte(query.Encode()))
		payload["query_hash"] = hex.EncodeToString(digest[:])
		payload["query_hash_alg"] = "SHA512"
	}

	header, err := jwtSegment(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}

	claims, err := jwtSegment(payload)
	if err != nil {
		return "", err
	}

	signingInput := header + "." + claims
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(signingInput))

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

type upbitError struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Upbit) call(ctx context.Context, req *http.Request, query url.Values, out any) error {
	token, err := c.token(query)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "sign venue request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var raw json.RawMessage
	if err := doJSON(ctx, c.http, req, &raw); err != nil {
		return err
	}

	var failure upbitError
	if json.Unmarshal(raw, &failure) == nil && failure.Error.Message != "" {
		return errors.Newf(errors.ErrCodeUnknown, "upbit %s: %s", failure.Error.Name, failure.Error.Message)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "decode venue response", err)
	}

	return nil
}

func (c *Upbit) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := getRequest(c.base, path, query)
	if err != nil {
		return err
	}

	return c.call(ctx, req, query, out)
}

func (c *Upbit) post(ctx context.Context, path string, query url.Values, out any) error {
	body := make(map[string]string, len(query))
	for key := range query {
		body[key] = query.Get(key)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "encode venue request", err)
	}

	req, err := postRequest(c.base, path, payload)
	if err != nil {
		return err
	}

	return c.call(ctx, req, query, out)
}

func (c *Upbit) FetchTicker(ctx context.Context, symbol string) (exchange.Ticker, error) {
	var data []struct {
		TradePrice float64 `json:"trade_price"`
	}
	query := url.Values{"markets": {upbitMarket(symbol)}}
	if err := c.get(ctx, "/v1/ticker", query, &data); err != nil {
		return exchange.Ticker{}, err
	}

	if len(data) == 0 {
		return exchange.Ticker{}, errors.Newf(errors.ErrCodePriceFailed, "no price for %s", symbol)
	}

	return exchange.Ticker{Symbol: symbol, Last: decimal.NewFromFloat(data[0].TradePrice)}, nil
}

func (c *Upbit) FetchFreeBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var accounts []struct {
		Currency string `json:"currency"`
		Balance  string `json:"balance"`
	}
	if err := c.get(ctx, "/v1/accounts", url.Values{}, &accounts); err != nil {
		return nil, err
	}

	free := make(map[string]decimal.Decimal, len(accounts))
	for _, account := range accounts {
		if balance, err := decimal.NewFromString(account.Balance); err == nil {
			free[account.Currency] = balance
		}
	}

	return free, nil
}

// FetchPositions always reports empty: the venue carries no derivatives.
func (c *Upbit) FetchPositions(ctx context.Context, symbols []string) ([]exchange.PositionEntry, error) {
	return nil, nil
}

func (c *Upbit) FetchMarket(ctx context.Context, symbol string) (types.MarketInfo, error) {
	return types.MarketInfo{
		Symbol:          symbol,
		AmountIncrement: decimal.New(1, -8),
	}, nil
}

func (c *Upbit) SetLeverage(ctx context.Context, leverage float64, symbol string, params map[string]any) error {
	return nil
}

func (c *Upbit) CreateOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
	quantity decimal.Decimal, price optional.Option[float64], params map[string]any) (string, error) {
	query := url.Values{"market": {upbitMarket(symbol)}}
	if v, ok := params["identifier"].(string); ok {
		query.Set("identifier", v)
	}

	switch {
	case kind == types.OrderKindLimit && price.IsSome():
		limit := "bid"
		if side == types.SideSell {
			limit = "ask"
		}
		query.Set("side", limit)
		query.Set("ord_type", "limit")
		query.Set("volume", quantity.String())
		query.Set("price", decimal.NewFromFloat(price.Unwrap()).String())
	case side == types.SideBuy:
		// Market buys spend a KRW notional, not a base volume.
		ticker, err := c.FetchTicker(ctx, symbol)
		if err != nil {
			return "", err
		}
		query.Set("side", "bid")
		query.Set("ord_type", "price")
		query.Set("price", quantity.Mul(ticker.Last).RoundDown(0).String())
	default:
		query.Set("side", "ask")
		query.Set("ord_type", "market")
		query.Set("volume", quantity.String())
	}

	var data struct {
		UUID string `json:"uuid"`
	}
	if err := c.post(ctx, "/v1/orders", query, &data); err != nil {
		return "", err
	}

	return data.UUID, nil
}

func (c *Upbit) SyncTime(ctx context.Context) error {
	return nil
}
