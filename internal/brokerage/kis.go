package brokerage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/store"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

const kisBaseURL = "https://openapi.koreainvestment.com:9443"

// exchangeCodes maps US stock venues to the brokerage's exchange codes.
var exchangeCodes = map[types.Venue]string{
	types.VenueNasdaq: "NASD",
	types.VenueNYSE:   "NYSE",
	types.VenueAmex:   "AMEX",
}

// KISConfig identifies one Korea Investment & Securities account.
type KISConfig struct {
	AppKey    string
	AppSecret string
	// AccountNumber is the 8-digit CANO prefix.
	AccountNumber string
	// AccountProductCode is the 2-digit account suffix, usually "01".
	AccountProductCode string
}

// KISClient talks the KIS open API. One client serves one venue+account
// pair; domestic (KRX) and overseas venues use different endpoint families.
type KISClient struct {
	cfg   KISConfig
	venue types.Venue
	base  string
	http  *http.Client
}

func NewKISClient(cfg KISConfig, venue types.Venue) *KISClient {
	return &KISClient{
		cfg:   cfg,
		venue: venue,
		base:  kisBaseURL,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *KISClient) domestic() bool {
	return c.venue == types.VenueKRX
}

// IssueToken implements Client.
func (c *KISClient) IssueToken(ctx context.Context) (store.SessionToken, error) {
	body := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.cfg.AppKey,
		"appsecret":  c.cfg.AppSecret,
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.post(ctx, "/oauth2/tokenP", "", "", body, &res); err != nil {
		return store.SessionToken{}, err
	}

	if res.AccessToken == "" {
		return store.SessionToken{}, errors.New(errors.ErrCodeSessionExpired, "brokerage returned an empty access token")
	}

	return store.SessionToken{
		Token:     res.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(res.ExpiresIn) * time.Second),
	}, nil
}

// CashBalance implements Client. The currency argument is implied by the
// venue; KIS reports orderable cash per account, not per currency.
func (c *KISClient) CashBalance(ctx context.Context, token, currency string) (decimal.Decimal, error) {
	path := "/uapi/domestic-stock/v1/trading/inquire-psbl-order"
	trID := "TTTC8908R"
	query := url.Values{
		"CANO":          {c.cfg.AccountNumber},
		"ACNT_PRDT_CD":  {c.cfg.AccountProductCode},
		"PDNO":          {""},
		"ORD_UNPR":      {"0"},
		"ORD_DVSN":      {"01"},
		"CMA_EVLU_AMT_ICLD_YN": {"N"},
		"OVRS_ICLD_YN":  {"N"},
	}
	if !c.domestic() {
		path = "/uapi/overseas-stock/v1/trading/inquire-psamount"
		trID = "TTTS3007R"
		query = url.Values{
			"CANO":         {c.cfg.AccountNumber},
			"ACNT_PRDT_CD": {c.cfg.AccountProductCode},
			"OVRS_EXCG_CD": {exchangeCodes[c.venue]},
			"OVRS_ORD_UNPR": {"0"},
			"ITEM_CD":      {""},
		}
	}

	var res struct {
		Output struct {
			DomesticCash string `json:"ord_psbl_cash"`
			OverseasCash string `json:"ord_psbl_frcr_amt"`
		} `json:"output"`
	}
	if err := c.get(ctx, path, token, trID, query, &res); err != nil {
		return decimal.Zero, err
	}

	raw := res.Output.DomesticCash
	if !c.domestic() {
		raw = res.Output.OverseasCash
	}

	cash, err := decimal.NewFromString(raw)
	if err != nil || !cash.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeFreeAmountNone, "no orderable %s cash", currency)
	}

	return cash, nil
}

// Holdings implements Client, returning the sellable share count.
func (c *KISClient) Holdings(ctx context.Context, token, symbol string) (decimal.Decimal, error) {
	path := "/uapi/domestic-stock/v1/trading/inquire-balance"
	trID := "TTTC8434R"
	query := url.Values{
		"CANO":         {c.cfg.AccountNumber},
		"ACNT_PRDT_CD": {c.cfg.AccountProductCode},
		"AFHR_FLPR_YN": {"N"},
		"INQR_DVSN":    {"02"},
		"UNPR_DVSN":    {"01"},
		"FUND_STTL_ICLD_YN": {"N"},
		"FNCG_AMT_AUTO_RDPT_YN": {"N"},
		"PRCS_DVSN":    {"00"},
		"OFL_YN":       {""},
		"CTX_AREA_FK100": {""},
		"CTX_AREA_NK100": {""},
	}
	if !c.domestic() {
		path = "/uapi/overseas-stock/v1/trading/inquire-balance"
		trID = "TTTS3012R"
		query = url.Values{
			"CANO":           {c.cfg.AccountNumber},
			"ACNT_PRDT_CD":   {c.cfg.AccountProductCode},
			"OVRS_EXCG_CD":   {exchangeCodes[c.venue]},
			"TR_CRCY_CD":     {"USD"},
			"CTX_AREA_FK200": {""},
			"CTX_AREA_NK200": {""},
		}
	}

	var res struct {
		Output []struct {
			DomesticSymbol string `json:"pdno"`
			DomesticQty    string `json:"hldg_qty"`
			OverseasSymbol string `json:"ovrs_pdno"`
			OverseasQty    string `json:"ord_psbl_qty"`
		} `json:"output1"`
	}
	if err := c.get(ctx, path, token, trID, query, &res); err != nil {
		return decimal.Zero, err
	}

	for _, row := range res.Output {
		name, qty := row.DomesticSymbol, row.DomesticQty
		if !c.domestic() {
			name, qty = row.OverseasSymbol, row.OverseasQty
		}

		if name != symbol {
			continue
		}

		held, err := decimal.NewFromString(qty)
		if err == nil && held.IsPositive() {
			return held, nil
		}
	}

	return decimal.Zero, errors.Newf(errors.ErrCodeFreeAmountNone, "no free %s balance", symbol)
}

// CurrentPrice implements Client for the domestic market. KIS serves KRX
// quotes itself; overseas venues get their prices from a market data
// provider instead.
func (c *KISClient) CurrentPrice(ctx context.Context, token, symbol string) (decimal.Decimal, error) {
	if !c.domestic() {
		return decimal.Zero, errors.Newf(errors.ErrCodePriceFailed,
			"%s quotes are not served by the brokerage", c.venue)
	}

	query := url.Values{
		"FID_COND_MRKT_DIV_CODE": {"J"},
		"FID_INPUT_ISCD":         {symbol},
	}

	var res struct {
		Output struct {
			Price string `json:"stck_prpr"`
		} `json:"output"`
	}
	if err := c.get(ctx, "/uapi/domestic-stock/v1/quotations/inquire-price", token, "FHKST01010100", query, &res); err != nil {
		return decimal.Zero, err
	}

	price, err := decimal.NewFromString(res.Output.Price)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodePriceFailed, "no usable price for %s", symbol)
	}

	return price, nil
}

// orderTrID returns the transaction code for the venue+side pair.
func (c *KISClient) orderTrID(side types.Side) string {
	if c.domestic() {
		if side == types.SideBuy {
			return "TTTC0802U"
		}

		return "TTTC0801U"
	}

	if side == types.SideBuy {
		return "TTTT1002U"
	}

	return "TTTT1006U"
}

// PlaceOrder implements Client.
func (c *KISClient) PlaceOrder(ctx context.Context, token string, order types.ResolvedOrder) (string, error) {
	quantity := order.Quantity.Truncate(0).String()

	var path string
	var body map[string]string
	if c.domestic() {
		division := "01" // market
		price := "0"
		if order.Kind == types.OrderKindLimit {
			division = "00"
			price = decimal.NewFromFloat(order.Price.TakeOr(0)).String()
		}

		path = "/uapi/domestic-stock/v1/trading/order-cash"
		body = map[string]string{
			"CANO":         c.cfg.AccountNumber,
			"ACNT_PRDT_CD": c.cfg.AccountProductCode,
			"PDNO":         order.Symbol,
			"ORD_DVSN":     division,
			"ORD_QTY":      quantity,
			"ORD_UNPR":     price,
		}
	} else {
		// The overseas endpoint has no market order division; the original
		// behavior is a marketable limit at the last trade price.
		path = "/uapi/overseas-stock/v1/trading/order"
		body = map[string]string{
			"CANO":          c.cfg.AccountNumber,
			"ACNT_PRDT_CD":  c.cfg.AccountProductCode,
			"OVRS_EXCG_CD":  exchangeCodes[c.venue],
			"PDNO":          order.Symbol,
			"ORD_QTY":       quantity,
			"OVRS_ORD_UNPR": decimal.NewFromFloat(order.Price.TakeOr(0)).String(),
			"ORD_DVSN":      "00",
			"ORD_SVR_DVSN_CD": "0",
		}
	}

	var res struct {
		ReturnCode string `json:"rt_cd"`
		Message    string `json:"msg1"`
		Output     struct {
			OrderNo string `json:"ODNO"`
		} `json:"output"`
	}
	if err := c.post(ctx, path, token, c.orderTrID(order.Side), body, &res); err != nil {
		return "", err
	}

	if res.ReturnCode != "0" {
		return "", errors.Newf(errors.ErrCodeOrderFailed, "brokerage rejected order: %s", res.Message)
	}

	return res.Output.OrderNo, nil
}

func (c *KISClient) get(ctx context.Context, path, token, trID string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+query.Encode(), nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "build brokerage request", err)
	}

	return c.do(req, token, trID, out)
}

func (c *KISClient) post(ctx context.Context, path, token, trID string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "encode brokerage request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "build brokerage request", err)
	}

	return c.do(req, token, trID, out)
}

func (c *KISClient) do(req *http.Request, token, trID string, out any) error {
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if trID != "" {
		req.Header.Set("tr_id", trID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "brokerage call failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "read brokerage response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeConnectivity, "brokerage returned %s: %s",
			resp.Status, truncate(string(raw), 200))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "decode brokerage response", err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return fmt.Sprintf("%s...", s[:n])
}
