package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

type stubEngine struct {
	result  types.OrderResult
	execErr error
	price   decimal.Decimal
	lastIn  *types.OrderInstruction
}

func (s *stubEngine) Execute(ctx context.Context, instr *types.OrderInstruction) (types.OrderResult, error) {
	s.lastIn = instr
	if s.execErr != nil {
		return types.OrderResult{}, s.execErr
	}

	return s.result, nil
}

func (s *stubEngine) Price(ctx context.Context, venue types.Venue, base, quote string) (decimal.Decimal, error) {
	return s.price, nil
}

func newTestServer(engine *stubEngine) *Server {
	return New(engine, nil, "hunter2", nil, logger.NewNop())
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:51000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func orderPayload() map[string]any {
	return map[string]any{
		"password": "hunter2",
		"exchange": "BYBIT",
		"base":     "BTC",
		"quote":    "USDT.P",
		"type":     "market",
		"side":     "entry/buy",
		"percent":  10,
	}
}

func TestOrderEndpointSuccess(t *testing.T) {
	engine := &stubEngine{result: types.OrderResult{
		Venue:    types.VenueBybit,
		Symbol:   "BTC/USDT:USDT",
		Side:     types.SideEntryBuy,
		Quantity: decimal.NewFromFloat(0.95),
		OrderID:  "order-1",
		Attempts: 1,
	}}
	server := newTestServer(engine)

	rec := postJSON(t, server.Handler(), "/order", orderPayload())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.OrderResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "order-1", result.OrderID)

	require.NotNil(t, engine.lastIn)
	assert.Equal(t, "BTC/USDT:USDT", engine.lastIn.Symbol)
	assert.True(t, engine.lastIn.IsFutures)
}

func TestOrderEndpointRejectsBadPassword(t *testing.T) {
	server := newTestServer(&stubEngine{})

	payload := orderPayload()
	payload["password"] = "wrong"

	rec := postJSON(t, server.Handler(), "/order", payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderEndpointReportsEveryInvalidField(t *testing.T) {
	server := newTestServer(&stubEngine{})

	rec := postJSON(t, server.Handler(), "/order", map[string]any{
		"password": "hunter2",
		"exchange": "NYSEX",
		"quote":    "EUR",
		"type":     "market",
		"side":     "buy",
		"percent":  10,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Fields []errors.FieldError `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	var fields []string
	for _, f := range body.Error.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"exchange", "base", "quote"}, fields)
}

func TestOrderEndpointMapsAmountErrors(t *testing.T) {
	engine := &stubEngine{execErr: errors.New(errors.ErrCodeFreeAmountNone, "no free USDT balance")}
	server := newTestServer(engine)

	rec := postJSON(t, server.Handler(), "/order", orderPayload())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code errors.ErrorCode `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrCodeFreeAmountNone, body.Error.Code)
}

func TestOrderEndpointMapsPlacementFailure(t *testing.T) {
	engine := &stubEngine{execErr: errors.New(errors.ErrCodeOrderFailed, "long entry order failed")}
	server := newTestServer(engine)

	rec := postJSON(t, server.Handler(), "/order", orderPayload())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPriceEndpoint(t *testing.T) {
	engine := &stubEngine{price: decimal.NewFromInt(42)}
	server := newTestServer(engine)

	rec := postJSON(t, server.Handler(), "/price", map[string]string{
		"exchange": "BINANCE",
		"base":     "BTC",
		"quote":    "USDT",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "42")
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "127.0.0.1:51000"
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAllowlist(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		extra  []string
		admit  bool
	}{
		{name: "loopback", remote: "127.0.0.1:9", admit: true},
		{name: "published egress ip", remote: "52.89.214.238:40000", admit: true},
		{name: "configured extra", remote: "10.1.2.3:9", extra: []string{"10.1.2.3"}, admit: true},
		{name: "stranger", remote: "203.0.113.9:9", admit: false},
		{name: "garbage addr", remote: "not-an-ip", admit: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.admit, newAllowlist(tc.extra).admits(tc.remote))
		})
	}
}

func TestAllowlistMiddlewareBlocksStrangers(t *testing.T) {
	server := newTestServer(&stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
