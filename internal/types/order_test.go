package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrelay/quantrelay/pkg/errors"
)

func validRequest() OrderRequest {
	return OrderRequest{
		Password: "secret",
		Exchange: "BINANCE",
		Base:     "BTC",
		Quote:    "USDT.P",
		Type:     "market",
		Side:     "entry/buy",
		Percent:  SomeNumeric(10),
		Leverage: SomeNumeric(5),
	}
}

func TestNumericUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *float64
		wantErr bool
	}{
		{name: "number", payload: `{"amount": 1.5}`, want: ptr(1.5)},
		{name: "quoted number", payload: `{"amount": "2.25"}`, want: ptr(2.25)},
		{name: "empty string is absent", payload: `{"amount": ""}`, want: nil},
		{name: "NaN is absent", payload: `{"amount": "NaN"}`, want: nil},
		{name: "null is absent", payload: `{"amount": null}`, want: nil},
		{name: "missing is absent", payload: `{}`, want: nil},
		{name: "garbage fails", payload: `{"amount": "abc"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req struct {
				Amount Numeric `json:"amount"`
			}
			err := json.Unmarshal([]byte(tt.payload), &req)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			if tt.want == nil {
				assert.True(t, req.Amount.Get().IsNone())
			} else {
				require.True(t, req.Amount.Get().IsSome())
				assert.Equal(t, *tt.want, req.Amount.Get().Unwrap())
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestNewOrderInstructionDerivedFlags(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*OrderRequest)
		wantSymbol string
		check      func(*testing.T, *OrderInstruction)
	}{
		{
			name:       "linear futures entry buy",
			mutate:     func(r *OrderRequest) {},
			wantSymbol: "BTC/USDT:USDT",
			check: func(t *testing.T, o *OrderInstruction) {
				assert.True(t, o.IsFutures)
				assert.False(t, o.IsCoinMargined)
				assert.False(t, o.IsSpot)
				assert.True(t, o.IsEntry)
				assert.True(t, o.IsBuy)
				assert.Equal(t, "USDT", o.Quote)
				assert.Equal(t, SideBuy, o.Direction())
				assert.Equal(t, "long entry", o.SideLabel())
			},
		},
		{
			name: "PERP suffix marks futures",
			mutate: func(r *OrderRequest) {
				r.Quote = "USDTPERP"
				r.Side = "close/sell"
			},
			wantSymbol: "BTC/USDT:USDT",
			check: func(t *testing.T, o *OrderInstruction) {
				assert.True(t, o.IsFutures)
				assert.True(t, o.IsClose)
				assert.True(t, o.IsSell)
				assert.Equal(t, "long close", o.SideLabel())
			},
		},
		{
			name: "USD quote on futures is coin-margined",
			mutate: func(r *OrderRequest) {
				r.Quote = "USD.P"
			},
			wantSymbol: "BTC/USD:BTC",
			check: func(t *testing.T, o *OrderInstruction) {
				assert.True(t, o.IsFutures)
				assert.True(t, o.IsCoinMargined)
			},
		},
		{
			name: "spot buy",
			mutate: func(r *OrderRequest) {
				r.Exchange = "UPBIT"
				r.Quote = "KRW"
				r.Side = "buy"
			},
			wantSymbol: "BTC/KRW",
			check: func(t *testing.T, o *OrderInstruction) {
				assert.True(t, o.IsSpot)
				assert.False(t, o.IsFutures)
				assert.False(t, o.IsEntry)
				assert.Equal(t, "buy", o.SideLabel())
			},
		},
		{
			name: "stock sell",
			mutate: func(r *OrderRequest) {
				r.Exchange = "NASDAQ"
				r.Base = "AAPL"
				r.Quote = "USD"
				r.Side = "sell"
			},
			wantSymbol: "AAPL",
			check: func(t *testing.T, o *OrderInstruction) {
				assert.True(t, o.IsStock)
				assert.False(t, o.IsCrypto)
				// USD on a stock trade is not the inverse-contract signal
				assert.False(t, o.IsCoinMargined)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			instr, err := NewOrderInstruction(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSymbol, instr.Symbol)
			tt.check(t, instr)
		})
	}
}

func TestNewOrderInstructionAmountPercentExclusivity(t *testing.T) {
	req := validRequest()
	req.Amount = SomeNumeric(50)
	req.Percent = SomeNumeric(10)
	_, err := NewOrderInstruction(req)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAmountPercentBoth))

	req = validRequest()
	req.Amount = Numeric{}
	req.Percent = Numeric{}
	_, err = NewOrderInstruction(req)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAmountPercentNone))
}

func TestNewOrderInstructionCollectsAllFieldErrors(t *testing.T) {
	req := validRequest()
	req.Exchange = "KRAKEN"
	req.Side = "hold"
	req.Type = "stop"
	_, err := NewOrderInstruction(req)
	require.Error(t, err)

	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}

	assert.Contains(t, fields, "exchange")
	assert.Contains(t, fields, "side")
	assert.Contains(t, fields, "type")
}

func TestNewOrderInstructionRejectsStockFutures(t *testing.T) {
	req := validRequest()
	req.Exchange = "NYSE"
	req.Quote = "USD"
	req.Side = "entry/buy"
	_, err := NewOrderInstruction(req)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInstruction))
}

func TestNewOrderInstructionProtectivePricesNeedFuturesEntry(t *testing.T) {
	req := validRequest()
	req.StopPrice = SomeNumeric(90000)
	req.ProfitPrice = SomeNumeric(120000)
	instr, err := NewOrderInstruction(req)
	require.NoError(t, err)
	assert.InDelta(t, 90000, instr.StopPrice.Unwrap(), 1e-9)
	assert.InDelta(t, 120000, instr.ProfitPrice.Unwrap(), 1e-9)

	// A close has nothing left to protect.
	req = validRequest()
	req.Side = "close/sell"
	req.StopPrice = SomeNumeric(90000)
	_, err = NewOrderInstruction(req)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInstruction))

	// Spot trades carry no position for a trigger to flatten.
	req = validRequest()
	req.Quote = "USDT"
	req.Side = "buy"
	req.Leverage = Numeric{}
	req.ProfitPrice = SomeNumeric(120000)
	_, err = NewOrderInstruction(req)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInstruction))
}

func TestKISNumberDefault(t *testing.T) {
	req := validRequest()
	req.Exchange = "NASDAQ"
	req.Base = "TSLA"
	req.Quote = "USD"
	req.Side = "buy"
	instr, err := NewOrderInstruction(req)
	require.NoError(t, err)
	assert.Equal(t, 1, instr.KISNumber)
}
