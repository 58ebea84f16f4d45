package engine

import (
	"context"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

func mustInstruction(t *testing.T, req types.OrderRequest) *types.OrderInstruction {
	t.Helper()

	req.Password = "secret"
	if req.Type == "" {
		req.Type = "market"
	}

	instr, err := types.NewOrderInstruction(req)
	require.NoError(t, err)

	return instr
}

func TestResolveQuantityPercentOfQuoteBalance(t *testing.T) {
	adapter := newFakeAdapter(types.VenueBybit, 0.5, true)
	adapter.balances["USDT"] = decimal.NewFromInt(1000)
	adapter.price = decimal.NewFromInt(100)

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "BYBIT",
		Base:     "BTC",
		Quote:    "USDT.P",
		Side:     "entry/buy",
		Percent:  types.SomeNumeric(10),
	})

	quantity, price, err := ResolveQuantity(context.Background(), adapter, instr)
	require.NoError(t, err)

	// (10 - 0.5)% of 1000 USDT at price 100
	assert.True(t, decimal.NewFromFloat(0.95).Equal(quantity), "got %s", quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(price))

	// Resolving again against the same account state yields the same size:
	// resolution reads balances, it never debits them.
	again, againPrice, err := ResolveQuantity(context.Background(), adapter, instr)
	require.NoError(t, err)
	assert.True(t, quantity.Equal(again), "got %s", again)
	assert.True(t, price.Equal(againPrice))
}

func TestResolveQuantityExclusivityBeforeNetwork(t *testing.T) {
	tests := []struct {
		name     string
		amount   bool
		percent  bool
		wantCode errors.ErrorCode
	}{
		{name: "both set", amount: true, percent: true, wantCode: errors.ErrCodeAmountPercentBoth},
		{name: "neither set", wantCode: errors.ErrCodeAmountPercentNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter := newFakeAdapter(types.VenueBinance, 0, true)

			instr := mustInstruction(t, types.OrderRequest{
				Exchange: "BINANCE",
				Base:     "BTC",
				Quote:    "USDT",
				Side:     "buy",
				Amount:   types.SomeNumeric(1),
			})
			if !tc.amount {
				instr.Amount = optional.None[float64]()
			}
			if tc.percent {
				instr.Percent = optional.Some(10.0)
			}

			_, _, err := ResolveQuantity(context.Background(), adapter, instr)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, errors.GetCode(err))
			assert.Zero(t, adapter.networkCalls, "exclusivity must fail before any account read")
		})
	}
}

func TestResolveQuantityAbsoluteAmount(t *testing.T) {
	adapter := newFakeAdapter(types.VenueUpbit, 1, false)

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "UPBIT",
		Base:     "BTC",
		Quote:    "KRW",
		Side:     "sell",
		Amount:   types.SomeNumeric(1.5),
	})

	quantity, price, err := ResolveQuantity(context.Background(), adapter, instr)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(quantity))
	assert.True(t, price.IsZero())
}

func TestResolveQuantityInverseContractAmount(t *testing.T) {
	adapter := newFakeAdapter(types.VenueOKX, 0.5, true)
	adapter.price = decimal.NewFromInt(100)
	adapter.market = types.MarketInfo{
		AmountIncrement: decimal.NewFromInt(1),
		ContractSize:    decimal.NewFromInt(10),
		IsContract:      true,
	}

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "OKX",
		Base:     "BTC",
		Quote:    "USD.P",
		Side:     "entry/buy",
		Amount:   types.SomeNumeric(2),
	})
	require.True(t, instr.IsCoinMargined)

	// 2 BTC of notional at 100 USD, 10 USD per contract
	quantity, price, err := ResolveQuantity(context.Background(), adapter, instr)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(quantity), "got %s", quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(price))
}

func TestResolveQuantityClosePercent(t *testing.T) {
	tests := []struct {
		name     string
		side     string
		long     int64
		short    int64
		want     int64
		wantCode errors.ErrorCode
	}{
		{name: "close half of long", side: "close/sell", long: 4, want: 2},
		{name: "close half of short", side: "close/buy", short: 6, want: 3},
		{name: "no position at all", side: "close/sell", wantCode: errors.ErrCodePositionNone},
		{name: "no long to close", side: "close/sell", short: 3, wantCode: errors.ErrCodeLongPositionNone},
		{name: "no short to close", side: "close/buy", long: 3, wantCode: errors.ErrCodeShortPositionNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter := newFakeAdapter(types.VenueBybit, 0.5, true)
			adapter.positions = types.PositionSizes{
				Long:  decimal.NewFromInt(tc.long),
				Short: decimal.NewFromInt(tc.short),
			}

			instr := mustInstruction(t, types.OrderRequest{
				Exchange: "BYBIT",
				Base:     "ETH",
				Quote:    "USDT.P",
				Side:     tc.side,
				Percent:  types.SomeNumeric(50),
			})

			quantity, _, err := ResolveQuantity(context.Background(), adapter, instr)
			if tc.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tc.wantCode, errors.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tc.want).Equal(quantity), "got %s", quantity)

			// A second resolution over the unchanged position sizes the
			// same close again.
			again, _, err := ResolveQuantity(context.Background(), adapter, instr)
			require.NoError(t, err)
			assert.True(t, quantity.Equal(again), "got %s", again)
		})
	}
}

func TestResolveQuantitySellPercentOfHoldings(t *testing.T) {
	adapter := newFakeAdapter(types.VenueBinance, 0.5, true)
	adapter.balances["ETH"] = decimal.NewFromInt(2)

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "BINANCE",
		Base:     "ETH",
		Quote:    "USDT",
		Side:     "sell",
		Percent:  types.SomeNumeric(100),
	})

	// No bias on sells: the holdings are the hard ceiling already.
	quantity, _, err := ResolveQuantity(context.Background(), adapter, instr)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(quantity))
}

func TestResolveQuantityRoundsDownToIncrement(t *testing.T) {
	adapter := newFakeAdapter(types.VenueBinance, 0, true)
	adapter.balances["USDT"] = decimal.NewFromInt(100)
	adapter.price = decimal.NewFromInt(3)
	adapter.market = types.MarketInfo{AmountIncrement: decimal.NewFromFloat(0.01)}

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "BINANCE",
		Base:     "SOL",
		Quote:    "USDT",
		Side:     "entry/buy",
		Percent:  types.SomeNumeric(100),
	})

	// 100/3 = 33.333..., floored to the 0.01 step
	quantity, _, err := ResolveQuantity(context.Background(), adapter, instr)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(33.33).Equal(quantity), "got %s", quantity)
}

func TestResolveQuantityBelowMinimum(t *testing.T) {
	adapter := newFakeAdapter(types.VenueBybit, 0.5, true)
	adapter.balances["USDT"] = decimal.NewFromInt(1)
	adapter.price = decimal.NewFromInt(100)
	adapter.market = types.MarketInfo{AmountIncrement: decimal.NewFromFloat(0.0001)}

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "BYBIT",
		Base:     "BTC",
		Quote:    "USDT.P",
		Side:     "entry/buy",
		Percent:  types.SomeNumeric(1),
	})

	_, _, err := ResolveQuantity(context.Background(), adapter, instr)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMinAmount, errors.GetCode(err))
}

func TestResolveQuantityNoFundingBalance(t *testing.T) {
	adapter := newFakeAdapter(types.VenueBybit, 0.5, true)

	instr := mustInstruction(t, types.OrderRequest{
		Exchange: "BYBIT",
		Base:     "BTC",
		Quote:    "USDT.P",
		Side:     "entry/buy",
		Percent:  types.SomeNumeric(50),
	})

	_, _, err := ResolveQuantity(context.Background(), adapter, instr)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFreeAmountNone, errors.GetCode(err))
}
