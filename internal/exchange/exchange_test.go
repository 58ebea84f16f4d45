package exchange_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/mocks"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

func futuresInstruction(t *testing.T, venue, quote, side string) *types.OrderInstruction {
	t.Helper()

	instr, err := types.NewOrderInstruction(types.OrderRequest{
		Password: "pw",
		Exchange: venue,
		Base:     "BTC",
		Quote:    quote,
		Type:     "market",
		Side:     side,
		Percent:  types.SomeNumeric(10),
	})
	require.NoError(t, err)

	return instr
}

func TestRuntimeStateCorrectionIsIdempotentPerObservation(t *testing.T) {
	state := exchange.NewRuntimeState()
	assert.Equal(t, types.PositionModeOneWay, state.PositionMode())

	// Two correctors acting on the same stale observation flip once.
	observed := state.PositionMode()
	state.CorrectPositionMode(observed)
	state.CorrectPositionMode(observed)
	assert.Equal(t, types.PositionModeHedge, state.PositionMode())

	observedMargin := state.MarginMode()
	state.CorrectMarginMode(observedMargin)
	state.CorrectMarginMode(observedMargin)
	assert.Equal(t, types.MarginModeCross, state.MarginMode())
}

func TestRuntimeStateConcurrentCorrections(t *testing.T) {
	state := exchange.NewRuntimeState()
	observed := state.PositionMode()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state.CorrectPositionMode(observed)
		}()
	}
	wg.Wait()

	assert.Equal(t, types.PositionModeHedge, state.PositionMode())
}

func TestFreeBalanceZeroIsFreeAmountNone(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().FetchFreeBalance(gomock.Any()).
		Return(map[string]decimal.Decimal{"USDT": decimal.Zero}, nil).Times(2)

	adapter := exchange.NewBinanceAdapter(client, exchange.VenueTraits{}, logger.NewNop())

	_, err := adapter.FreeBalance(context.Background(), "USDT")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFreeAmountNone))

	_, err = adapter.FreeBalance(context.Background(), "KRW")
	assert.True(t, errors.HasCode(err, errors.ErrCodeFreeAmountNone))
}

func TestAccountReadDeadlineIsTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().FetchFreeBalance(gomock.Any()).Return(nil, context.DeadlineExceeded)
	client.EXPECT().FetchMarket(gomock.Any(), gomock.Any()).Return(types.MarketInfo{}, context.DeadlineExceeded)
	client.EXPECT().FetchTicker(gomock.Any(), gomock.Any()).Return(exchange.Ticker{}, context.DeadlineExceeded)

	adapter := exchange.NewBybitAdapter(client, exchange.VenueTraits{}, logger.NewNop())
	ctx := context.Background()

	_, err := adapter.FreeBalance(ctx, "USDT")
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))

	_, err = adapter.Market(ctx, "BTC/USDT:USDT")
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))

	_, err = adapter.Price(ctx, "BTC/USDT:USDT")
	assert.True(t, errors.HasCode(err, errors.ErrCodeTimeout))

	// Anything short of a deadline stays a plain connectivity failure.
	client.EXPECT().FetchFreeBalance(gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeUnknown, "connection reset"))
	_, err = adapter.FreeBalance(ctx, "USDT")
	assert.True(t, errors.HasCode(err, errors.ErrCodeConnectivity))
}

func TestPositionSplitsLongShort(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().FetchPositions(gomock.Any(), []string{"BTC/USDT:USDT"}).
		Return([]exchange.PositionEntry{
			{Symbol: "BTC/USDT:USDT", Side: "long", Contracts: decimal.NewFromInt(3)},
			{Symbol: "BTC/USDT:USDT", Side: "short", Contracts: decimal.NewFromInt(1)},
		}, nil)

	adapter := exchange.NewOKXAdapter(client, exchange.VenueTraits{}, logger.NewNop())

	sizes, err := adapter.Position(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.True(t, sizes.Long.Equal(decimal.NewFromInt(3)))
	assert.True(t, sizes.Short.Equal(decimal.NewFromInt(1)))
}

func TestRegistryMemoizesPerVenueAndCredential(t *testing.T) {
	ctrl := gomock.NewController(t)

	built := 0
	registry := exchange.NewRegistry(func(venue types.Venue, creds exchange.Credentials) (exchange.Adapter, error) {
		built++

		return exchange.NewBinanceAdapter(mocks.NewMockClient(ctrl), exchange.VenueTraits{}, logger.NewNop()), nil
	})

	credsA := exchange.Credentials{Key: "a", Secret: "s"}
	credsB := exchange.Credentials{Key: "b", Secret: "s"}

	first, err := registry.Adapter(types.VenueBinance, credsA)
	require.NoError(t, err)
	second, err := registry.Adapter(types.VenueBinance, credsA)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, built)

	third, err := registry.Adapter(types.VenueBinance, credsB)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, built)
}

func TestRegistryWithoutFactory(t *testing.T) {
	registry := exchange.NewRegistry(nil)
	_, err := registry.Adapter(types.VenueOKX, exchange.Credentials{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedVenue))
}
