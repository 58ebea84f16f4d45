package brokerage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quantrelay/quantrelay/internal/brokerage"
	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/store"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/mocks"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

func issuedToken() store.SessionToken {
	return store.SessionToken{Token: "issued", ExpiresAt: time.Now().Add(24 * time.Hour)}
}

func newTestTokenStore(t *testing.T) *store.TokenStore {
	t.Helper()

	s, err := store.NewTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSessionProviderIssuesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	client.EXPECT().IssueToken(gomock.Any()).Return(issuedToken(), nil).Times(1)

	provider := brokerage.NewCachingSessionProvider(client, newTestTokenStore(t), 1, logger.NewNop())
	ctx := context.Background()

	token, err := provider.EnsureValidSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "issued", token)

	// A valid cached token must not spend issuance quota.
	_, err = provider.EnsureValidSession(ctx)
	require.NoError(t, err)
}

func TestSessionProviderReadsPersistedToken(t *testing.T) {
	tokens := newTestTokenStore(t)
	ctx := context.Background()

	require.NoError(t, tokens.Save(ctx, store.SessionToken{
		Account:   2,
		Token:     "persisted",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	provider := brokerage.NewCachingSessionProvider(client, tokens, 2, logger.NewNop())

	token, err := provider.EnsureValidSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", token)
}

func TestSessionProviderRefreshesNearExpiry(t *testing.T) {
	tokens := newTestTokenStore(t)
	ctx := context.Background()

	// Within the refresh margin: usable in principle, but not worth riding.
	require.NoError(t, tokens.Save(ctx, store.SessionToken{
		Account:   1,
		Token:     "stale",
		ExpiresAt: time.Now().Add(time.Minute),
	}))

	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	client.EXPECT().IssueToken(gomock.Any()).Return(issuedToken(), nil).Times(1)

	provider := brokerage.NewCachingSessionProvider(client, tokens, 1, logger.NewNop())

	token, err := provider.EnsureValidSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "issued", token)
}

func TestSessionProviderIssueFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	client.EXPECT().IssueToken(gomock.Any()).
		Return(store.SessionToken{}, errors.New(errors.ErrCodeConnectivity, "token endpoint unreachable"))

	provider := brokerage.NewCachingSessionProvider(client, newTestTokenStore(t), 1, logger.NewNop())

	_, err := provider.EnsureValidSession(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionExpired, errors.GetCode(err))
}

func stockInstruction(t *testing.T, venue, side string) *types.OrderInstruction {
	t.Helper()

	quote := "USD"
	if venue == "KRX" {
		quote = "KRW"
	}

	instr, err := types.NewOrderInstruction(types.OrderRequest{
		Password: "secret",
		Exchange: venue,
		Base:     "AAPL",
		Quote:    quote,
		Type:     "market",
		Side:     side,
		Percent:  types.SomeNumeric(50),
	})
	require.NoError(t, err)

	return instr
}

func newTestAdapter(t *testing.T, venue types.Venue, client *mocks.MockBrokerageClient,
	quotes brokerage.QuoteSource,
) *brokerage.Adapter {
	t.Helper()

	provider := brokerage.NewCachingSessionProvider(client, newTestTokenStore(t), 1, logger.NewNop())

	return brokerage.NewAdapter(venue, client, provider, quotes, logger.NewNop())
}

func TestAdapterFreeBalanceRoutesCashAndHoldings(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	client.EXPECT().IssueToken(gomock.Any()).Return(issuedToken(), nil)
	client.EXPECT().CashBalance(gomock.Any(), "issued", "USD").
		Return(decimal.NewFromInt(5000), nil)
	client.EXPECT().Holdings(gomock.Any(), "issued", "AAPL").
		Return(decimal.NewFromInt(12), nil)
	client.EXPECT().Holdings(gomock.Any(), "issued", "TSLA").
		Return(decimal.Zero, errors.Newf(errors.ErrCodeFreeAmountNone, "no free TSLA balance"))

	adapter := newTestAdapter(t, types.VenueNasdaq, client, mocks.NewMockQuoteSource(ctrl))
	ctx := context.Background()

	cash, err := adapter.FreeBalance(ctx, "USD")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(cash))

	held, err := adapter.FreeBalance(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(held))

	_, err = adapter.FreeBalance(ctx, "TSLA")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFreeAmountNone, errors.GetCode(err))
}

func TestAdapterPlacesMarketableLimitOverseas(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	client.EXPECT().IssueToken(gomock.Any()).Return(issuedToken(), nil)

	quotes := mocks.NewMockQuoteSource(ctrl)
	quotes.EXPECT().LastPrice(gomock.Any(), "AAPL").Return(decimal.NewFromFloat(187.5), nil)

	var placed types.ResolvedOrder
	client.EXPECT().PlaceOrder(gomock.Any(), "issued", gomock.Any()).
		DoAndReturn(func(ctx context.Context, token string, order types.ResolvedOrder) (string, error) {
			placed = order

			return "odno-1", nil
		})

	adapter := newTestAdapter(t, types.VenueNasdaq, client, quotes)

	instr := stockInstruction(t, "NASDAQ", "buy")
	order := adapter.BuildOrder(instr, decimal.NewFromInt(3))
	require.True(t, order.Price.IsNone())

	orderID, err := adapter.PlaceOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "odno-1", orderID)
	assert.InDelta(t, 187.5, placed.Price.TakeOr(0), 1e-9)
}

func TestAdapterServesKRXPricesFromBrokerage(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	client.EXPECT().IssueToken(gomock.Any()).Return(issuedToken(), nil)
	client.EXPECT().CurrentPrice(gomock.Any(), "issued", "005930").
		Return(decimal.NewFromInt(71000), nil)

	provider := brokerage.NewCachingSessionProvider(client, newTestTokenStore(t), 1, logger.NewNop())
	quotes := brokerage.NewBrokerQuotes(client, provider)
	adapter := brokerage.NewAdapter(types.VenueKRX, client, provider, quotes, logger.NewNop())

	price, err := adapter.Price(context.Background(), "005930")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(71000).Equal(price))
}

func TestAdapterRejectsDerivativeCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockBrokerageClient(ctrl)
	adapter := newTestAdapter(t, types.VenueKRX, client, mocks.NewMockQuoteSource(ctrl))
	ctx := context.Background()

	_, err := adapter.Position(ctx, "005930")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInstruction, errors.GetCode(err))

	err = adapter.SetLeverage(ctx, stockInstruction(t, "KRX", "buy"), 2)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInstruction, errors.GetCode(err))

	assert.Equal(t, exchange.SignatureNone, adapter.Classify(errors.New(errors.ErrCodeUnknown, "anything")))
	assert.False(t, adapter.Traits().SupportsFutures)
}
