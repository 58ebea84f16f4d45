package brokerage

import (
	"context"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// Adapter adapts a brokerage account to the uniform venue interface. Stock
// venues have no derivative semantics: no leverage, no positions, no
// recoverable placement errors.
type Adapter struct {
	venue   types.Venue
	client  Client
	session SessionProvider
	quotes  QuoteSource
	traits  exchange.VenueTraits
	runtime *exchange.RuntimeState
	log     *logger.Logger
}

// accountCurrency is the cash currency per venue.
var accountCurrency = map[types.Venue]string{
	types.VenueKRX:    "KRW",
	types.VenueNasdaq: "USD",
	types.VenueNYSE:   "USD",
	types.VenueAmex:   "USD",
}

func NewAdapter(venue types.Venue, client Client, session SessionProvider, quotes QuoteSource, log *logger.Logger) *Adapter {
	return &Adapter{
		venue:   venue,
		client:  client,
		session: session,
		quotes:  quotes,
		traits: exchange.VenueTraits{
			Venue:       venue,
			CallTimeout: exchange.DefaultCallTimeout,
		},
		runtime: exchange.NewRuntimeState(),
		log:     log,
	}
}

func (a *Adapter) Venue() types.Venue              { return a.venue }
func (a *Adapter) Traits() exchange.VenueTraits    { return a.traits }
func (a *Adapter) Runtime() *exchange.RuntimeState { return a.runtime }

func (a *Adapter) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return a.quotes.LastPrice(ctx, symbol)
}

// FreeBalance routes by currency: the account's cash currency reads
// orderable cash, anything else is a ticker and reads sellable holdings.
func (a *Adapter) FreeBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	token, err := a.session.EnsureValidSession(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if currency == accountCurrency[a.venue] {
		return a.client.CashBalance(ctx, token, currency)
	}

	return a.client.Holdings(ctx, token, currency)
}

func (a *Adapter) Position(ctx context.Context, symbol string) (types.PositionSizes, error) {
	return types.PositionSizes{}, errors.Newf(errors.ErrCodeInvalidInstruction,
		"%s is a stock venue and has no derivative positions", a.venue)
}

// Market reports whole-share trading rules.
func (a *Adapter) Market(ctx context.Context, symbol string) (types.MarketInfo, error) {
	return types.MarketInfo{
		Symbol:          symbol,
		AmountIncrement: decimal.NewFromInt(1),
	}, nil
}

func (a *Adapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	return errors.Newf(errors.ErrCodeInvalidInstruction,
		"%s is a stock venue and has no leverage", a.venue)
}

func (a *Adapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
	order := types.ResolvedOrder{
		ClientOrderID: uuid.NewString(),
		Symbol:        instr.Symbol,
		Side:          instr.Direction(),
		Kind:          instr.Kind,
		Quantity:      quantity,
	}
	if instr.Price.IsSome() {
		order.Price = optional.Some(instr.Price.Unwrap())
	}

	return order
}

func (a *Adapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	token, err := a.session.EnsureValidSession(ctx)
	if err != nil {
		return "", err
	}

	// Overseas endpoints take no market order division; a market order is
	// sent as a marketable limit at the last trade price.
	if a.venue != types.VenueKRX && order.Price.IsNone() {
		price, err := a.quotes.LastPrice(ctx, order.Symbol)
		if err != nil {
			return "", err
		}

		order.Price = optional.Some(price.InexactFloat64())
	}

	a.log.Info("placing brokerage order",
		zap.String("venue", string(a.venue)),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("quantity", order.Quantity.String()),
	)

	return a.client.PlaceOrder(ctx, token, order)
}

// Classify never recovers: brokerage rejections are not mode mismatches.
func (a *Adapter) Classify(err error) exchange.Signature {
	return exchange.SignatureNone
}

func (a *Adapter) SyncTime(ctx context.Context) error {
	return nil
}
