package engine

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// fakeAdapter is a scriptable exchange.Adapter. Account reads return the
// configured values, placements pop scripted errors, and every network-shaped
// call increments networkCalls so tests can assert a path made none.
type fakeAdapter struct {
	mu sync.Mutex

	venue   types.Venue
	traits  exchange.VenueTraits
	runtime *exchange.RuntimeState

	price           decimal.Decimal
	priceErr        error
	lastPriceSymbol string
	balances        map[string]decimal.Decimal
	positions       types.PositionSizes
	market          types.MarketInfo

	// placeErrs is popped one per PlaceOrder call; a nil entry succeeds.
	placeErrs []error
	// hedgeOnly makes placement fail with errPositionMode whenever the
	// runtime still assumes one-way mode, regardless of placeErrs.
	hedgeOnly bool

	networkCalls  int
	placeCalls    int
	syncCalls     int
	leverageCalls []float64
	built         []types.ResolvedOrder
}

var (
	errPositionMode = errors.New(errors.ErrCodeUnknown, "position idx not match position mode")
	errMarginMode   = errors.New(errors.ErrCodeUnknown, "margin type cannot be changed")
	errClockSkew    = errors.New(errors.ErrCodeUnknown, "timestamp outside of the recvwindow")
	errRejected     = errors.New(errors.ErrCodeUnknown, "insufficient balance")
)

func newFakeAdapter(venue types.Venue, bias float64, futures bool) *fakeAdapter {
	return &fakeAdapter{
		venue: venue,
		traits: exchange.VenueTraits{
			Venue:           venue,
			PercentBias:     decimal.NewFromFloat(bias),
			SupportsFutures: futures,
		},
		runtime:  exchange.NewRuntimeState(),
		balances: map[string]decimal.Decimal{},
		market:   types.MarketInfo{AmountIncrement: decimal.NewFromFloat(0.0001)},
	}
}

func (f *fakeAdapter) touch() {
	f.mu.Lock()
	f.networkCalls++
	f.mu.Unlock()
}

func (f *fakeAdapter) Venue() types.Venue              { return f.venue }
func (f *fakeAdapter) Traits() exchange.VenueTraits    { return f.traits }
func (f *fakeAdapter) Runtime() *exchange.RuntimeState { return f.runtime }

func (f *fakeAdapter) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	f.touch()
	f.mu.Lock()
	f.lastPriceSymbol = symbol
	f.mu.Unlock()

	if f.priceErr != nil {
		return decimal.Zero, f.priceErr
	}

	return f.price, nil
}

func (f *fakeAdapter) FreeBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	f.touch()

	free, ok := f.balances[currency]
	if !ok || free.IsZero() {
		return decimal.Zero, errors.Newf(errors.ErrCodeFreeAmountNone, "no free %s balance", currency)
	}

	return free, nil
}

func (f *fakeAdapter) Position(ctx context.Context, symbol string) (types.PositionSizes, error) {
	f.touch()

	return f.positions, nil
}

func (f *fakeAdapter) Market(ctx context.Context, symbol string) (types.MarketInfo, error) {
	f.touch()

	return f.market, nil
}

func (f *fakeAdapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	f.touch()
	f.mu.Lock()
	f.leverageCalls = append(f.leverageCalls, leverage)
	f.mu.Unlock()

	return nil
}

func (f *fakeAdapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
	order := types.ResolvedOrder{
		Symbol:   instr.Symbol,
		Side:     instr.Direction(),
		Kind:     instr.Kind,
		Quantity: quantity,
	}
	if instr.IsFutures && f.runtime.PositionMode() == types.PositionModeHedge {
		order.Params.PositionSide = "long"
	}

	f.mu.Lock()
	f.built = append(f.built, order)
	f.mu.Unlock()

	return order
}

func (f *fakeAdapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	f.touch()
	f.mu.Lock()
	f.placeCalls++

	if f.hedgeOnly && f.runtime.PositionMode() != types.PositionModeHedge {
		f.mu.Unlock()

		return "", errPositionMode
	}

	var err error
	if len(f.placeErrs) > 0 {
		err = f.placeErrs[0]
		f.placeErrs = f.placeErrs[1:]
	}
	f.mu.Unlock()

	if err != nil {
		return "", err
	}

	return "order-1", nil
}

func (f *fakeAdapter) Classify(err error) exchange.Signature {
	switch {
	case stderrors.Is(err, errPositionMode):
		return exchange.SignaturePositionMode
	case stderrors.Is(err, errMarginMode):
		return exchange.SignatureMarginMode
	case stderrors.Is(err, errClockSkew):
		return exchange.SignatureClockSkew
	default:
		return exchange.SignatureNone
	}
}

func (f *fakeAdapter) SyncTime(ctx context.Context) error {
	f.touch()
	f.mu.Lock()
	f.syncCalls++
	f.mu.Unlock()

	return nil
}

// protectiveAdapter augments fakeAdapter with after-fill trigger placement,
// mirroring venues that take no inline stop parameters on the entry.
type protectiveAdapter struct {
	*fakeAdapter

	protectErr  error
	protections []decimal.Decimal
}

func (p *protectiveAdapter) PlaceProtection(ctx context.Context, instr *types.OrderInstruction, quantity decimal.Decimal) error {
	p.mu.Lock()
	p.protections = append(p.protections, quantity)
	p.mu.Unlock()

	return p.protectErr
}
