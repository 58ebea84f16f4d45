package exchange

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// baseAdapter carries the venue-independent half of an adapter: account
// reads, market metadata, call timeouts, and the learned runtime state.
// Venue adapters embed it and add order assembly and error classification.
type baseAdapter struct {
	venue   types.Venue
	client  Client
	traits  VenueTraits
	runtime *RuntimeState
	log     *logger.Logger
}

func newBaseAdapter(venue types.Venue, client Client, traits VenueTraits, log *logger.Logger) baseAdapter {
	if traits.CallTimeout <= 0 {
		traits.CallTimeout = DefaultCallTimeout
	}

	traits.Venue = venue

	return baseAdapter{
		venue:   venue,
		client:  client,
		traits:  traits,
		runtime: NewRuntimeState(),
		log:     log,
	}
}

func (a *baseAdapter) Venue() types.Venue { return a.venue }

func (a *baseAdapter) Traits() VenueTraits { return a.traits }

func (a *baseAdapter) Runtime() *RuntimeState { return a.runtime }

// callCtx bounds one network call. The caller must cancel.
func (a *baseAdapter) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.traits.CallTimeout)
}

func (a *baseAdapter) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	ticker, err := a.client.FetchTicker(cctx, symbol)
	if err != nil {
		return decimal.Zero, errors.Wrapf(timeoutOr(err, errors.ErrCodePriceFailed), err, "fetch ticker %s", symbol)
	}

	return ticker.Last, nil
}

func (a *baseAdapter) FreeBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	balances, err := a.client.FetchFreeBalance(cctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(timeoutOr(err, errors.ErrCodeConnectivity), "fetch free balance", err)
	}

	free, ok := balances[currency]
	if !ok || free.IsZero() {
		return decimal.Zero, errors.Newf(errors.ErrCodeFreeAmountNone, "no free %s balance", currency)
	}

	return free, nil
}

func (a *baseAdapter) Position(ctx context.Context, symbol string) (types.PositionSizes, error) {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	rows, err := a.client.FetchPositions(cctx, []string{symbol})
	if err != nil {
		return types.PositionSizes{}, errors.Wrapf(timeoutOr(err, errors.ErrCodeConnectivity), err, "fetch positions %s", symbol)
	}

	var sizes types.PositionSizes
	for _, row := range rows {
		switch row.Side {
		case "long":
			sizes.Long = row.Contracts
		case "short":
			sizes.Short = row.Contracts
		}
	}

	return sizes, nil
}

func (a *baseAdapter) Market(ctx context.Context, symbol string) (types.MarketInfo, error) {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	market, err := a.client.FetchMarket(cctx, symbol)
	if err != nil {
		return types.MarketInfo{}, errors.Wrapf(timeoutOr(err, errors.ErrCodeConnectivity), err, "fetch market %s", symbol)
	}

	return market, nil
}

func (a *baseAdapter) SyncTime(ctx context.Context) error {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	return a.client.SyncTime(cctx)
}

func (a *baseAdapter) placeOrder(ctx context.Context, order types.ResolvedOrder, params map[string]any) (string, error) {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	a.log.Info("placing order",
		zap.String("venue", string(a.venue)),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("quantity", order.Quantity.String()),
	)

	return a.client.CreateOrder(cctx, order.Symbol, order.Kind, order.Side, order.Quantity, order.Price, params)
}

// timeoutOr reports a deadline hit as a timeout and anything else under the
// fallback code.
func timeoutOr(err error, fallback errors.ErrorCode) errors.ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.ErrCodeTimeout
	}

	return fallback
}

// hedgePositionSide maps the instruction's flags to the hedge-mode position
// tag: entries open their own side, closes reference the opposite one.
func hedgePositionSide(instr *types.OrderInstruction) string {
	if instr.IsBuy {
		if instr.IsClose {
			return "short"
		}

		return "long"
	}

	if instr.IsClose {
		return "long"
	}

	return "short"
}

// marginModeFor picks the instruction's explicit margin mode or falls back to
// the adapter's learned default.
func marginModeFor(instr *types.OrderInstruction, runtime *RuntimeState) types.MarginMode {
	if instr.MarginMode.IsSome() {
		return instr.MarginMode.Unwrap()
	}

	return runtime.MarginMode()
}

// classifyBySubstrings is the shared matcher behind every venue classifier.
// A context deadline never matches a recoverable signature: timeouts are
// surfaced, not silently retried.
func classifyBySubstrings(err error, table map[Signature][]string) Signature {
	if err == nil {
		return SignatureNone
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return SignatureNone
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range []Signature{SignaturePositionMode, SignatureMarginMode, SignatureClockSkew} {
		for _, needle := range table[sig] {
			if strings.Contains(msg, strings.ToLower(needle)) {
				return sig
			}
		}
	}

	return SignatureNone
}
