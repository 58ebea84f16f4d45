// Package exchange defines the uniform venue adapter capability set and the
// connectivity boundary behind it. Venue quirks (symbol suffixing, parameter
// keys, balance sub-accounts, contract math) are confined to per-venue
// adapters; callers never branch on venue identity beyond picking an adapter.
package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/types"
)

// Signature is the closed set of recoverable error classifications. Anything
// a classifier cannot match is SignatureNone and aborts retrying.
type Signature int

const (
	SignatureNone Signature = iota
	SignaturePositionMode
	SignatureMarginMode
	SignatureClockSkew
)

// String implements fmt.Stringer for log output.
func (s Signature) String() string {
	switch s {
	case SignaturePositionMode:
		return "position_mode"
	case SignatureMarginMode:
		return "margin_mode"
	case SignatureClockSkew:
		return "clock_skew"
	default:
		return "none"
	}
}

// Ticker is a venue price snapshot.
type Ticker struct {
	Symbol string
	Last   decimal.Decimal
}

// PositionEntry is one open position row as reported by the venue.
type PositionEntry struct {
	Symbol    string
	Side      string // "long" or "short"
	Contracts decimal.Decimal
}

// Client is the exchange connectivity library boundary. Implementations talk
// the venue wire protocol; each call may fail with a venue-specific error
// whose message text is the only structured signal available.
type Client interface {
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
	FetchFreeBalance(ctx context.Context) (map[string]decimal.Decimal, error)
	FetchPositions(ctx context.Context, symbols []string) ([]PositionEntry, error)
	FetchMarket(ctx context.Context, symbol string) (types.MarketInfo, error)
	SetLeverage(ctx context.Context, leverage float64, symbol string, params map[string]any) error
	CreateOrder(ctx context.Context, symbol string, kind types.OrderKind, side types.Side,
		quantity decimal.Decimal, price optional.Option[float64], params map[string]any) (string, error)
	SyncTime(ctx context.Context) error
}

// VenueTraits are the static per-venue resolution knobs.
type VenueTraits struct {
	Venue types.Venue
	// PercentBias is subtracted from a percent-sized request before
	// conversion, leaving headroom so fee and precision rounding cannot
	// exhaust the funding balance.
	PercentBias decimal.Decimal
	// CallTimeout bounds every network call made through the adapter.
	CallTimeout     time.Duration
	SupportsFutures bool
}

// DefaultCallTimeout applies when traits carry no explicit timeout.
const DefaultCallTimeout = 10 * time.Second

// RuntimeState is the learned account configuration owned by a single adapter
// instance and shared across every instruction routed through it. It starts
// at a default guess and is corrected in place when a placement fails with a
// mode-mismatch signature. Reads and corrective writes are serialized; the
// lock is never held across a network call.
type RuntimeState struct {
	mu           sync.Mutex
	positionMode types.PositionMode
	marginMode   types.MarginMode
}

// NewRuntimeState returns state at the default guess: one-way, isolated.
func NewRuntimeState() *RuntimeState {
	return &RuntimeState{
		positionMode: types.PositionModeOneWay,
		marginMode:   types.MarginModeIsolated,
	}
}

// PositionMode returns the current learned position mode.
func (s *RuntimeState) PositionMode() types.PositionMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.positionMode
}

// MarginMode returns the current learned default margin mode.
func (s *RuntimeState) MarginMode() types.MarginMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.marginMode
}

// CorrectPositionMode flips the position mode, but only if it still holds the
// value the caller observed. Concurrent correctors that raced on the same
// stale observation therefore flip exactly once. Returns the mode now in
// effect.
func (s *RuntimeState) CorrectPositionMode(observed types.PositionMode) types.PositionMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.positionMode == observed {
		if s.positionMode == types.PositionModeOneWay {
			s.positionMode = types.PositionModeHedge
		} else {
			s.positionMode = types.PositionModeOneWay
		}
	}

	return s.positionMode
}

// CorrectMarginMode is the margin-mode analogue of CorrectPositionMode.
func (s *RuntimeState) CorrectMarginMode(observed types.MarginMode) types.MarginMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.marginMode == observed {
		if s.marginMode == types.MarginModeIsolated {
			s.marginMode = types.MarginModeCross
		} else {
			s.marginMode = types.MarginModeIsolated
		}
	}

	return s.marginMode
}

// Adapter is the uniform capability set every venue implementation provides.
type Adapter interface {
	Venue() types.Venue
	Traits() VenueTraits
	Runtime() *RuntimeState

	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
	// FreeBalance fails with ErrCodeFreeAmountNone when the currency has no
	// usable balance.
	FreeBalance(ctx context.Context, currency string) (decimal.Decimal, error)
	Position(ctx context.Context, symbol string) (types.PositionSizes, error)
	Market(ctx context.Context, symbol string) (types.MarketInfo, error)
	// SetLeverage applies the leverage directive for the instruction's
	// symbol. Benign venue refusals (leverage already set) are swallowed.
	SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error

	// BuildOrder assembles the venue-ready order under the runtime state's
	// current mode assumption. The executor calls it again after a mode
	// correction.
	BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder
	PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error)
	// Classify maps a placement error to a recoverable signature, or
	// SignatureNone. Substring coupling to venue error text lives only here.
	Classify(err error) Signature
	SyncTime(ctx context.Context) error
}

// ProtectionPlacer is implemented by adapters whose venue cannot attach
// protective stops to the entry order itself and instead places them as
// separate trigger orders after the fill.
type ProtectionPlacer interface {
	PlaceProtection(ctx context.Context, instr *types.OrderInstruction, quantity decimal.Decimal) error
}
