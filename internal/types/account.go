package types

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// PositionSizes holds the open long and short sizes for one symbol. Venues in
// one-way mode report at most one non-zero side.
type PositionSizes struct {
	Long  decimal.Decimal
	Short decimal.Decimal
}

// AccountState is an ephemeral snapshot of the account reads one resolution
// performed. It is fetched fresh per instruction and never cached beyond it.
type AccountState struct {
	FreeBalance map[string]decimal.Decimal
	Positions   map[string]PositionSizes
}

// MarketInfo carries the per-symbol trading rules a venue publishes.
type MarketInfo struct {
	Symbol string
	// AmountIncrement is the minimum tradable quantity step.
	AmountIncrement decimal.Decimal
	// ContractSize is the notional value of one contract unit. Zero for
	// quantity-based products.
	ContractSize decimal.Decimal
	// IsContract marks products sized in contract counts rather than base
	// quantity.
	IsContract bool
}

// OrderParams is the structured parameter bag attached to a venue order. The
// retry executor edits it by field when a mode correction is applied; venue
// adapters translate it to their wire keys.
type OrderParams struct {
	ReduceOnly bool
	// PositionSide tags hedge-mode orders: "long" or "short". Empty in
	// one-way mode.
	PositionSide string
	// PositionIdx is the Bybit hedge slot: 0 one-way, 1 buy side, 2 sell side.
	PositionIdx optional.Option[int]
	// MarginMode is the collateral isolation directive, e.g. OKX tdMode.
	MarginMode MarginMode
	// TargetCurrency selects base- vs quote-denominated market buys where the
	// venue supports both (OKX tgtCcy).
	TargetCurrency string
	// StopPrice and ProfitPrice are protective trigger prices attached to a
	// futures entry. Venues that take them inline carry them on the order
	// itself; Binance places them as separate trigger orders after the fill.
	StopPrice   optional.Option[float64]
	ProfitPrice optional.Option[float64]
}

// ResolvedOrder is the concrete, venue-ready order. Built fresh per
// instruction (and rebuilt per retry attempt), never reused.
type ResolvedOrder struct {
	ClientOrderID string
	Symbol        string
	Side          Side // underlying buy/sell direction
	Kind          OrderKind
	// Quantity is already precision-rounded and, for contract products,
	// contract-count-rounded.
	Quantity decimal.Decimal
	Price    optional.Option[float64]
	Params   OrderParams
}

// OrderResult is the success payload returned to the caller.
type OrderResult struct {
	Venue    Venue           `json:"venue"`
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    float64         `json:"price,omitempty"`
	OrderID  string          `json:"order_id,omitempty"`
	Attempts int             `json:"attempts"`
}
