package types

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

type Venue string

type Side string

type OrderKind string

type MarginMode string

type PositionMode string

const (
	VenueUpbit   Venue = "UPBIT"
	VenueBinance Venue = "BINANCE"
	VenueBybit   Venue = "BYBIT"
	VenueBitget  Venue = "BITGET"
	VenueOKX     Venue = "OKX"
	VenueKRX     Venue = "KRX"
	VenueNasdaq  Venue = "NASDAQ"
	VenueNYSE    Venue = "NYSE"
	VenueAmex    Venue = "AMEX"
)

const (
	SideBuy       Side = "buy"
	SideSell      Side = "sell"
	SideEntryBuy  Side = "entry/buy"
	SideEntrySell Side = "entry/sell"
	SideCloseBuy  Side = "close/buy"
	SideCloseSell Side = "close/sell"
)

const (
	OrderKindMarket OrderKind = "market"
	OrderKindLimit  OrderKind = "limit"
)

const (
	MarginModeIsolated MarginMode = "isolated"
	MarginModeCross    MarginMode = "cross"
)

const (
	PositionModeOneWay PositionMode = "one-way"
	PositionModeHedge  PositionMode = "hedge"
)

// derivativeQuoteSuffixes mark a quote currency as a futures product.
// The suffix is stripped before symbol construction.
var derivativeQuoteSuffixes = []string{"PERP", ".P"}

var cryptoVenues = map[Venue]bool{
	VenueUpbit:   true,
	VenueBinance: true,
	VenueBybit:   true,
	VenueBitget:  true,
	VenueOKX:     true,
}

var stockVenues = map[Venue]bool{
	VenueKRX:    true,
	VenueNasdaq: true,
	VenueNYSE:   true,
	VenueAmex:   true,
}

// IsStock reports whether the venue is a stock brokerage market.
func (v Venue) IsStock() bool { return stockVenues[v] }

// Numeric accepts a JSON number, a quoted numeric string, "NaN", or "" and
// normalizes the latter two to absent. Webhook senders interpolate template
// placeholders that produce "NaN" for fields the alert does not carry.
type Numeric struct {
	value optional.Option[float64]
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || strings.EqualFold(s, "nan") {
		n.value = optional.None[float64]()

		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}

	n.value = optional.Some(f)

	return nil
}

// Get returns the underlying optional value.
func (n Numeric) Get() optional.Option[float64] {
	return n.value
}

// SomeNumeric builds a present Numeric. Used by tests and internal callers.
func SomeNumeric(v float64) Numeric {
	return Numeric{value: optional.Some(v)}
}

// OrderRequest is the raw, untyped inbound payload before normalization.
type OrderRequest struct {
	Password    string  `json:"password" validate:"required"`
	Exchange    string  `json:"exchange" validate:"required,oneof=UPBIT BINANCE BYBIT BITGET OKX KRX NASDAQ NYSE AMEX"`
	Base        string  `json:"base" validate:"required"`
	Quote       string  `json:"quote" validate:"required,oneof=KRW USDT USDTPERP BUSD BUSDPERP USDT.P USD USD.P"`
	Type        string  `json:"type" validate:"required,oneof=market limit"`
	Side        string  `json:"side" validate:"required,oneof=buy sell entry/buy entry/sell close/buy close/sell"`
	Amount      Numeric `json:"amount"`
	Percent     Numeric `json:"percent"`
	Price       Numeric `json:"price"`
	Leverage    Numeric `json:"leverage"`
	MarginMode  string  `json:"margin_mode" validate:"omitempty,oneof=isolated cross"`
	StopPrice   Numeric `json:"stop_price"`
	ProfitPrice Numeric `json:"profit_price"`
	KISNumber   int     `json:"kis_number" validate:"omitempty,min=1,max=4"`
}

// OrderInstruction is the canonical, immutable-after-construction form of an
// order request. Derived flags are computed once here and never re-derived
// downstream.
type OrderInstruction struct {
	Venue       Venue
	Base        string
	Quote       string // derivative suffix already stripped
	Side        Side
	Kind        OrderKind
	Amount      optional.Option[float64]
	Percent     optional.Option[float64]
	Price       optional.Option[float64]
	Leverage    optional.Option[float64]
	MarginMode  optional.Option[MarginMode]
	StopPrice   optional.Option[float64]
	ProfitPrice optional.Option[float64]
	KISNumber   int

	// Symbol is the canonical symbol key: spot BASE/QUOTE, linear future
	// BASE/QUOTE:QUOTE, inverse future BASE/USD:BASE.
	Symbol string

	IsCrypto       bool
	IsStock        bool
	IsFutures      bool
	IsCoinMargined bool
	IsSpot         bool
	IsEntry        bool
	IsClose        bool
	IsBuy          bool
	IsSell         bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewOrderInstruction validates and normalizes a raw request into a canonical
// instruction. Field validation failures are reported together in a single
// ValidationError. Setting both or neither of amount/percent fails here with
// the dedicated amount error codes, before any network call.
func NewOrderInstruction(req OrderRequest) (*OrderInstruction, error) {
	if err := validate.Struct(req); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, errors.Wrap(errors.ErrCodeInvalidInstruction, "request validation failed", err)
		}

		fields := make([]errors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, errors.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: fe.Tag(),
			})
		}

		return nil, errors.NewValidationError(fields)
	}

	amount := req.Amount.Get()
	percent := req.Percent.Get()
	if amount.IsSome() && percent.IsSome() {
		return nil, errors.New(errors.ErrCodeAmountPercentBoth, "amount and percent cannot both be set")
	}

	if amount.IsNone() && percent.IsNone() {
		return nil, errors.New(errors.ErrCodeAmountPercentNone, "one of amount or percent is required")
	}

	instr := &OrderInstruction{
		Venue:       Venue(req.Exchange),
		Base:        strings.ToUpper(req.Base),
		Side:        Side(req.Side),
		Kind:        OrderKind(req.Type),
		Amount:      amount,
		Percent:     percent,
		Price:       req.Price.Get(),
		Leverage:    req.Leverage.Get(),
		StopPrice:   req.StopPrice.Get(),
		ProfitPrice: req.ProfitPrice.Get(),
		KISNumber:   req.KISNumber,
	}
	if instr.KISNumber == 0 {
		instr.KISNumber = 1
	}

	if req.MarginMode != "" {
		instr.MarginMode = optional.Some(MarginMode(req.MarginMode))
	}

	instr.IsCrypto = cryptoVenues[instr.Venue]
	instr.IsStock = stockVenues[instr.Venue]

	quote := strings.ToUpper(req.Quote)
	for _, suffix := range derivativeQuoteSuffixes {
		if strings.HasSuffix(quote, suffix) {
			quote = strings.TrimSuffix(quote, suffix)
			instr.IsFutures = true

			break
		}
	}

	instr.Quote = quote
	// A literal USD quote on a futures trade means an inverse contract:
	// settled and margined in the base asset, not the quote currency.
	instr.IsCoinMargined = instr.IsFutures && quote == "USD"
	instr.IsSpot = instr.IsCrypto && !instr.IsFutures

	instr.IsEntry = strings.HasPrefix(req.Side, "entry/")
	instr.IsClose = strings.HasPrefix(req.Side, "close/")
	direction := req.Side
	if i := strings.LastIndex(req.Side, "/"); i >= 0 {
		direction = req.Side[i+1:]
	}

	instr.IsBuy = direction == "buy"
	instr.IsSell = direction == "sell"

	if instr.IsStock && (instr.IsEntry || instr.IsClose || instr.IsFutures) {
		return nil, errors.Newf(errors.ErrCodeInvalidInstruction,
			"stock venue %s supports only plain buy/sell market or limit orders", instr.Venue)
	}

	if (instr.StopPrice.IsSome() || instr.ProfitPrice.IsSome()) && !(instr.IsFutures && instr.IsEntry) {
		return nil, errors.New(errors.ErrCodeInvalidInstruction,
			"stop_price and profit_price apply only to futures entry orders")
	}

	instr.Symbol = canonicalSymbol(instr)

	return instr, nil
}

func canonicalSymbol(instr *OrderInstruction) string {
	switch {
	case instr.IsStock:
		return instr.Base
	case instr.IsCoinMargined:
		return instr.Base + "/USD:" + instr.Base
	case instr.IsFutures:
		return instr.Base + "/" + instr.Quote + ":" + instr.Quote
	default:
		return instr.Base + "/" + instr.Quote
	}
}

// SymbolFor derives the canonical symbol for a bare venue/base/quote triple,
// applying the same derivative-suffix rules as instruction construction. Used
// by price lookups that carry no full instruction.
func SymbolFor(venue Venue, base, quote string) string {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)

	futures := false
	for _, suffix := range derivativeQuoteSuffixes {
		if strings.HasSuffix(quote, suffix) {
			quote = strings.TrimSuffix(quote, suffix)
			futures = true

			break
		}
	}

	probe := &OrderInstruction{
		Base:           base,
		Quote:          quote,
		IsStock:        stockVenues[venue],
		IsFutures:      futures,
		IsCoinMargined: futures && quote == "USD",
	}

	return canonicalSymbol(probe)
}

// Direction returns the underlying buy/sell side with any entry/close prefix
// removed. This is the side sent to the venue.
func (o *OrderInstruction) Direction() Side {
	if o.IsBuy {
		return SideBuy
	}

	return SideSell
}

// SideLabel returns the human-readable label used when annotating order
// failures, derived from the instruction's flags.
func (o *OrderInstruction) SideLabel() string {
	if o.IsFutures {
		switch {
		case o.IsEntry && o.IsBuy:
			return "long entry"
		case o.IsEntry && o.IsSell:
			return "short entry"
		case o.IsClose && o.IsBuy:
			return "short close"
		case o.IsClose && o.IsSell:
			return "long close"
		}
	}

	if o.IsBuy {
		return "buy"
	}

	return "sell"
}

// String implements fmt.Stringer for log output.
func (o *OrderInstruction) String() string {
	b, err := json.Marshal(struct {
		Venue  Venue  `json:"venue"`
		Symbol string `json:"symbol"`
		Side   Side   `json:"side"`
		Kind   OrderKind
	}{o.Venue, o.Symbol, o.Side, o.Kind})
	if err != nil {
		return string(o.Venue) + " " + o.Symbol
	}

	return string(b)
}
