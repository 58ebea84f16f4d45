// Package engine turns canonical order instructions into venue orders: it
// resolves abstract sizes against live account state and places the result
// through the adaptive retry protocol.
package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// CredentialSource resolves the account credentials for a venue. Brokerage
// venues carry a numbered account slot.
type CredentialSource interface {
	Credentials(venue types.Venue, account int) (exchange.Credentials, error)
}

// Engine is the core facade handed a validated OrderInstruction by the front
// door. It performs no I/O beyond venue calls and returns either a success
// payload or one of the taxonomy errors.
type Engine struct {
	registry *exchange.Registry
	creds    CredentialSource
	executor *Executor
	log      *logger.Logger
}

func New(registry *exchange.Registry, creds CredentialSource, executor *Executor, log *logger.Logger) *Engine {
	return &Engine{
		registry: registry,
		creds:    creds,
		executor: executor,
		log:      log,
	}
}

// Execute runs one instruction end to end: adapter lookup, leverage
// directive, size resolution, adaptive placement.
func (e *Engine) Execute(ctx context.Context, instr *types.OrderInstruction) (types.OrderResult, error) {
	adapter, err := e.adapterFor(instr.Venue, instr.KISNumber)
	if err != nil {
		return types.OrderResult{}, err
	}

	if instr.IsFutures && !adapter.Traits().SupportsFutures {
		return types.OrderResult{}, errors.Newf(errors.ErrCodeInvalidInstruction,
			"%s does not trade futures", instr.Venue)
	}

	if instr.IsFutures && instr.IsEntry {
		leverage := 1.0
		if instr.Leverage.IsSome() {
			leverage = instr.Leverage.Unwrap()
		}

		if err := adapter.SetLeverage(ctx, instr, leverage); err != nil {
			return types.OrderResult{}, errors.Wrapf(errors.ErrCodeLeverageFailed, err,
				"set leverage %v on %s", leverage, instr.Symbol)
		}
	}

	quantity, price, err := ResolveQuantity(ctx, adapter, instr)
	if err != nil {
		return types.OrderResult{}, err
	}

	orderID, attempts, err := e.executor.Place(ctx, adapter, instr, quantity)
	if err != nil {
		return types.OrderResult{}, err
	}

	// Most venues carry protective stops on the entry order itself; for the
	// rest the adapter places separate trigger orders once the entry is in.
	if instr.IsEntry && (instr.StopPrice.IsSome() || instr.ProfitPrice.IsSome()) {
		if placer, ok := adapter.(exchange.ProtectionPlacer); ok {
			if err := placer.PlaceProtection(ctx, instr, quantity); err != nil {
				return types.OrderResult{}, errors.Wrapf(errors.ErrCodeOrderFailed, err,
					"protective orders for %s", instr.Symbol)
			}
		}
	}

	e.log.Info("order placed",
		zap.String("venue", string(instr.Venue)),
		zap.String("symbol", instr.Symbol),
		zap.String("side", instr.SideLabel()),
		zap.String("quantity", quantity.String()),
		zap.Int("attempts", attempts),
	)

	return types.OrderResult{
		Venue:    instr.Venue,
		Symbol:   instr.Symbol,
		Side:     instr.Side,
		Quantity: quantity,
		Price:    price.InexactFloat64(),
		OrderID:  orderID,
		Attempts: attempts,
	}, nil
}

// Price serves the bare price lookup the front door exposes.
func (e *Engine) Price(ctx context.Context, venue types.Venue, base, quote string) (decimal.Decimal, error) {
	adapter, err := e.adapterFor(venue, 1)
	if err != nil {
		return decimal.Zero, err
	}

	return adapter.Price(ctx, types.SymbolFor(venue, base, quote))
}

func (e *Engine) adapterFor(venue types.Venue, account int) (exchange.Adapter, error) {
	creds, err := e.creds.Credentials(venue, account)
	if err != nil {
		return nil, err
	}

	return e.registry.Adapter(venue, creds)
}
