package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// ResolveQuantity converts the instruction's abstract size (absolute amount
// or percent of a funding source) into a concrete tradable quantity, applying
// venue precision and contract-size rounding. It is deterministic given
// unchanged account state and performs only the account reads it needs: a
// both-set or neither-set instruction fails before any network call.
//
// The price actually used for conversion is returned alongside the quantity
// so callers can report it; it is zero when no price fetch was required.
func ResolveQuantity(ctx context.Context, adapter exchange.Adapter, instr *types.OrderInstruction) (decimal.Decimal, decimal.Decimal, error) {
	if instr.Amount.IsSome() && instr.Percent.IsSome() {
		return decimal.Zero, decimal.Zero, errors.New(errors.ErrCodeAmountPercentBoth, "amount and percent cannot both be set")
	}

	if instr.Amount.IsNone() && instr.Percent.IsNone() {
		return decimal.Zero, decimal.Zero, errors.New(errors.ErrCodeAmountPercentNone, "one of amount or percent is required")
	}

	market, err := adapter.Market(ctx, instr.Symbol)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	var quantity, price decimal.Decimal
	if instr.Amount.IsSome() {
		quantity, price, err = resolveAmount(ctx, adapter, instr, market)
	} else {
		quantity, price, err = resolvePercent(ctx, adapter, instr, market)
	}

	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if inc := market.AmountIncrement; inc.IsPositive() {
		quantity = quantity.Div(inc).Floor().Mul(inc)
	}

	if !quantity.IsPositive() {
		return decimal.Zero, decimal.Zero, errors.New(errors.ErrCodeMinAmount, "resolved quantity is below the minimum tradable increment")
	}

	return quantity, price, nil
}

// resolveAmount treats the request's absolute amount as base quantity, or as
// notional to be converted into a contract count on contract-based products.
// Inverse contracts are denominated in quote notional, so the conversion
// passes through the current price; linear contracts divide directly.
func resolveAmount(ctx context.Context, adapter exchange.Adapter, instr *types.OrderInstruction, market types.MarketInfo) (decimal.Decimal, decimal.Decimal, error) {
	amount := decimal.NewFromFloat(instr.Amount.Unwrap())
	if !market.IsContract {
		return amount, decimal.Zero, nil
	}

	if market.ContractSize.IsZero() {
		return decimal.Zero, decimal.Zero, errors.Newf(errors.ErrCodeConnectivity, "market %s reports no contract size", instr.Symbol)
	}

	if instr.IsCoinMargined {
		price, err := adapter.Price(ctx, instr.Symbol)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		return amount.Mul(price).Div(market.ContractSize).Floor(), price, nil
	}

	return amount.Div(market.ContractSize).Floor(), decimal.Zero, nil
}

func resolvePercent(ctx context.Context, adapter exchange.Adapter, instr *types.OrderInstruction, market types.MarketInfo) (decimal.Decimal, decimal.Decimal, error) {
	percent := decimal.NewFromFloat(instr.Percent.Unwrap())

	// Entries and non-derivative buys draw on a funding balance; closes draw
	// on the open position; non-derivative sells draw on base holdings.
	switch {
	case instr.IsEntry || (!instr.IsFutures && instr.IsBuy):
		return resolveFundingPercent(ctx, adapter, instr, market, percent)
	case instr.IsClose:
		return resolveClosePercent(ctx, adapter, instr, percent)
	default:
		free, err := adapter.FreeBalance(ctx, instr.Base)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		return free.Mul(percent).Div(hundred), decimal.Zero, nil
	}
}

// resolveFundingPercent sizes an opening trade from the free funding balance.
// The venue's percent bias is subtracted first: fee accrual and precision
// rounding on a full-balance order otherwise produce over-balance rejections.
func resolveFundingPercent(ctx context.Context, adapter exchange.Adapter, instr *types.OrderInstruction, market types.MarketInfo, percent decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	effective := percent.Sub(adapter.Traits().PercentBias)
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	if instr.IsCoinMargined {
		// Inverse contracts are funded by the base asset.
		freeBase, err := adapter.FreeBalance(ctx, instr.Base)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		stake := freeBase.Mul(effective).Div(hundred)
		if market.IsContract && market.ContractSize.IsPositive() {
			return stake.Div(market.ContractSize).Floor(), decimal.Zero, nil
		}

		return stake, decimal.Zero, nil
	}

	freeQuote, err := adapter.FreeBalance(ctx, instr.Quote)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	price, err := adapter.Price(ctx, instr.Symbol)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if !price.IsPositive() {
		return decimal.Zero, decimal.Zero, errors.Newf(errors.ErrCodePriceFailed, "no usable price for %s", instr.Symbol)
	}

	cash := freeQuote.Mul(effective).Div(hundred)
	quantity := cash.Div(price)
	if market.IsContract && market.ContractSize.IsPositive() {
		quantity = quantity.Div(market.ContractSize).Floor()
	}

	return quantity, price, nil
}

func resolveClosePercent(ctx context.Context, adapter exchange.Adapter, instr *types.OrderInstruction, percent decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	sizes, err := adapter.Position(ctx, instr.Symbol)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if sizes.Long.IsZero() && sizes.Short.IsZero() {
		return decimal.Zero, decimal.Zero, errors.Newf(errors.ErrCodePositionNone, "no open position for %s", instr.Symbol)
	}

	var open decimal.Decimal
	if instr.IsBuy {
		// buy-to-close exits a short
		if sizes.Short.IsZero() {
			return decimal.Zero, decimal.Zero, errors.Newf(errors.ErrCodeShortPositionNone, "no short position for %s", instr.Symbol)
		}

		open = sizes.Short
	} else {
		if sizes.Long.IsZero() {
			return decimal.Zero, decimal.Zero, errors.Newf(errors.ErrCodeLongPositionNone, "no long position for %s", instr.Symbol)
		}

		open = sizes.Long
	}

	return open.Mul(percent).Div(hundred), decimal.Zero, nil
}
