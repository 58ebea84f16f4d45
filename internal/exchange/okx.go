package exchange

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
)

// 51169 covers orders rejected because the account runs the other position
// mode; 51010 covers trade-mode (margin) mismatches.
var okxSignatures = map[Signature][]string{
	SignaturePositionMode: {"current position mode", "posside error", "51169"},
	SignatureMarginMode:   {"td mode", "trade mode", "51010"},
	SignatureClockSkew:    {"invalid ok-access-timestamp"},
}

type OKXAdapter struct {
	baseAdapter
}

func NewOKXAdapter(client Client, traits VenueTraits, log *logger.Logger) *OKXAdapter {
	traits.SupportsFutures = true

	return &OKXAdapter{baseAdapter: newBaseAdapter(types.VenueOKX, client, traits, log)}
}

func (a *OKXAdapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
	order := types.ResolvedOrder{
		ClientOrderID: uuid.New().String(),
		Symbol:        instr.Symbol,
		Side:          instr.Direction(),
		Kind:          instr.Kind,
		Quantity:      quantity.Abs(),
		Price:         instr.Price,
	}

	if !instr.IsFutures {
		// Spot market orders are sized in base units, not quote cost.
		order.Params.TargetCurrency = "base_ccy"

		return order
	}

	order.Params.MarginMode = marginModeFor(instr, a.runtime)

	if instr.IsEntry {
		order.Params.StopPrice = instr.StopPrice
		order.Params.ProfitPrice = instr.ProfitPrice
	}

	switch a.runtime.PositionMode() {
	case types.PositionModeHedge:
		order.Params.PositionSide = hedgePositionSide(instr)
	default:
		if instr.IsClose {
			order.Params.ReduceOnly = true
		}
	}

	return order
}

func (a *OKXAdapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	params := map[string]any{"clOrdId": order.ClientOrderID}
	if order.Params.TargetCurrency != "" {
		params["tgtCcy"] = order.Params.TargetCurrency
	}

	if order.Params.MarginMode != "" {
		params["tdMode"] = string(order.Params.MarginMode)
	}

	if order.Params.ReduceOnly {
		params["reduceOnly"] = true
	}

	if order.Params.PositionSide != "" {
		params["posSide"] = order.Params.PositionSide
	}

	// Attached triggers execute at market: ordPx -1 is the OKX convention.
	if order.Params.StopPrice.IsSome() {
		params["slTriggerPx"] = order.Params.StopPrice.Unwrap()
		params["slOrdPx"] = "-1"
	}

	if order.Params.ProfitPrice.IsSome() {
		params["tpTriggerPx"] = order.Params.ProfitPrice.Unwrap()
		params["tpOrdPx"] = "-1"
	}

	return a.placeOrder(ctx, order, params)
}

// SetLeverage mirrors the order's trade mode: isolated accounts set leverage
// per position side under hedge mode, or for the net position under one-way.
func (a *OKXAdapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	if !instr.IsFutures {
		return nil
	}

	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	mode := marginModeFor(instr, a.runtime)
	params := map[string]any{"mgnMode": string(mode)}

	if mode == types.MarginModeIsolated {
		if a.runtime.PositionMode() == types.PositionModeHedge {
			params["posSide"] = hedgePositionSide(instr)
		} else {
			params["posSide"] = "net"
		}
	}

	return a.client.SetLeverage(cctx, leverage, instr.Symbol, params)
}

func (a *OKXAdapter) Classify(err error) Signature {
	return classifyBySubstrings(err, okxSignatures)
}
