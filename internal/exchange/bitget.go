package exchange

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
)

// 40774 is Bitget's "order type must match the unilateral position type"
// refusal, raised when the account's position mode disagrees with the order.
var bitgetSignatures = map[Signature][]string{
	SignaturePositionMode: {"unilateral position", "40774"},
	SignatureMarginMode:   {"currently holding positions or orders in single margin mode"},
	SignatureClockSkew:    {"request timestamp expired"},
}

type BitgetAdapter struct {
	baseAdapter
}

func NewBitgetAdapter(client Client, traits VenueTraits, log *logger.Logger) *BitgetAdapter {
	traits.SupportsFutures = true

	return &BitgetAdapter{baseAdapter: newBaseAdapter(types.VenueBitget, client, traits, log)}
}

func (a *BitgetAdapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
	order := types.ResolvedOrder{
		ClientOrderID: uuid.New().String(),
		Symbol:        instr.Symbol,
		Side:          instr.Direction(),
		Kind:          instr.Kind,
		Quantity:      quantity.Abs(),
		Price:         instr.Price,
	}

	if !instr.IsFutures {
		return order
	}

	if instr.IsClose {
		order.Params.ReduceOnly = true
	}

	if instr.IsEntry {
		order.Params.StopPrice = instr.StopPrice
		order.Params.ProfitPrice = instr.ProfitPrice
	}

	if a.runtime.PositionMode() == types.PositionModeHedge {
		order.Params.PositionSide = hedgePositionSide(instr)
	}

	return order
}

func (a *BitgetAdapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	params := map[string]any{"clientOid": order.ClientOrderID}
	if order.Params.ReduceOnly {
		params["reduceOnly"] = true
	}

	if order.Params.PositionSide != "" {
		params["holdSide"] = order.Params.PositionSide
	}

	if order.Params.StopPrice.IsSome() {
		params["presetStopLossPrice"] = order.Params.StopPrice.Unwrap()
	}

	if order.Params.ProfitPrice.IsSome() {
		params["presetStopSurplusPrice"] = order.Params.ProfitPrice.Unwrap()
	}

	return a.placeOrder(ctx, order, params)
}

// SetLeverage passes the hold side when the account margin mode is isolated:
// fixed-margin accounts require leverage per position side.
func (a *BitgetAdapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	params := map[string]any{}
	if marginModeFor(instr, a.runtime) == types.MarginModeIsolated && instr.IsEntry {
		if instr.IsBuy {
			params["holdSide"] = "long"
		} else {
			params["holdSide"] = "short"
		}
	}

	return a.client.SetLeverage(cctx, leverage, instr.Symbol, params)
}

func (a *BitgetAdapter) Classify(err error) Signature {
	return classifyBySubstrings(err, bitgetSignatures)
}
