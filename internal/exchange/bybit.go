package exchange

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
)

var bybitSignatures = map[Signature][]string{
	SignaturePositionMode: {"position idx not match position mode"},
	SignatureMarginMode:   {"cannot be switched in cross margin mode"},
	SignatureClockSkew:    {"check your server timestamp"},
}

// Bybit hedge slots: 0 one-way, 1 buy side, 2 sell side.
const (
	bybitIdxOneWay = 0
	bybitIdxBuy    = 1
	bybitIdxSell   = 2
)

type BybitAdapter struct {
	baseAdapter
}

func NewBybitAdapter(client Client, traits VenueTraits, log *logger.Logger) *BybitAdapter {
	traits.SupportsFutures = true

	return &BybitAdapter{baseAdapter: newBaseAdapter(types.VenueBybit, client, traits, log)}
}

func (a *BybitAdapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
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

	switch a.runtime.PositionMode() {
	case types.PositionModeHedge:
		// Hedge orders address the slot holding the position: entries their
		// own side, closes the opposite one.
		if hedgePositionSide(instr) == "long" {
			order.Params.PositionIdx = optional.Some(bybitIdxBuy)
		} else {
			order.Params.PositionIdx = optional.Some(bybitIdxSell)
		}
	default:
		order.Params.PositionIdx = optional.Some(bybitIdxOneWay)
	}

	return order
}

func (a *BybitAdapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	params := map[string]any{"orderLinkId": order.ClientOrderID}
	if order.Params.ReduceOnly {
		params["reduceOnly"] = true
	}

	if order.Params.PositionIdx.IsSome() {
		params["position_idx"] = order.Params.PositionIdx.Unwrap()
	}

	if order.Params.StopPrice.IsSome() {
		params["stopLoss"] = order.Params.StopPrice.Unwrap()
	}

	if order.Params.ProfitPrice.IsSome() {
		params["takeProfit"] = order.Params.ProfitPrice.Unwrap()
	}

	return a.placeOrder(ctx, order, params)
}

func (a *BybitAdapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	err := a.client.SetLeverage(cctx, leverage, instr.Symbol, nil)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "leverage not modified") {
		return nil
	}

	return err
}

func (a *BybitAdapter) Classify(err error) Signature {
	return classifyBySubstrings(err, bybitSignatures)
}
