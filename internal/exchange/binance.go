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

// binanceSignatures are the recoverable error texts Binance futures returns.
// -4061 is raised when the order's position side disagrees with the account's
// dual-position setting; -1021 when the request timestamp falls outside the
// recv window.
var binanceSignatures = map[Signature][]string{
	SignaturePositionMode: {"position side does not match"},
	SignatureMarginMode:   {"margin type cannot be changed"},
	SignatureClockSkew:    {"outside of the recvwindow", "-1021"},
}

type BinanceAdapter struct {
	baseAdapter
}

func NewBinanceAdapter(client Client, traits VenueTraits, log *logger.Logger) *BinanceAdapter {
	traits.SupportsFutures = true

	return &BinanceAdapter{baseAdapter: newBaseAdapter(types.VenueBinance, client, traits, log)}
}

func (a *BinanceAdapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
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

func (a *BinanceAdapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	params := map[string]any{"newClientOrderId": order.ClientOrderID}
	if order.Params.ReduceOnly {
		params["reduceOnly"] = true
	}

	if order.Params.PositionSide != "" {
		params["positionSide"] = strings.ToUpper(order.Params.PositionSide)
	}

	return a.placeOrder(ctx, order, params)
}

// PlaceProtection implements ProtectionPlacer. Binance futures takes no
// inline stop parameters, so each protective price becomes a close-position
// trigger order on the inverted side of the entry.
func (a *BinanceAdapter) PlaceProtection(ctx context.Context, instr *types.OrderInstruction, quantity decimal.Decimal) error {
	exit := types.SideSell
	if !instr.IsBuy {
		exit = types.SideBuy
	}

	triggers := []struct {
		orderType string
		price     optional.Option[float64]
	}{
		{"STOP_MARKET", instr.StopPrice},
		{"TAKE_PROFIT_MARKET", instr.ProfitPrice},
	}

	for _, trigger := range triggers {
		if trigger.price.IsNone() {
			continue
		}

		order := types.ResolvedOrder{
			ClientOrderID: uuid.New().String(),
			Symbol:        instr.Symbol,
			Side:          exit,
			Kind:          types.OrderKindMarket,
			Quantity:      quantity.Abs(),
		}

		params := map[string]any{
			"newClientOrderId": order.ClientOrderID,
			"orderType":        trigger.orderType,
			"stopPrice":        trigger.price.Unwrap(),
			"closePosition":    true,
		}
		if a.runtime.PositionMode() == types.PositionModeHedge {
			// The trigger protects the position the entry opened.
			if instr.IsBuy {
				params["positionSide"] = "LONG"
			} else {
				params["positionSide"] = "SHORT"
			}
		}

		if _, err := a.placeOrder(ctx, order, params); err != nil {
			return err
		}
	}

	return nil
}

func (a *BinanceAdapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	cctx, cancel := a.callCtx(ctx)
	defer cancel()

	err := a.client.SetLeverage(cctx, leverage, instr.Symbol, nil)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "no need to change leverage") {
		return nil
	}

	return err
}

func (a *BinanceAdapter) Classify(err error) Signature {
	return classifyBySubstrings(err, binanceSignatures)
}
