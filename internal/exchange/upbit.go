package exchange

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
)

// UpbitAdapter covers the spot-only KRW venue. There is no account mode to
// learn, so nothing classifies as recoverable.
type UpbitAdapter struct {
	baseAdapter
}

func NewUpbitAdapter(client Client, traits VenueTraits, log *logger.Logger) *UpbitAdapter {
	traits.SupportsFutures = false

	return &UpbitAdapter{baseAdapter: newBaseAdapter(types.VenueUpbit, client, traits, log)}
}

func (a *UpbitAdapter) BuildOrder(instr *types.OrderInstruction, quantity decimal.Decimal) types.ResolvedOrder {
	return types.ResolvedOrder{
		ClientOrderID: uuid.New().String(),
		Symbol:        instr.Symbol,
		Side:          instr.Direction(),
		Kind:          instr.Kind,
		Quantity:      quantity.Abs(),
		Price:         instr.Price,
	}
}

func (a *UpbitAdapter) PlaceOrder(ctx context.Context, order types.ResolvedOrder) (string, error) {
	return a.placeOrder(ctx, order, map[string]any{"identifier": order.ClientOrderID})
}

func (a *UpbitAdapter) SetLeverage(ctx context.Context, instr *types.OrderInstruction, leverage float64) error {
	return nil
}

func (a *UpbitAdapter) Classify(err error) Signature {
	return SignatureNone
}
