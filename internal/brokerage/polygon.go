package brokerage

import (
	"context"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	"github.com/quantrelay/quantrelay/pkg/errors"
)

// PolygonQuotes serves US market last-trade prices through the polygon REST
// API.
type PolygonQuotes struct {
	client *polygon.Client
}

func NewPolygonQuotes(apiKey string) *PolygonQuotes {
	return &PolygonQuotes{client: polygon.New(apiKey)}
}

// LastPrice implements QuoteSource.
func (q *PolygonQuotes) LastPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	res, err := q.client.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: ticker})
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodePriceFailed, err, "last trade for %s", ticker)
	}

	price := decimal.NewFromFloat(res.Results.Price)
	if !price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodePriceFailed, "no usable price for %s", ticker)
	}

	return price, nil
}
