// Package notify delivers order outcomes to an external webhook. Delivery is
// best effort and happens off the request path; a failed notification never
// fails an order.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/types"
)

// Notifier receives order outcomes. Implementations must tolerate being
// called concurrently.
type Notifier interface {
	OrderPlaced(ctx context.Context, result types.OrderResult)
	OrderFailed(ctx context.Context, instr *types.OrderInstruction, err error)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, types.OrderResult)              {}
func (Nop) OrderFailed(context.Context, *types.OrderInstruction, error) {}

// Webhook posts discord-style messages: an embed for successes, plain
// content for failures.
type Webhook struct {
	url  string
	http *http.Client
	log  *logger.Logger
}

func NewWebhook(url string, log *logger.Logger) *Webhook {
	return &Webhook{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

type webhookEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color"`
	Fields []webhookField `json:"fields"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []webhookEmbed `json:"embeds,omitempty"`
}

const embedColorGreen = 0x2ecc71

// OrderPlaced implements Notifier.
func (w *Webhook) OrderPlaced(ctx context.Context, result types.OrderResult) {
	w.send(ctx, webhookPayload{
		Embeds: []webhookEmbed{{
			Title: fmt.Sprintf("%s %s %s", result.Venue, result.Side, result.Symbol),
			Color: embedColorGreen,
			Fields: []webhookField{
				{Name: "quantity", Value: result.Quantity.String(), Inline: true},
				{Name: "price", Value: fmt.Sprintf("%g", result.Price), Inline: true},
				{Name: "order id", Value: result.OrderID, Inline: true},
				{Name: "attempts", Value: fmt.Sprintf("%d", result.Attempts), Inline: true},
			},
		}},
	})
}

// OrderFailed implements Notifier.
func (w *Webhook) OrderFailed(ctx context.Context, instr *types.OrderInstruction, err error) {
	w.send(ctx, webhookPayload{
		Content: fmt.Sprintf("order failed: %s %s %s: %v",
			instr.Venue, instr.SideLabel(), instr.Symbol, err),
	})
}

func (w *Webhook) send(ctx context.Context, payload webhookPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.log.Warn("webhook payload encode failed", zap.Error(err))

		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.log.Warn("webhook request build failed", zap.Error(err))

		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		w.log.Warn("webhook delivery failed", zap.Error(err))

		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.log.Warn("webhook rejected", zap.String("status", resp.Status))
	}
}
