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

// ExecutorConfig bounds the retry protocol. Entry/close flows get a larger
// budget: they may need one position-mode and one margin-mode correction
// before the venue accepts the order shape.
type ExecutorConfig struct {
	PlainAttempts int
	ModalAttempts int
}

// DefaultExecutorConfig returns the standard retry budgets.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{PlainAttempts: 5, ModalAttempts: 10}
}

// Executor places orders through an adapter, adapting to the account's real
// configuration as venue rejections reveal it. A recoverable rejection
// corrects the adapter's learned runtime state and re-issues the call with
// parameters rebuilt under the new assumption; everything else aborts
// immediately regardless of remaining budget.
type Executor struct {
	cfg ExecutorConfig
	log *logger.Logger
}

func NewExecutor(cfg ExecutorConfig, log *logger.Logger) *Executor {
	if cfg.PlainAttempts <= 0 {
		cfg.PlainAttempts = DefaultExecutorConfig().PlainAttempts
	}

	if cfg.ModalAttempts <= 0 {
		cfg.ModalAttempts = DefaultExecutorConfig().ModalAttempts
	}

	return &Executor{cfg: cfg, log: log}
}

// Place runs the retry protocol. On success it returns the venue order ID
// and the number of attempts spent; on failure the returned error wraps the
// last underlying cause, labeled with the instruction's side.
func (e *Executor) Place(ctx context.Context, adapter exchange.Adapter, instr *types.OrderInstruction, quantity decimal.Decimal) (string, int, error) {
	budget := e.cfg.PlainAttempts
	if instr.IsEntry || instr.IsClose {
		budget = e.cfg.ModalAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		// Observe the modes the order is built under so a correction can be
		// applied compare-and-swap style: concurrent instructions that hit
		// the same rejection flip the state once, not twice.
		observedPosition := adapter.Runtime().PositionMode()
		observedMargin := adapter.Runtime().MarginMode()

		order := adapter.BuildOrder(instr, quantity)

		orderID, err := adapter.PlaceOrder(ctx, order)
		if err == nil {
			return orderID, attempt, nil
		}

		lastErr = err
		signature := adapter.Classify(err)

		e.log.Warn("order placement failed",
			zap.String("venue", string(adapter.Venue())),
			zap.String("symbol", instr.Symbol),
			zap.Int("attempt", attempt),
			zap.Stringer("signature", signature),
			zap.Error(err),
		)

		switch signature {
		case exchange.SignaturePositionMode:
			corrected := adapter.Runtime().CorrectPositionMode(observedPosition)
			e.log.Info("learned position mode",
				zap.String("venue", string(adapter.Venue())),
				zap.String("mode", string(corrected)),
			)
		case exchange.SignatureMarginMode:
			corrected := adapter.Runtime().CorrectMarginMode(observedMargin)
			e.log.Info("learned margin mode",
				zap.String("venue", string(adapter.Venue())),
				zap.String("mode", string(corrected)),
			)
		case exchange.SignatureClockSkew:
			if syncErr := adapter.SyncTime(ctx); syncErr != nil {
				return "", attempt, errors.Wrapf(errors.ErrCodeOrderFailed, syncErr,
					"%s order failed: time resync", instr.SideLabel())
			}
		default:
			return "", attempt, errors.Wrapf(errors.ErrCodeOrderFailed, err,
				"%s order failed", instr.SideLabel())
		}
	}

	return "", budget, errors.Wrapf(errors.ErrCodeOrderFailed, lastErr,
		"%s order failed after %d attempts", instr.SideLabel(), budget)
}
