// Package server is the HTTP front door: it accepts webhook order alerts,
// normalizes them, hands them to the engine, and reports the outcome.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/notify"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// OrderExecutor is the engine capability the front door needs.
type OrderExecutor interface {
	Execute(ctx context.Context, instr *types.OrderInstruction) (types.OrderResult, error)
	Price(ctx context.Context, venue types.Venue, base, quote string) (decimal.Decimal, error)
}

// Server handles the webhook endpoints.
type Server struct {
	engine    OrderExecutor
	notifier  notify.Notifier
	password  string
	allowlist *allowlist
	log       *logger.Logger
}

func New(engine OrderExecutor, notifier notify.Notifier, password string, extraIPs []string, log *logger.Logger) *Server {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Server{
		engine:    engine,
		notifier:  notifier,
		password:  password,
		allowlist: newAllowlist(extraIPs),
		log:       log,
	}
}

// Handler builds the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/order", s.handleOrder).Methods(http.MethodPost)
	router.HandleFunc("/price", s.handlePrice).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return cors.AllowAll().Handler(s.allowlist.middleware(router))
}

// ListenAndServe blocks until the context is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req types.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInstruction, "malformed order payload", err))

		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) != 1 {
		s.writeError(w, errors.New(errors.ErrCodeBadPassword, "password mismatch"))

		return
	}

	instr, err := types.NewOrderInstruction(req)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.engine.Execute(r.Context(), instr)
	if err != nil {
		s.log.Warn("order rejected",
			zap.String("venue", string(instr.Venue)),
			zap.String("symbol", instr.Symbol),
			zap.Error(err),
		)
		s.writeError(w, err)
		go s.notifier.OrderFailed(context.Background(), instr, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
	go s.notifier.OrderPlaced(context.Background(), result)
}

type priceRequest struct {
	Exchange string `json:"exchange"`
	Base     string `json:"base"`
	Quote    string `json:"quote"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInstruction, "malformed price payload", err))

		return
	}

	price, err := s.engine.Price(r.Context(), types.Venue(req.Exchange), req.Base, req.Quote)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"price": price.String()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Code    errors.ErrorCode    `json:"code"`
	Message string              `json:"message"`
	Fields  []errors.FieldError `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]errorBody{"error": {
			Code:    errors.ErrCodeInvalidInstruction,
			Message: "validation failed",
			Fields:  verr.Fields,
		}})

		return
	}

	code := errors.GetCode(err)
	s.writeJSON(w, statusFor(code), map[string]errorBody{"error": {
		Code:    code,
		Message: err.Error(),
	}})
}

func statusFor(code errors.ErrorCode) int {
	switch {
	case code == errors.ErrCodeBadPassword:
		return http.StatusForbidden
	case code >= errors.ErrCodeInvalidInstruction && code < errors.ErrCodeOrderFailed:
		// Validation, amount, and position failures are the caller's to fix.
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("response encode failed", zap.Error(err))
	}
}
