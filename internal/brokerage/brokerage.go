// Package brokerage implements stock venue support: bearer-session
// management, account reads, and order placement against a brokerage REST
// API. Quotes come from the brokerage itself for KRX and from polygon for
// the US markets.
package brokerage

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/store"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// Client is the brokerage wire protocol boundary. Every call takes the
// bearer token explicitly; session lifecycle is the provider's concern.
type Client interface {
	// IssueToken obtains a fresh bearer token. Brokerages meter issuance,
	// so callers must exhaust the cached token first.
	IssueToken(ctx context.Context) (store.SessionToken, error)
	CashBalance(ctx context.Context, token, currency string) (decimal.Decimal, error)
	Holdings(ctx context.Context, token, symbol string) (decimal.Decimal, error)
	CurrentPrice(ctx context.Context, token, symbol string) (decimal.Decimal, error)
	PlaceOrder(ctx context.Context, token string, order types.ResolvedOrder) (string, error)
}

// QuoteSource serves last-trade prices for stock tickers.
type QuoteSource interface {
	LastPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// SessionProvider yields a usable bearer token, refreshing before expiry. A
// session that cannot be established is fatal and never retried.
type SessionProvider interface {
	EnsureValidSession(ctx context.Context) (string, error)
}

// BrokerQuotes serves last-trade prices straight from the brokerage's quote
// endpoint, used for KRX where no external provider carries the data.
type BrokerQuotes struct {
	client  Client
	session SessionProvider
}

func NewBrokerQuotes(client Client, session SessionProvider) *BrokerQuotes {
	return &BrokerQuotes{client: client, session: session}
}

// LastPrice implements QuoteSource.
func (q *BrokerQuotes) LastPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	token, err := q.session.EnsureValidSession(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return q.client.CurrentPrice(ctx, token, ticker)
}

// refreshMargin renews tokens this long before their stated expiry so an
// order never rides a token that lapses mid-flight.
const refreshMargin = 10 * time.Minute

// CachingSessionProvider persists issued tokens per account slot so restarts
// do not spend the brokerage's daily issuance quota.
type CachingSessionProvider struct {
	mu      sync.Mutex
	client  Client
	tokens  *store.TokenStore
	account int
	log     *logger.Logger

	cached store.SessionToken
}

func NewCachingSessionProvider(client Client, tokens *store.TokenStore, account int, log *logger.Logger) *CachingSessionProvider {
	return &CachingSessionProvider{
		client:  client,
		tokens:  tokens,
		account: account,
		log:     log,
	}
}

// EnsureValidSession returns the cached token when it is still comfortably
// valid, consulting memory first, then the persistent store, then the
// brokerage itself.
func (p *CachingSessionProvider) EnsureValidSession(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	horizon := time.Now().Add(refreshMargin)
	if p.cached.Valid(horizon) {
		return p.cached.Token, nil
	}

	if p.tokens != nil {
		token, ok, err := p.tokens.Load(ctx, p.account)
		if err != nil {
			return "", err
		}

		if ok && token.Valid(horizon) {
			p.cached = token

			return token.Token, nil
		}
	}

	token, err := p.client.IssueToken(ctx)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeSessionExpired, err,
			"brokerage session for account %d could not be established", p.account)
	}

	token.Account = p.account
	p.cached = token

	if p.tokens != nil {
		if err := p.tokens.Save(ctx, token); err != nil {
			// A failed persist costs quota on the next restart, not
			// correctness.
			p.log.Warn("token persist failed", zap.Error(err))
		}
	}

	return token.Token, nil
}
