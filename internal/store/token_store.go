// Package store persists brokerage session tokens across process restarts.
// Brokerage venues issue bearer tokens with a daily issuance quota, so an
// in-memory cache alone would burn the quota on every deploy.
package store

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/quantrelay/quantrelay/pkg/errors"
)

// SessionToken is one cached bearer token, keyed by brokerage account slot.
type SessionToken struct {
	Account   int
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the token is still usable at the given instant.
func (t SessionToken) Valid(now time.Time) bool {
	return t.Token != "" && now.Before(t.ExpiresAt)
}

// TokenStore is a sqlite-backed token cache.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore opens (creating if needed) the sqlite database at path.
func NewTokenStore(path string) (*TokenStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTokenStore, "open token store", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()

		return nil, errors.Wrap(errors.ErrCodeTokenStore, "init token store schema", err)
	}

	return &TokenStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS session_tokens (
		account INTEGER PRIMARY KEY,
		token TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`)

	return err
}

// Save upserts the token for its account slot.
func (s *TokenStore) Save(ctx context.Context, token SessionToken) error {
	query, args, err := sq.Insert("session_tokens").
		Columns("account", "token", "expires_at").
		Values(token.Account, token.Token, token.ExpiresAt.Unix()).
		Suffix("ON CONFLICT(account) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at").
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenStore, "build token upsert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeTokenStore, "save token", err)
	}

	return nil
}

// Load returns the cached token for the account slot, reporting presence
// separately from persistence failure. Expired tokens are still returned;
// validity is the caller's call.
func (s *TokenStore) Load(ctx context.Context, account int) (SessionToken, bool, error) {
	query, args, err := sq.Select("token", "expires_at").
		From("session_tokens").
		Where(sq.Eq{"account": account}).
		ToSql()
	if err != nil {
		return SessionToken{}, false, errors.Wrap(errors.ErrCodeTokenStore, "build token select", err)
	}

	var (
		value   string
		expires int64
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionToken{}, false, nil
		}

		return SessionToken{}, false, errors.Wrap(errors.ErrCodeTokenStore, "load token", err)
	}

	return SessionToken{
		Account:   account,
		Token:     value,
		ExpiresAt: time.Unix(expires, 0),
	}, true, nil
}

// Delete removes the token for the account slot.
func (s *TokenStore) Delete(ctx context.Context, account int) error {
	query, args, err := sq.Delete("session_tokens").
		Where(sq.Eq{"account": account}).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenStore, "build token delete", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeTokenStore, "delete token", err)
	}

	return nil
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}
