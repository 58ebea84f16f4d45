package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()

	s, err := NewTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestTokenStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, s.Save(ctx, SessionToken{Account: 2, Token: "bearer-abc", ExpiresAt: expires}))

	token, ok, err := s.Load(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bearer-abc", token.Token)
	assert.True(t, expires.Equal(token.ExpiresAt))
	assert.True(t, token.Valid(time.Now()))
}

func TestTokenStoreMissingAccount(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Load(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStoreUpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, SessionToken{Account: 1, Token: "old", ExpiresAt: time.Now()}))
	require.NoError(t, s.Save(ctx, SessionToken{Account: 1, Token: "new", ExpiresAt: time.Now().Add(time.Hour)}))

	token, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", token.Token)
}

func TestTokenStoreExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := SessionToken{Account: 4, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, s.Save(ctx, stale))

	// Expired tokens are returned; validity is decided by the caller.
	token, ok, err := s.Load(ctx, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, token.Valid(time.Now()))
}

func TestTokenStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, SessionToken{Account: 1, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Delete(ctx, 1))

	_, ok, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
