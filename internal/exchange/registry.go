package exchange

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

// Credentials identify one venue account.
type Credentials struct {
	Key        string
	Secret     string
	Passphrase string
	// Account selects among numbered brokerage accounts.
	Account int
}

// AdapterFactory constructs a venue adapter for one credential set. The
// process wiring supplies it; the registry only memoizes.
type AdapterFactory func(venue types.Venue, creds Credentials) (Adapter, error)

// Registry owns one adapter instance per venue+credential pair, constructed
// lazily on first use. The instance persists for the process lifetime so its
// learned runtime state benefits every later instruction.
type Registry struct {
	mu       sync.Mutex
	factory  AdapterFactory
	adapters map[string]Adapter
}

func NewRegistry(factory AdapterFactory) *Registry {
	return &Registry{
		factory:  factory,
		adapters: make(map[string]Adapter),
	}
}

// Adapter returns the memoized adapter for the venue+credential pair,
// constructing it on first request.
func (r *Registry) Adapter(venue types.Venue, creds Credentials) (Adapter, error) {
	key := registryKey(venue, creds)

	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[key]; ok {
		return adapter, nil
	}

	if r.factory == nil {
		return nil, errors.Newf(errors.ErrCodeUnsupportedVenue, "no adapter factory configured for %s", venue)
	}

	adapter, err := r.factory(venue, creds)
	if err != nil {
		return nil, err
	}

	r.adapters[key] = adapter

	return adapter, nil
}

// registryKey hashes the credential so the secret never sits in a map key
// that might end up in logs or debug dumps.
func registryKey(venue types.Venue, creds Credentials) string {
	digest := sha256.Sum256([]byte(creds.Key + "\x00" + creds.Secret + "\x00" + creds.Passphrase))

	return string(venue) + ":" + hex.EncodeToString(digest[:8]) + ":" + strconv.Itoa(creds.Account)
}
