package auth

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// TokenBlacklist records tokens that must stop being honored before their
// natural expiry. Entries are evicted lazily: a stale entry is removed the
// next time it is read, so the registry never grows past the set of
// currently-unexpired revoked tokens.
type TokenBlacklist struct {
	entries *xsync.MapOf[string, time.Time]
	now     func() time.Time
	logger  Logger
}

var _ RevocationRegistry = (*TokenBlacklist)(nil)

// TokenBlacklistOption customizes blacklist construction.
type TokenBlacklistOption func(*TokenBlacklist)

// WithBlacklistClock injects a custom clock (useful for tests).
func WithBlacklistClock(clock func() time.Time) TokenBlacklistOption {
	return func(b *TokenBlacklist) {
		if clock != nil {
			b.now = clock
		}
	}
}

// WithBlacklistLogger overrides the logger.
func WithBlacklistLogger(logger Logger) TokenBlacklistOption {
	return func(b *TokenBlacklist) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewTokenBlacklist creates an in-memory, process-local revocation registry.
func NewTokenBlacklist(opts ...TokenBlacklistOption) *TokenBlacklist {
	b := &TokenBlacklist{
		entries: xsync.NewMapOf[string, time.Time](),
		now:     time.Now,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b
}

// Revoke records the token as revoked until expiry. Revoking an already
// revoked token overwrites the entry, so the call is idempotent.
func (b *TokenBlacklist) Revoke(token string, expiry time.Time) {
	if token == "" {
		return
	}
	b.entries.Store(token, expiry)
}

// IsRevoked reports whether the token is currently revoked. Entries whose
// recorded expiry has passed are logically absent: they are deleted on read
// and false is returned. A concurrent read racing an eviction may observe
// the entry as present, which is harmless relative to wall-clock expiry.
func (b *TokenBlacklist) IsRevoked(token string) bool {
	expiry, ok := b.entries.Load(token)
	if !ok {
		return false
	}

	if !b.now().Before(expiry) {
		b.entries.Delete(token)
		return false
	}

	return true
}

// Size returns the number of physically stored entries, stale ones included.
func (b *TokenBlacklist) Size() int {
	return b.entries.Size()
}

// Purge removes every stale entry and returns how many were dropped. Lazy
// eviction keeps the registry correct without this; Purge only bounds memory
// for tokens that are revoked and then never looked up again.
func (b *TokenBlacklist) Purge() int {
	now := b.now()
	dropped := 0

	b.entries.Range(func(token string, expiry time.Time) bool {
		if !now.Before(expiry) {
			b.entries.Delete(token)
			dropped++
		}
		return true
	})

	if dropped > 0 {
		b.logger.Debug("blacklist purge removed stale entries", "count", dropped)
	}

	return dropped
}
