package auth

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/exportai/backend/internal/metrics"
)

// ErrSessionRevoked marks a token whose session was signed out.
var ErrSessionRevoked = errors.New("session revoked")

type cachedSession struct {
	userID    int64
	jti       string
	expiresAt time.Time
}

// TokenCache memoizes token verification so a burst of requests carrying
// the same bearer token verifies it once. Concurrent misses for one token
// collapse into a single verification via singleflight; the others share
// its result instead of racing.
type TokenCache struct {
	issuer *TokenIssuer
	group  singleflight.Group

	mu       sync.RWMutex
	sessions map[string]cachedSession
	// revoked maps jti to the underlying token's expiry. An entry must
	// outlive every copy of the token, not just the cached verification,
	// so the deadline is the token's own exp.
	revoked map[string]time.Time
	ttl     time.Duration
}

func NewTokenCache(issuer *TokenIssuer, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &TokenCache{
		issuer:   issuer,
		sessions: make(map[string]cachedSession),
		revoked:  make(map[string]time.Time),
		ttl:      ttl,
	}
}

// Verify returns the user id for a valid, unrevoked token.
func (c *TokenCache) Verify(token string) (int64, error) {
	c.mu.RLock()
	session, ok := c.sessions[token]
	if ok && time.Now().Before(session.expiresAt) {
		_, revoked := c.revoked[session.jti]
		c.mu.RUnlock()
		if revoked {
			return 0, ErrSessionRevoked
		}
		metrics.AuthCacheLookups.WithLabelValues("hit").Inc()
		return session.userID, nil
	}
	c.mu.RUnlock()

	result, err, shared := c.group.Do(token, func() (interface{}, error) {
		claims, err := c.issuer.Verify(token)
		if err != nil {
			return nil, err
		}

		session := cachedSession{
			userID:    claims.UserID,
			jti:       claims.JTI,
			expiresAt: time.Now().Add(c.ttl),
		}

		c.mu.Lock()
		c.sessions[token] = session
		c.mu.Unlock()

		return session, nil
	})
	if err != nil {
		metrics.AuthCacheLookups.WithLabelValues("miss").Inc()
		return 0, err
	}

	if shared {
		metrics.AuthCacheLookups.WithLabelValues("shared").Inc()
	} else {
		metrics.AuthCacheLookups.WithLabelValues("miss").Inc()
	}

	session = result.(cachedSession)

	c.mu.RLock()
	_, revoked := c.revoked[session.jti]
	c.mu.RUnlock()
	if revoked {
		return 0, ErrSessionRevoked
	}

	return session.userID, nil
}

// Revoke invalidates one session by jti until expiresAt, when the token
// itself stops verifying. The cached entry stays until its TTL but is
// rejected on every lookup.
func (c *TokenCache) Revoke(jti string, expiresAt time.Time) {
	c.mu.Lock()
	c.revoked[jti] = expiresAt
	c.mu.Unlock()
}

// RevokeToken revokes the session carried by token.
func (c *TokenCache) RevokeToken(token string) error {
	claims, err := c.issuer.Verify(token)
	if err != nil {
		return err
	}
	c.Revoke(claims.JTI, claims.ExpiresAt)
	return nil
}

// Sweep drops expired verification entries and revocations whose token
// has expired. A revocation is never dropped while the token could still
// verify; otherwise a signed-out session would come back once its cache
// entry aged out.
func (c *TokenCache) Sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for token, session := range c.sessions {
		if now.After(session.expiresAt) {
			delete(c.sessions, token)
		}
	}
	for jti, deadline := range c.revoked {
		if now.After(deadline) {
			delete(c.revoked, jti)
		}
	}
}
