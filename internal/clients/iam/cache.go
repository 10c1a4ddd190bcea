package iam

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshLeeway is how long before expiry a cached token stops being handed out.
const DefaultRefreshLeeway = 5 * time.Minute

const refreshKey = "iam-token"

// Exchanger obtains a new bearer token from the identity service.
type Exchanger interface {
	ExchangeAPIKey(ctx context.Context) (*TokenResponse, error)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenCache owns the single bearer token shared by every request handler.
// A token is only returned while now < expiresAt - leeway; otherwise a new
// one is exchanged. Concurrent misses share one exchange.
type TokenCache struct {
	mu        sync.RWMutex
	token     *cachedToken
	leeway    time.Duration
	exchanger Exchanger
	group     singleflight.Group
	now       func() time.Time
}

// NewTokenCache creates a new token cache instance.
func NewTokenCache(exchanger Exchanger, leeway time.Duration) *TokenCache {
	if leeway <= 0 {
		leeway = DefaultRefreshLeeway
	}
	return &TokenCache{
		exchanger: exchanger,
		leeway:    leeway,
		now:       time.Now,
	}
}

// AcquireToken returns a usable bearer token, exchanging the API key when the
// cache is empty or the cached token is inside the refresh leeway.
// Failures are returned as *AuthenticationError and leave the cache untouched.
func (c *TokenCache) AcquireToken(ctx context.Context) (string, error) {
	if value, ok := c.cached(); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(refreshKey, func() (any, error) {
		if value, ok := c.cached(); ok {
			return value, nil
		}
		resp, err := c.exchanger.ExchangeAPIKey(ctx)
		if err != nil {
			return "", err
		}
		expiresAt := c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)

		c.mu.Lock()
		c.token = &cachedToken{value: resp.AccessToken, expiresAt: expiresAt}
		c.mu.Unlock()

		logger := zerolog.Ctx(ctx)
		if time.Duration(resp.ExpiresIn)*time.Second <= c.leeway {
			logger.Warn().Int64("expires_in", resp.ExpiresIn).Msg("IAM token lifetime is shorter than the refresh leeway")
		}
		logger.Debug().Time("expires_at", expiresAt).Msg("Refreshed IAM token")
		return resp.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Invalidate drops the cached token so the next AcquireToken exchanges again.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return "", false
	}
	if !c.now().Before(c.token.expiresAt.Add(-c.leeway)) {
		return "", false
	}
	return c.token.value, true
}
