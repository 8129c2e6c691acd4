package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const logoutChallengeTTL = 60 * time.Second

// challengeStore issues single-use confirmation tokens.
type challengeStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]time.Time
}

func newChallengeStore(ttl time.Duration) *challengeStore {
	return &challengeStore{ttl: ttl, now: time.Now, tokens: make(map[string]time.Time)}
}

func (c *challengeStore) issue() (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.pruneLocked(now)
	token := uuid.NewString()
	expires := now.Add(c.ttl)
	c.tokens[token] = expires
	return token, expires
}

// redeem consumes token. It reports false for unknown, used or expired tokens.
func (c *challengeStore) redeem(token string) bool {
	if _, err := uuid.Parse(token); err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	expires, ok := c.tokens[token]
	if !ok {
		return false
	}
	delete(c.tokens, token)
	return c.now().Before(expires)
}

func (c *challengeStore) pruneLocked(now time.Time) {
	for token, expires := range c.tokens {
		if !now.Before(expires) {
			delete(c.tokens, token)
		}
	}
}
