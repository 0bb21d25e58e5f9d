package forum

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Cooldowns mirrors the contract's per-address community creation window so
// the node can refuse early. The contract remains the authority: a fresh
// process knows nothing about creations made before it started.
type Cooldowns struct {
	mu       sync.Mutex
	window   time.Duration
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewCooldowns(window time.Duration) *Cooldowns {
	return &Cooldowns{window: window, limiters: make(map[string]*rate.Limiter), now: time.Now}
}

// Remaining is how long account must still wait, zero when it may create.
func (c *Cooldowns) Remaining(account string) time.Duration {
	if c.window <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[strings.ToLower(account)]
	if !ok {
		return 0
	}
	tokens := lim.TokensAt(c.now())
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) * float64(c.window))
}

// Start records a confirmed creation by account.
func (c *Cooldowns) Start(account string) {
	if c.window <= 0 {
		return
	}
	key := strings.ToLower(account)
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(c.window), 1)
		c.limiters[key] = lim
	}
	lim.AllowN(c.now(), 1)
}
