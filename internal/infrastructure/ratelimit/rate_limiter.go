package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Actions with their own budgets.
const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionAuth        = "auth"
	ActionUpload      = "upload"
)

// Limit is a token bucket budget: Burst tokens refilled at Every.
type Limit struct {
	Every time.Duration
	Burst int
}

func PerMinute(n int) Limit {
	if n <= 0 {
		n = 1
	}
	return Limit{Every: time.Minute / time.Duration(n), Burst: n}
}

var defaultLimits = map[string]Limit{
	ActionSendMessage: PerMinute(30),
	ActionCreateChat:  {Every: 12 * time.Minute, Burst: 5},
	ActionAuth:        PerMinute(5),
	ActionUpload:      PerMinute(10),
}

var fallbackLimit = PerMinute(60)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limits  map[string]Limit
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	limits := make(map[string]Limit, len(defaultLimits))
	for k, v := range defaultLimits {
		limits[k] = v
	}
	return &RateLimiter{
		entries: make(map[string]*entry),
		limits:  limits,
		now:     time.Now,
	}
}

// SetLimit overrides the budget of action. Buckets already handed out keep
// their old budget until they are cleaned up.
func (rl *RateLimiter) SetLimit(action string, l Limit) {
	rl.mu.Lock()
	rl.limits[action] = l
	rl.mu.Unlock()
}

func (rl *RateLimiter) limiter(key, action string) *rate.Limiter {
	id := key + ":" + action

	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[id]
	if !ok {
		l, found := rl.limits[action]
		if !found {
			l = fallbackLimit
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(l.Every), l.Burst)}
		rl.entries[id] = e
	}
	e.lastSeen = rl.now()
	return e.limiter
}

// Allow consumes a token for key and action. When the bucket is empty it
// reports how long until the next token.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	lim := rl.limiter(key, action)
	now := rl.now()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	for id, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, id)
		}
	}
}

// StartCleanupRoutine runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanupRoutine(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-stop:
				return
			}
		}
	}()
}
