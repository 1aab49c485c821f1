package middleware

import (
	"fmt"
	"sync"
	"time"
)

// Category names one rate-limited activity class. Games and money
// movements carry tighter limits than plain commands.
type Category string

const (
	CategoryCommands    Category = "commands"
	CategoryGames       Category = "games"
	CategoryDeposits    Category = "deposits"
	CategoryWithdrawals Category = "withdrawals"
)

// Limit is a sliding-window quota.
type Limit struct {
	Max    int
	Window time.Duration
}

// RateLimiter enforces per-user, per-category sliding-window limits.
type RateLimiter struct {
	mu       sync.Mutex
	limits   map[Category]Limit
	requests map[string][]time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a limiter with the given category quotas and
// starts its background cleanup.
func NewRateLimiter(limits map[Category]Limit) *RateLimiter {
	rl := &RateLimiter{
		limits:   limits,
		requests: make(map[string][]time.Time),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close stops the background cleanup goroutine. Call it on shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow reports whether userID may perform another action in the
// category, recording it when allowed. Unknown categories are allowed.
func (rl *RateLimiter) Allow(userID int64, cat Category) bool {
	limit, ok := rl.limits[cat]
	if !ok || limit.Max <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := fmt.Sprintf("%d:%s", userID, cat)
	now := time.Now()
	cutoff := now.Add(-limit.Window)

	var recent []time.Time
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= limit.Max {
		rl.requests[key] = recent
		return false
	}

	rl.requests[key] = append(recent, now)
	return true
}

// cleanup drops stale entries so idle users do not accumulate memory.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	var maxWindow time.Duration
	for _, l := range rl.limits {
		if l.Window > maxWindow {
			maxWindow = l.Window
		}
	}

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-maxWindow)
			for key, times := range rl.requests {
				var recent []time.Time
				for _, t := range times {
					if t.After(cutoff) {
						recent = append(recent, t)
					}
				}
				if len(recent) == 0 {
					delete(rl.requests, key)
				} else {
					rl.requests[key] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}
