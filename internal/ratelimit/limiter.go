// Package ratelimit enforces the two audit gates: a per-account sliding
// minute window and a monthly ceiling read from persisted audit counts.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/citelens/citelens-api/internal/constants"
	"github.com/citelens/citelens-api/internal/models"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// MinuteLimiter is an in-process sliding-window limiter keyed by account.
// State is intentionally not persisted: a restart resets minute windows,
// which only ever errs in the caller's favor.
type MinuteLimiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	entries  map[string][]time.Time

	// now is injectable for tests.
	now func() time.Time
}

// NewMinuteLimiter creates a sliding-window limiter. Capacity is the max
// requests per account inside one window.
func NewMinuteLimiter(capacity int) *MinuteLimiter {
	return &MinuteLimiter{
		capacity: capacity,
		window:   time.Minute,
		entries:  make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow records an attempt for the account and reports whether it fits the
// window. Rejected attempts are not recorded, so a client hammering the
// limit does not push its own reset further out.
func (l *MinuteLimiter) Allow(accountID string, capacity int) Decision {
	if capacity <= 0 {
		capacity = l.capacity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.entries[accountID][:0]
	for _, ts := range l.entries[accountID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= capacity {
		oldest := kept[0]
		resetAt := oldest.Add(l.window)
		l.entries[accountID] = kept
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: resetAt.Sub(now),
			ResetAt:    resetAt,
		}
	}

	kept = append(kept, now)
	l.entries[accountID] = kept
	return Decision{
		Allowed:   true,
		Remaining: capacity - len(kept),
		ResetAt:   now.Add(l.window),
	}
}

// Prune drops accounts whose entries have all aged out. Called
// periodically so idle accounts do not accumulate.
func (l *MinuteLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for id, times := range l.entries {
		live := false
		for _, ts := range times {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.entries, id)
		}
	}
}

// AuditCounter reads persisted audit counts so the monthly ceiling
// survives restarts.
type AuditCounter interface {
	CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int, error)
}

// MonthlyGate enforces per-tier monthly audit ceilings.
type MonthlyGate struct {
	counter AuditCounter

	// now is injectable for tests.
	now func() time.Time
}

// NewMonthlyGate creates a monthly ceiling gate backed by persisted counts.
func NewMonthlyGate(counter AuditCounter) *MonthlyGate {
	return &MonthlyGate{counter: counter, now: time.Now}
}

// Allow reports whether the account is under its monthly ceiling. A usage
// count equal to the ceiling rejects; one below it passes. Ceiling 0 means
// unlimited.
func (g *MonthlyGate) Allow(ctx context.Context, accountID string, ceiling int) (Decision, error) {
	if ceiling <= 0 {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	now := g.now()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	used, err := g.counter.CountByAccountSince(ctx, accountID, periodStart)
	if err != nil {
		return Decision{}, fmt.Errorf("counting monthly audits: %w", err)
	}

	if used >= ceiling {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: periodEnd.Sub(now),
			ResetAt:    periodEnd,
		}, nil
	}

	return Decision{
		Allowed:   true,
		Remaining: ceiling - used - 1,
		ResetAt:   periodEnd,
	}, nil
}

// Gate combines the minute window and monthly ceiling behind one check.
type Gate struct {
	minute  *MinuteLimiter
	monthly *MonthlyGate
}

// NewGate creates the combined audit gate.
func NewGate(minute *MinuteLimiter, monthly *MonthlyGate) *Gate {
	return &Gate{minute: minute, monthly: monthly}
}

// Prune drops aged-out minute-window state. Call periodically.
func (g *Gate) Prune() {
	g.minute.Prune()
}

// Check runs both gates for the account's tier. Bypass tiers skip both.
// The minute window is checked first so a burst is reported as a minute
// rejection even when the monthly ceiling is also spent.
func (g *Gate) Check(ctx context.Context, accountID, tier string) (Decision, error) {
	limits := constants.GetTierLimits(tier)
	if limits.Bypass {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	minute := g.minute.Allow(accountID, limits.RequestsPerMinute)
	if !minute.Allowed {
		return minute, &models.RateLimitError{
			Scope:      "minute",
			RetryAfter: minute.RetryAfter,
			ResetAt:    minute.ResetAt,
		}
	}

	monthly, err := g.monthly.Allow(ctx, accountID, limits.MonthlyAudits)
	if err != nil {
		// Fail open: billing counts degrade, requests keep flowing.
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	if !monthly.Allowed {
		return monthly, &models.RateLimitError{
			Scope:      "monthly",
			RetryAfter: monthly.RetryAfter,
			ResetAt:    monthly.ResetAt,
		}
	}

	return monthly, nil
}
