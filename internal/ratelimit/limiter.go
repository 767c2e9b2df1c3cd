// Package ratelimit caps how many proposals a user may send per window.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// WindowStore counts events in fixed windows keyed by an arbitrary string.
type WindowStore interface {
	// IncrementWindow adds one event to key and returns the new count and
	// the time left in the current window.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter allows at most Limit events per Window for each user.
type Limiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	prefix string
}

// NewLimiter returns a limiter allowing limit proposals per window.
// A limit of zero or less disables limiting.
func NewLimiter(store WindowStore, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		prefix: "rate:proposals:",
	}
}

// Allow records one proposal attempt by userID. When the user is over the
// limit it returns false and how long until the window resets.
func (l *Limiter) Allow(ctx context.Context, userID int64) (bool, time.Duration, error) {
	if l == nil || l.limit <= 0 {
		return true, 0, nil
	}
	if userID <= 0 {
		return false, 0, fmt.Errorf("invalid user id %d", userID)
	}
	if l.store == nil {
		return false, 0, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, l.prefix+strconv.FormatInt(userID, 10), l.window)
	if err != nil {
		return false, 0, err
	}
	if count > int64(l.limit) {
		return false, ttl, nil
	}
	return true, 0, nil
}
