// Package limiter defines interfaces and implementations for per-token relay rate limiting.
package limiter

import "context"

// Limiter decides whether a token may relay another message right now.
type Limiter interface {
	// Allow reports whether a new relay attempt is permitted for the token
	// under its configured per-hour limit. It only reports permission; the
	// caller reserves the slot by writing the delivery record after dispatch.
	Allow(ctx context.Context, tokenID int64, limitPerHour int) (bool, error)
}
