package handoff

import (
	"context"
	"time"
)

// Store carries display codes from the watchlist page to the analysis
// page. Entries are written by the bulk analyze operation and read by
// the analysis side; no reload of the watchlist is involved.
type Store interface {
	Put(ctx context.Context, key string, codes []string, ttl time.Duration) error
	Get(ctx context.Context, key string) (codes []string, found bool, err error)
	Delete(ctx context.Context, key string) error
}

// Key scopes a handoff entry to one session.
func Key(sessionID string) string {
	return "handoff:codes:" + sessionID
}
