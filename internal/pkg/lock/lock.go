package lock

import (
	"context"
	"time"
)

// Locker grants exclusive, expiring ownership of a key. Acquire reports
// ok=false without error when someone else holds the key. Release only
// removes the key if token still owns it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

func EnrichmentKey(employeeID string) string {
	return "lock:enrichment:" + employeeID
}
