package repositories

import (
	"context"
	"time"
)

// RunLease is a held per-tenant exclusivity lease. The token identifies the
// owning run; the lease expires on its own if the holder crashes.
type RunLease interface {
	Token() string
	Release(ctx context.Context) error
}

// RunLeaseProvider serializes metrics runs within a tenant. Acquire returns
// apperrors.ErrRunInProgress when another run already holds the tenant's
// lease; callers are rejected, never queued.
type RunLeaseProvider interface {
	Acquire(ctx context.Context, tenantID string, ttl time.Duration) (RunLease, error)
}
