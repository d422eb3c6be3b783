// Package runlock provides the Redis-backed per-tenant run lease. At most one
// metrics run executes per tenant at any time; concurrent triggers are
// rejected, never queued.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
)

type redisLeaseProvider struct {
	locker *redislock.Client
}

// NewRunLeaseProvider creates a lease provider over the given Redis client.
func NewRunLeaseProvider(client *redis.Client) portsrepo.RunLeaseProvider {
	return &redisLeaseProvider{locker: redislock.New(client)}
}

var _ portsrepo.RunLeaseProvider = (*redisLeaseProvider)(nil)

func leaseKey(tenantID string) string {
	return fmt.Sprintf("metrics-run:%s", tenantID)
}

// Acquire takes the tenant's lease without retrying. The lease expires after
// ttl on its own, so a crashed run never blocks the tenant forever.
func (p *redisLeaseProvider) Acquire(ctx context.Context, tenantID string, ttl time.Duration) (portsrepo.RunLease, error) {
	lock, err := p.locker.Obtain(ctx, leaseKey(tenantID), ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, apperrors.ErrRunInProgress
		}
		return nil, fmt.Errorf("failed to obtain run lease for tenant %s: %w", tenantID, err)
	}
	return &redisLease{lock: lock}, nil
}

type redisLease struct {
	lock *redislock.Lock
}

func (l *redisLease) Token() string {
	return l.lock.Token()
}

func (l *redisLease) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return err
	}
	return nil
}
