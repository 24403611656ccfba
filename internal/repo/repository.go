package repo

import (
	"context"
	"time"

	"github.com/hamed0406/pagewatch/internal/domain"
)

// StateStore keeps the last observed state per target.
// Each target's key space is disjoint, so implementations only need
// per-call atomicity, not cross-target locking.
type StateStore interface {
	// GetFingerprint returns ok=false when the target has never been committed.
	GetFingerprint(ctx context.Context, target string) (fingerprint string, ok bool, err error)
	// SetState replaces content, fingerprint and timestamp in one atomic write.
	SetState(ctx context.Context, target, content, fingerprint string, now time.Time) error
	// Get returns nil, nil for a cold target.
	Get(ctx context.Context, target string) (*domain.CachedState, error)
	Close() error
}
