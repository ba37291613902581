// Package idempotency decides first-seen vs duplicate for externally
// identified events, so redelivered webhooks never produce duplicate effects.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/cache/port"
)

const (
	keyPrefix = "idempotency:"

	// DefaultTTL covers the provider's redelivery window. Expiry is advisory
	// cleanup only; correctness depends on the atomic set-if-absent at
	// arrival time.
	DefaultTTL = 24 * time.Hour
)

// Admission is the event admission filter. Safe for concurrent use.
type Admission struct {
	cache port.Cache
	ttl   time.Duration
}

// NewAdmission builds an admission filter over the given cache. A zero ttl
// falls back to DefaultTTL.
func NewAdmission(cache port.Cache, ttl time.Duration) *Admission {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Admission{cache: cache, ttl: ttl}
}

// Admit atomically records that eventID has begun processing. It returns
// (true, nil) exactly once per event id within the retention window;
// concurrent callers with the same id see exactly one true.
//
// On a cache failure the event is NOT admitted and the error is returned:
// failing closed lets the provider's own retry redeliver the event, whereas a
// false "admitted" would process a duplicate.
func (a *Admission) Admit(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, fmt.Errorf("idempotency: empty event id")
	}
	ok, err := a.cache.SetNX(ctx, keyPrefix+eventID, "1", a.ttl)
	if err != nil {
		return false, fmt.Errorf("idempotency: admit %s: %w", eventID, err)
	}
	return ok, nil
}
