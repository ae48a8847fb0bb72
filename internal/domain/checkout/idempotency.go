// internal/domain/checkout/idempotency.go
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyIdemCheckout = "idem:checkout:%d:%s"
	pendingMarker   = "pending"
)

// ErrCheckoutInProgress is returned when a request reuses the key of a
// checkout that has not finished yet.
var ErrCheckoutInProgress = errors.New("a checkout with this idempotency key is still in progress")

// IdempotencyStore remembers checkout reports per customer and client key
// so retried requests replay the first outcome instead of paying twice.
type IdempotencyStore struct {
	client   *redis.Client
	ttl      time.Duration
	claimTTL time.Duration
}

// NewIdempotencyStore creates a new store. Finished reports are kept for
// ttl; an unfinished claim expires after claimTTL so a request that dies
// before saving its report does not lock the key out for the full ttl.
func NewIdempotencyStore(client *redis.Client, ttl, claimTTL time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl, claimTTL: claimTTL}
}

func idemKey(customerID uint, key string) string {
	return fmt.Sprintf(keyIdemCheckout, customerID, key)
}

// Begin claims the key. It returns (nil, nil) when the caller owns the
// key and should run the checkout, the stored report when one exists,
// or ErrCheckoutInProgress.
func (s *IdempotencyStore) Begin(ctx context.Context, customerID uint, key string) (*Report, error) {
	k := idemKey(customerID, key)

	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.claimTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; let the caller retry the claim.
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if raw == pendingMarker {
		return nil, ErrCheckoutInProgress
	}

	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to decode stored checkout report: %w", err)
	}
	return &report, nil
}

// Save stores the finished report under the claimed key
func (s *IdempotencyStore) Save(ctx context.Context, customerID uint, key string, report *Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode checkout report: %w", err)
	}
	if err := s.client.Set(ctx, idemKey(customerID, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout report: %w", err)
	}
	return nil
}

// Release drops a claim whose checkout failed before producing a report
func (s *IdempotencyStore) Release(ctx context.Context, customerID uint, key string) error {
	return s.client.Del(ctx, idemKey(customerID, key)).Err()
}
