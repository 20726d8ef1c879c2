package basket

import "context"

// Cache holds at most one Basket per user. Implementations apply a fixed
// TTL on every Put; an expired or never-written entry reads as absent.
type Cache interface {
	Get(ctx context.Context, userID int) (Basket, bool, error)
	Put(ctx context.Context, userID int, b Basket) error
	Delete(ctx context.Context, userID int) error
	Ping(ctx context.Context) error
}
