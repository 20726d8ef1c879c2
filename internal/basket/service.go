package basket

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"BasketStore/internal/user"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrBasketNotFound    = errors.New("basket not found")
	ErrItemNotFound      = errors.New("item not in basket")
	ErrDuplicateItem     = errors.New("item already in basket")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrEmptyBasket       = errors.New("basket is empty")
	ErrBasketFull        = errors.New("basket holds the maximum number of items")
	ErrOrderTooLarge     = errors.New("order total above limit")
)

// Orders hold 1..10 items and at most 10000 in total; the item ceiling is
// enforced when adding, the total ceiling at checkout.
const maxBasketItems = 10

var maxOrderTotal = decimal.NewFromInt(10000)

// PlacedOrder is the durable result of a checkout.
type PlacedOrder struct {
	ID    int64           `json:"id"`
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// OrderPlacer persists a checkout atomically: the order insert and the
// conditional balance debit either both happen or neither does.
type OrderPlacer interface {
	Place(ctx context.Context, userID int, total decimal.Decimal, items []Item) (PlacedOrder, error)
}

type Service struct {
	users  user.Store
	cache  Cache
	orders OrderPlacer
	log    *zap.Logger
	locks  *userLocks
}

func NewService(users user.Store, cache Cache, orders OrderPlacer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:  users,
		cache:  cache,
		orders: orders,
		log:    log,
		locks:  newUserLocks(),
	}
}

func (s *Service) findUser(ctx context.Context, userID int) (user.User, error) {
	u, found, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if !found {
		return user.User{}, ErrUserNotFound
	}
	return u, nil
}

// emptyBasket is the shape an absent basket presents as.
func emptyBasket(balance decimal.Decimal) Basket {
	return Basket{
		Items:            []Item{},
		Total:            decimal.Zero,
		RemainingBalance: balance,
	}
}

// Get returns the user's cached basket, or a fresh empty one if none is
// cached. The remaining balance is always recomputed from the current user
// balance; reading never persists anything.
func (s *Service) Get(ctx context.Context, userID int) (Basket, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Basket{}, err
	}

	b, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return Basket{}, err
	}
	if !found {
		return emptyBasket(u.Balance), nil
	}

	b.RemainingBalance = u.Balance.Sub(b.Total)
	return b, nil
}

// Add appends an item to the basket, creating the basket if absent.
func (s *Service) Add(ctx context.Context, userID int, it Item) (Basket, error) {
	defer s.locks.lock(userID)()

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Basket{}, err
	}

	b, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return Basket{}, err
	}
	if !found {
		b = emptyBasket(u.Balance)
	} else if b.itemIndex(it.ProductID) >= 0 {
		return Basket{}, ErrDuplicateItem
	}

	if len(b.Items) >= maxBasketItems {
		return Basket{}, ErrBasketFull
	}

	cost := it.Cost()
	remaining := u.Balance.Sub(b.Total)
	if cost.GreaterThan(remaining) {
		s.log.Info("add rejected, balance exceeded",
			zap.Int("user_id", userID),
			zap.String("product_id", it.ProductID),
			zap.String("cost", cost.String()),
			zap.String("remaining", remaining.String()))
		return Basket{}, ErrInsufficientFunds
	}

	b.Items = append(b.Items, it)
	b.Total = b.Total.Add(cost)
	b.RemainingBalance = u.Balance.Sub(b.Total)

	if err := s.cache.Put(ctx, userID, b); err != nil {
		return Basket{}, err
	}

	s.log.Info("item added",
		zap.Int("user_id", userID),
		zap.String("product_id", it.ProductID),
		zap.String("total", b.Total.String()))
	return b, nil
}

// Remove drops the item with the given product id from the basket.
func (s *Service) Remove(ctx context.Context, userID int, productID string) (Basket, error) {
	defer s.locks.lock(userID)()

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Basket{}, err
	}

	b, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return Basket{}, err
	}
	if !found {
		return Basket{}, ErrBasketNotFound
	}

	i := b.itemIndex(productID)
	if i < 0 {
		return Basket{}, ErrItemNotFound
	}

	b.Total = b.Total.Sub(b.Items[i].Cost())
	b.Items = append(b.Items[:i], b.Items[i+1:]...)
	b.RemainingBalance = u.Balance.Sub(b.Total)

	if err := s.cache.Put(ctx, userID, b); err != nil {
		return Basket{}, err
	}

	s.log.Info("item removed",
		zap.Int("user_id", userID),
		zap.String("product_id", productID),
		zap.String("total", b.Total.String()))
	return b, nil
}

// Patch adds delta.Count to the stored item's count. The incoming price is
// authoritative for the total adjustment; checkout is the backstop for a
// total that outgrows the balance.
func (s *Service) Patch(ctx context.Context, userID int, productID string, delta Item) (Basket, error) {
	defer s.locks.lock(userID)()

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Basket{}, err
	}

	b, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return Basket{}, err
	}
	if !found {
		return Basket{}, ErrBasketNotFound
	}

	i := b.itemIndex(productID)
	if i < 0 {
		return Basket{}, ErrItemNotFound
	}

	b.Items[i].Count += delta.Count
	b.Total = b.Total.Add(delta.Cost())
	b.RemainingBalance = u.Balance.Sub(b.Total)

	if err := s.cache.Put(ctx, userID, b); err != nil {
		return Basket{}, err
	}

	s.log.Info("item count patched",
		zap.Int("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("count", b.Items[i].Count))
	return b, nil
}

// Clear persists an emptied basket; the entry stays alive until its TTL
// elapses, matching the post-clear NotFound semantics of item operations.
func (s *Service) Clear(ctx context.Context, userID int) (Basket, error) {
	defer s.locks.lock(userID)()

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Basket{}, err
	}

	_, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return Basket{}, err
	}
	if !found {
		return Basket{}, ErrBasketNotFound
	}

	b := emptyBasket(u.Balance)
	if err := s.cache.Put(ctx, userID, b); err != nil {
		return Basket{}, err
	}

	s.log.Info("basket cleared", zap.Int("user_id", userID))
	return b, nil
}

// Checkout snapshots the basket into a durable order, debits the user's
// balance and destroys the cached basket. The debit and the insert run in
// one transaction inside the order placer; the cache delete happens only
// after that commits, so a failed checkout leaves all stores untouched.
func (s *Service) Checkout(ctx context.Context, userID int) (PlacedOrder, error) {
	defer s.locks.lock(userID)()

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return PlacedOrder{}, err
	}

	b, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return PlacedOrder{}, err
	}
	if !found {
		return PlacedOrder{}, ErrBasketNotFound
	}

	total := sumItems(b.Items)
	if total.GreaterThan(u.Balance) {
		s.log.Info("checkout rejected, balance exceeded",
			zap.Int("user_id", userID),
			zap.String("total", total.String()),
			zap.String("balance", u.Balance.String()))
		return PlacedOrder{}, ErrInsufficientFunds
	}
	if len(b.Items) == 0 {
		return PlacedOrder{}, ErrEmptyBasket
	}
	if total.GreaterThan(maxOrderTotal) {
		return PlacedOrder{}, ErrOrderTooLarge
	}

	placed, err := s.orders.Place(ctx, userID, total, b.Items)
	if err != nil {
		return PlacedOrder{}, err
	}

	if err := s.cache.Delete(ctx, userID); err != nil {
		// The order is committed; the stale basket will expire on its own.
		s.log.Warn("basket delete after checkout failed",
			zap.Error(err), zap.Int("user_id", userID))
	}

	s.log.Info("checkout complete",
		zap.Int("user_id", userID),
		zap.Int64("order_id", placed.ID),
		zap.String("total", placed.Total.String()))
	return placed, nil
}
