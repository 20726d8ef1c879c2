package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"BasketStore/internal/user"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrNotOwner      = errors.New("order belongs to another user")
)

// DataError reports a stored order whose items payload failed to decode.
// It fails the whole read instead of silently dropping the record.
type DataError struct {
	RecordID int64
	Err      error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("order %d has a corrupt items payload: %v", e.RecordID, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

type Service struct {
	users user.Store
	store Store
	log   *zap.Logger
}

func NewService(users user.Store, store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, store: store, log: log}
}

// Completed assembles the user's order history plus their current balance.
func (s *Service) Completed(ctx context.Context, userID int) (History, error) {
	u, found, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return History{}, err
	}
	if !found {
		return History{}, ErrUserNotFound
	}

	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return History{}, err
	}

	orders := make([]Order, 0, len(recs))
	for _, rec := range recs {
		o, err := s.assemble(rec)
		if err != nil {
			return History{}, err
		}
		orders = append(orders, o)
	}

	s.log.Info("order history assembled",
		zap.Int("user_id", userID),
		zap.Int("orders", len(orders)))
	return History{Orders: orders, Balance: u.Balance}, nil
}

// ByID returns a single order, enforcing ownership.
func (s *Service) ByID(ctx context.Context, userID int, orderID int64) (Order, error) {
	rec, found, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !found {
		return Order{}, ErrOrderNotFound
	}
	if rec.UserID != userID {
		return Order{}, ErrNotOwner
	}
	return s.assemble(rec)
}

// assemble decodes the items payload and recomputes the total from it; the
// stored total column is never trusted on read.
func (s *Service) assemble(rec Record) (Order, error) {
	items, err := decodeItems(rec.Items)
	if err != nil {
		s.log.Error("corrupt order payload",
			zap.Int64("order_id", rec.ID), zap.Error(err))
		return Order{}, &DataError{RecordID: rec.ID, Err: err}
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Cost())
	}
	return Order{ID: rec.ID, Items: items, Total: total}, nil
}
