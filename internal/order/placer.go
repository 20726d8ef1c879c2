package order

import (
	"context"

	"github.com/shopspring/decimal"

	"BasketStore/internal/basket"
)

// Placer adapts the order store to the basket service's OrderPlacer
// interface: it owns the payload encoding and translates store errors into
// the basket error taxonomy.
type Placer struct {
	store Store
}

func NewPlacer(store Store) *Placer {
	return &Placer{store: store}
}

func (p *Placer) Place(ctx context.Context, userID int, total decimal.Decimal, items []basket.Item) (basket.PlacedOrder, error) {
	payload, err := encodeItems(items)
	if err != nil {
		return basket.PlacedOrder{}, err
	}

	rec, err := p.store.Checkout(ctx, userID, total, payload)
	switch err {
	case nil:
	case ErrInsufficientBalance:
		return basket.PlacedOrder{}, basket.ErrInsufficientFunds
	case ErrUnknownUser:
		return basket.PlacedOrder{}, basket.ErrUserNotFound
	default:
		return basket.PlacedOrder{}, err
	}

	return basket.PlacedOrder{ID: rec.ID, Items: items, Total: rec.Total}, nil
}
