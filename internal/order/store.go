package order

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientBalance means the conditional debit matched no row:
	// the balance no longer covers the order total.
	ErrInsufficientBalance = errors.New("balance below order total")

	// ErrUnknownUser means the order row could not reference the user.
	ErrUnknownUser = errors.New("unknown user")
)

type Store interface {
	// Checkout debits the user's balance and inserts the order in one
	// transaction; neither effect is observable without the other.
	Checkout(ctx context.Context, userID int, total decimal.Decimal, itemsPayload string) (Record, error)
	ListByUser(ctx context.Context, userID int) ([]Record, error)
	Get(ctx context.Context, id int64) (Record, bool, error)
	Ping(ctx context.Context) error
}
