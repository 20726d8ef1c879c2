package user

import (
	"context"

	"github.com/shopspring/decimal"
)

// User is an account seeded externally. Only checkout mutates the balance,
// and it does so inside the order store's transaction.
type User struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type Store interface {
	FindByID(ctx context.Context, id int) (User, bool, error)
	Ping(ctx context.Context) error
}
