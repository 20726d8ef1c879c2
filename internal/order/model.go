package order

import (
	"github.com/shopspring/decimal"

	"BasketStore/internal/basket"
)

// Record is the durable row: the item list is kept as a versioned JSON
// payload next to the relational columns.
type Record struct {
	ID     int64
	UserID int
	Total  decimal.Decimal
	Items  string
}

// Order is the view assembled from a Record. Total is always recomputed
// from the decoded items; the stored column is a denormalized copy.
type Order struct {
	ID    int64           `json:"id"`
	Items []basket.Item   `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// History is the response shape of the completed-orders listing.
type History struct {
	Orders  []Order         `json:"orders"`
	Balance decimal.Decimal `json:"balance"`
}
