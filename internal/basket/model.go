package basket

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is a basket line. ProductID is the only identity an item has inside
// a basket; a basket holds at most one item per ProductID.
type Item struct {
	ProductName string          `json:"productName"`
	ProductID   string          `json:"productId"`
	Count       int             `json:"count"`
	Price       decimal.Decimal `json:"price"`
}

// Cost is the item's contribution to the basket total.
func (it Item) Cost() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Count)))
}

// Basket is the per-user cached value. RemainingBalance is derived from the
// owner's current balance and recomputed on every read and write.
type Basket struct {
	Items            []Item          `json:"items"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

func (b Basket) itemIndex(productID string) int {
	for i, it := range b.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func sumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Cost())
	}
	return total
}

const maxProductNameLen = 255

// ProductIDPattern matches six single digits separated by hyphens,
// e.g. "1-2-3-4-5-6".
var ProductIDPattern = regexp.MustCompile(`^\d-\d-\d-\d-\d-\d$`)

var (
	minPrice = decimal.NewFromInt(10)
	maxPrice = decimal.NewFromInt(100)
)

// ValidationError collects per-field messages for a rejected item.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid item: " + strings.Join(parts, "; ")
}

// Validate applies the input constraints every item-bearing request must
// satisfy before it reaches the service.
func (it Item) Validate() error {
	fields := map[string]string{}

	if it.ProductName == "" {
		fields["productName"] = "required"
	} else if len(it.ProductName) > maxProductNameLen {
		fields["productName"] = fmt.Sprintf("must not exceed %d characters", maxProductNameLen)
	}

	if !ProductIDPattern.MatchString(it.ProductID) {
		fields["productId"] = "must be six digits separated by hyphens, e.g. 1-2-3-4-5-6"
	}

	if it.Count < 1 {
		fields["count"] = "must be at least 1"
	}

	if it.Price.LessThan(minPrice) || it.Price.GreaterThan(maxPrice) {
		fields["price"] = "must be between 10 and 100"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
