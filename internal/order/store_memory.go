package order

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"BasketStore/internal/user"
)

// MemStore keeps orders in memory and debits balances through the user
// memory store, mirroring the single-transaction semantics of the Postgres
// store under one mutex.
type MemStore struct {
	mu    sync.RWMutex
	seq   int64
	recs  []Record
	users *user.MemStore
}

func NewMemStore(users *user.MemStore) *MemStore {
	return &MemStore{users: users}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Checkout(_ context.Context, userID int, total decimal.Decimal, itemsPayload string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.users.Debit(userID, total) {
		return Record{}, ErrInsufficientBalance
	}

	s.seq++
	rec := Record{ID: s.seq, UserID: userID, Total: total, Items: itemsPayload}
	s.recs = append(s.recs, rec)
	return rec, nil
}

func (s *MemStore) ListByUser(_ context.Context, userID int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, 4)
	for _, rec := range s.recs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemStore) Get(_ context.Context, id int64) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.recs {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// Corrupt overwrites a stored record's items payload; used by tests to
// exercise the data-integrity path.
func (s *MemStore) Corrupt(id int64, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recs {
		if s.recs[i].ID == id {
			s.recs[i].Items = payload
		}
	}
}
