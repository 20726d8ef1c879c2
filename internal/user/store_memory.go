package user

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[int]User
}

func NewMemStore(users ...User) *MemStore {
	s := &MemStore{m: map[int]User{}}
	for _, u := range users {
		s.m[u.ID] = u
	}
	return s
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) FindByID(_ context.Context, id int) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.m[id]
	return u, ok, nil
}

func (s *MemStore) Put(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.ID] = u
}

// Debit subtracts amount from the user's balance if it is covered.
// The order memory store uses it to mirror the conditional UPDATE the
// Postgres store runs inside its checkout transaction.
func (s *MemStore) Debit(id int, amount decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.m[id]
	if !ok || u.Balance.LessThan(amount) {
		return false
	}
	u.Balance = u.Balance.Sub(amount)
	s.m[id] = u
	return true
}
