package basket

import "sync"

// userLocks serializes basket mutations per user so that two requests for
// the same user never interleave their read-modify-write cycles against the
// cache. Entries are never evicted; the map is bounded by the user
// population.
type userLocks struct {
	mu sync.Mutex
	m  map[int]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{m: map[int]*sync.Mutex{}}
}

// lock acquires the user's mutex and returns the release func.
func (l *userLocks) lock(userID int) func() {
	l.mu.Lock()
	um, ok := l.m[userID]
	if !ok {
		um = &sync.Mutex{}
		l.m[userID] = um
	}
	l.mu.Unlock()

	um.Lock()
	return um.Unlock
}
