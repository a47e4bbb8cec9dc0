package memory

import (
	"context"
	"sync"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type Store struct {
	mu          sync.RWMutex
	state       map[string]planet.SessionState
	events      map[string][]planet.DomainEvent
	credentials map[string]ports.PlayerCredentialRecord
}

func NewStore() *Store {
	return &Store{
		state:       make(map[string]planet.SessionState),
		events:      make(map[string][]planet.DomainEvent),
		credentials: make(map[string]ports.PlayerCredentialRecord),
	}
}

func (s *Store) SeedState(state planet.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[state.PlayerID] = cloneState(state)
}

type txKeyType struct{}

var txKey = txKeyType{}

// lock takes the store lock unless ctx already runs inside this store's transaction, which
// holds the write lock for its whole duration.
func (s *Store) lock(ctx context.Context, write bool) func() {
	if held, _ := ctx.Value(txKey).(*Store); held == s {
		return func() {}
	}
	if write {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func cloneState(state planet.SessionState) planet.SessionState {
	counts := make(map[string]int, len(state.Snapshot.UpgradeCounts))
	for id, n := range state.Snapshot.UpgradeCounts {
		counts[id] = n
	}
	state.Snapshot.UpgradeCounts = counts
	return state
}
