package memory

import (
	"context"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serialises fn against every other transaction and repository call on the store.
// Writes made before fn returns an error are discarded.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, _ := ctx.Value(txKey).(*Store); held == t.store {
		return fn(ctx)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	state := make(map[string]planet.SessionState, len(t.store.state))
	for k, v := range t.store.state {
		state[k] = v
	}
	events := make(map[string][]planet.DomainEvent, len(t.store.events))
	for k, v := range t.store.events {
		events[k] = v[:len(v):len(v)]
	}

	credentials := make(map[string]ports.PlayerCredentialRecord, len(t.store.credentials))
	for k, v := range t.store.credentials {
		credentials[k] = v
	}

	if err := fn(context.WithValue(ctx, txKey, t.store)); err != nil {
		t.store.state = state
		t.store.events = events
		t.store.credentials = credentials
		return err
	}
	return nil
}
