package memory

import (
	"context"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func (r EventRepo) Append(ctx context.Context, playerID string, events []planet.DomainEvent) error {
	defer r.store.lock(ctx, true)()
	r.store.events[playerID] = append(r.store.events[playerID], events...)
	return nil
}

func (r EventRepo) ListByPlayerID(ctx context.Context, playerID string, limit int) ([]planet.DomainEvent, error) {
	defer r.store.lock(ctx, false)()
	stored := r.store.events[playerID]
	if len(stored) == 0 {
		return nil, ports.ErrNotFound
	}
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}
	out := make([]planet.DomainEvent, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}
