package memory

import (
	"context"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type PlanetStateRepo struct {
	store *Store
}

func NewPlanetStateRepo(store *Store) PlanetStateRepo {
	return PlanetStateRepo{store: store}
}

func (r PlanetStateRepo) GetByPlayerID(ctx context.Context, playerID string) (planet.SessionState, error) {
	defer r.store.lock(ctx, false)()
	state, ok := r.store.state[playerID]
	if !ok {
		return planet.SessionState{}, ports.ErrNotFound
	}
	return cloneState(state), nil
}

func (r PlanetStateRepo) SaveWithVersion(ctx context.Context, state planet.SessionState, expectedVersion int64) error {
	defer r.store.lock(ctx, true)()
	current, ok := r.store.state[state.PlayerID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.store.state[state.PlayerID] = cloneState(state)
		return nil
	}
	if expectedVersion == 0 || current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.store.state[state.PlayerID] = cloneState(state)
	return nil
}
