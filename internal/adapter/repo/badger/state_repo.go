package badgerrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type PlanetStateRepo struct {
	store *Store
}

func NewPlanetStateRepo(store *Store) PlanetStateRepo {
	return PlanetStateRepo{store: store}
}

func stateKey(playerID string) []byte {
	return []byte("state/" + playerID)
}

func (r PlanetStateRepo) GetByPlayerID(ctx context.Context, playerID string) (planet.SessionState, error) {
	var state planet.SessionState
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		var err error
		state, err = readState(txn, playerID)
		return err
	})
	return state, mapErr(err)
}

func (r PlanetStateRepo) SaveWithVersion(ctx context.Context, state planet.SessionState, expectedVersion int64) error {
	err := r.store.update(ctx, func(txn *badger.Txn) error {
		current, err := readState(txn, state.PlayerID)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if expectedVersion != 0 {
				return ports.ErrConflict
			}
		case err != nil:
			return err
		case expectedVersion == 0 || current.Version != expectedVersion:
			return ports.ErrConflict
		}
		b, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode state %s: %w", state.PlayerID, err)
		}
		return txn.Set(stateKey(state.PlayerID), b)
	})
	return mapErr(err)
}

// ListPlayerIDs returns every stored player id in key order.
func (r PlanetStateRepo) ListPlayerIDs(ctx context.Context) ([]string, error) {
	prefix := []byte("state/")
	var ids []string
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

func readState(txn *badger.Txn, playerID string) (planet.SessionState, error) {
	item, err := txn.Get(stateKey(playerID))
	if err != nil {
		return planet.SessionState{}, err
	}
	var state planet.SessionState
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &state)
	})
	if err != nil {
		return planet.SessionState{}, fmt.Errorf("decode state %s: %w", playerID, err)
	}
	return state, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ports.ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %w", ports.ErrConflict, err)
	default:
		return err
	}
}
