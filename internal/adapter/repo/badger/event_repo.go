package badgerrepo

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"sourplanet/internal/app/ports"
	"sourplanet/internal/domain/planet"
)

type EventRepo struct {
	store *Store
}

func NewEventRepo(store *Store) EventRepo {
	return EventRepo{store: store}
}

func eventPrefix(playerID string) []byte {
	return []byte("event/" + playerID + "/")
}

// eventKey orders a player's events by append sequence; big-endian keeps byte order numeric.
func eventKey(playerID string, seq uint64) []byte {
	key := eventPrefix(playerID)
	return binary.BigEndian.AppendUint64(key, seq)
}

func (r EventRepo) Append(ctx context.Context, playerID string, events []planet.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.store.update(ctx, func(txn *badger.Txn) error {
		for _, evt := range events {
			seq, err := r.store.seq.Next()
			if err != nil {
				return fmt.Errorf("next event sequence: %w", err)
			}
			b, err := json.Marshal(evt)
			if err != nil {
				return fmt.Errorf("encode %s event: %w", evt.Type, err)
			}
			if err := txn.Set(eventKey(playerID, seq), b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r EventRepo) ListByPlayerID(ctx context.Context, playerID string, limit int) ([]planet.DomainEvent, error) {
	prefix := eventPrefix(playerID)
	var out []planet.DomainEvent
	err := r.store.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := eventKey(playerID, ^uint64(0))
		for it.Seek(seek); it.Valid(); it.Next() {
			var evt planet.DomainEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &evt)
			}); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			out = append(out, evt)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ports.ErrNotFound
	}
	return out, nil
}
