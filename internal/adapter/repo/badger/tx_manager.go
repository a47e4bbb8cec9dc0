package badgerrepo

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx commits when fn succeeds and discards every write otherwise. Badger detects
// conflicting concurrent transactions at commit and returns badger.ErrConflict, which is
// reported as ports.ErrConflict.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txn, ok := ctx.Value(txKey{}).(*badger.Txn); ok && txn != nil {
		return fn(ctx)
	}
	err := t.store.db.Update(func(txn *badger.Txn) error {
		return fn(context.WithValue(ctx, txKey{}, txn))
	})
	return mapErr(err)
}
