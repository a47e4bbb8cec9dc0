package gormrepo

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager binds a *gorm.DB transaction to ctx. Repositories pick it up through dbFromCtx.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return TxManager{db: db}
}

// RunInTx runs fn in one database transaction. Nested calls join the outer transaction.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromCtx(ctx) != nil {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromCtx(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// dbFromCtx returns the transaction opened by TxManager when ctx carries one, otherwise base
// bound to ctx.
func dbFromCtx(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx := txFromCtx(ctx); tx != nil {
		return tx
	}
	return base.WithContext(ctx)
}
