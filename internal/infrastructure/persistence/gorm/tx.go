package gorm

import (
	"context"
	"fmt"

	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"gorm.io/gorm"
)

type txKey struct{}

// Transactor implements outbound.Transactor on top of gorm transactions.
// The open transaction travels in the context handed to the unit of work.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a new transactor
func NewTransactor(db *gorm.DB) outbound.Transactor {
	return &Transactor{db: db}
}

// WithinTransaction runs fn in a transaction, committing only when fn returns
// nil. Nested calls join the outer transaction.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if fn == nil {
		return nil
	}
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	defer func() {
		// gorm rolls back on panic and re-panics; surface it as an error instead
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction aborted: %v", r)
		}
	}()

	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
