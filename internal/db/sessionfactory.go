package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ErrSessionFactoryClosed is carried by sessions opened after Close.
var ErrSessionFactoryClosed = errors.New("session factory is closed")

// SessionFactory hands out gorm sessions over a migrated data source.
type SessionFactory struct {
	db         *gorm.DB
	dataSource *DataSource
	models     []any
	properties Properties
	cache      SecondLevelCache

	mu     sync.RWMutex
	closed bool
}

type txContextKey struct{}

// Session returns a gorm session bound to ctx. Inside Transaction, ctx carries
// the transaction and the session joins it. Sessions from a closed factory
// fail every operation with ErrSessionFactoryClosed.
func (f *SessionFactory) Session(ctx context.Context) *gorm.DB {
	base := f.db
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		base = tx
	}
	session := base.WithContext(ctx)
	if f.IsClosed() {
		_ = session.AddError(ErrSessionFactoryClosed)
	}
	return session
}

// Transaction runs fn in a database transaction, committing when it returns
// nil. The ctx passed to fn carries the transaction, so stores handed that ctx
// and this factory write inside it. Nested calls use savepoints.
func (f *SessionFactory) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if f.IsClosed() {
		return ErrSessionFactoryClosed
	}
	return f.Session(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txContextKey{}, tx)
		return fn(txCtx, tx.WithContext(txCtx))
	})
}

// InTransaction reports whether ctx was handed out by Transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return ok
}

// Models returns the mapped models in registration order.
func (f *SessionFactory) Models() []any {
	return append([]any(nil), f.models...)
}

func (f *SessionFactory) DataSource() *DataSource {
	return f.dataSource
}

func (f *SessionFactory) Properties() Properties {
	return f.properties.Clone()
}

// Cache returns the second-level cache. It is never nil.
func (f *SessionFactory) Cache() SecondLevelCache {
	return f.cache
}

// Close releases the data source. Closing twice is a no-op.
func (f *SessionFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.dataSource.Close(); err != nil {
		return fmt.Errorf("failed to close data source: %w", err)
	}
	return nil
}

func (f *SessionFactory) IsClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}
