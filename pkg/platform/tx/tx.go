// Package tx carries an open *sql.Tx through the context so that Postgres
// stores join the transaction started by database.TxRunner.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

type hooksKey struct{}

type commitHooks struct {
	mu   sync.Mutex
	fns  []func()
	done bool
}

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, tx)
}

func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return tx, ok
}

// Conn returns the transaction in ctx, or db outside one.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// WithCommitHooks lets code running under ctx defer work with AfterCommit.
// The returned run executes the deferred work in order; call it only once
// the transaction has committed. A ctx that already collects hooks is kept,
// so nested transactions defer to the outermost commit.
func WithCommitHooks(ctx context.Context) (context.Context, func()) {
	if _, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		return ctx, func() {}
	}
	h := &commitHooks{}
	run := func() {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.done = true
		h.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
	return context.WithValue(ctx, hooksKey{}, h), run
}

// AfterCommit defers fn until the enclosing transaction commits. Outside a
// transaction fn runs immediately. Rolled back transactions drop fn.
func AfterCommit(ctx context.Context, fn func()) {
	h, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		fn()
		return
	}
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}
