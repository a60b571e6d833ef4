package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

type (
	ctxKey   struct{}
	hooksKey struct{}
)

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// CommitHooks collects work that must only happen once the enclosing unit of
// work has committed, such as publishing notifications.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks returns ctx carrying a hook list. When ctx already carries
// one it is reused and owned is false; only the owner runs the hooks.
func WithCommitHooks(ctx context.Context) (_ context.Context, hooks *CommitHooks, owned bool) {
	if existing, ok := ctx.Value(hooksKey{}).(*CommitHooks); ok {
		return ctx, existing, false
	}
	hooks = &CommitHooks{}
	return context.WithValue(ctx, hooksKey{}, hooks), hooks, true
}

// AfterCommit defers fn until the unit of work on ctx commits. Without an
// enclosing unit of work fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(hooksKey{}).(*CommitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}

// Run executes the registered hooks in registration order, once.
func (h *CommitHooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Discard drops the registered hooks after a failed unit of work.
func (h *CommitHooks) Discard() {
	h.mu.Lock()
	h.fns = nil
	h.mu.Unlock()
}

// Runner wraps one unit of work in a transactional boundary.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough runs fn directly, for stores without transactions.
type Passthrough struct{}

func (Passthrough) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, hooks, owned := WithCommitHooks(ctx)
	if err := fn(ctx); err != nil {
		if owned {
			hooks.Discard()
		}
		return err
	}
	if owned {
		hooks.Run()
	}
	return nil
}

const defaultTxTimeout = 5 * time.Second

// SQLRunner commits fn's writes when it returns nil and rolls back otherwise.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB, timeout time.Duration) *SQLRunner {
	return &SQLRunner{db: db, timeout: timeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, hooks, owned := WithCommitHooks(ctx)
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		if owned {
			hooks.Discard()
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if owned {
			hooks.Discard()
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	if owned {
		hooks.Run()
	}
	return nil
}
