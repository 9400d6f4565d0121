// internal/database/lazy.go
//
// Lazily opened, process-wide pool.
//
// Context
// -------
// The composition root constructs exactly one Lazy and hands it to every
// consumer (today the audit store).  Nothing touches the network until the
// first Get.  Concurrent first callers are collapsed through singleflight
// so only one open runs, and the winner's pool is shared for the life of
// the process.  A failed open stores nothing, so the next Get tries again.
//
// Hooks run once, right after a successful open and before the pool is
// published (schema bootstrap, for example).  A failing hook closes the
// pool and fails the Get.

package database

import (
	"context"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/gatehouse/internal/metrics"
)

// OpenFunc produces a ready pool.
type OpenFunc func(ctx context.Context) (*sqlx.DB, error)

// Hook runs against a freshly opened pool.
type Hook func(ctx context.Context, db *sqlx.DB) error

// Lazy holds at most one pool.  Zero value is unusable; construct with
// NewLazy or LazyDSN.
type Lazy struct {
	open  OpenFunc
	hooks []Hook
	sfg   singleflight.Group
	db    atomic.Pointer[sqlx.DB]
}

// NewLazy wraps open.  Nothing is opened yet.
func NewLazy(open OpenFunc, hooks ...Hook) *Lazy {
	return &Lazy{open: open, hooks: hooks}
}

// LazyDSN is NewLazy over OpenWithOptions.
func LazyDSN(dsn string, opts Options, hooks ...Hook) *Lazy {
	return NewLazy(func(ctx context.Context) (*sqlx.DB, error) {
		return OpenWithOptions(ctx, dsn, opts)
	}, hooks...)
}

// Get returns the shared pool, opening it on first use.
func (l *Lazy) Get(ctx context.Context) (*sqlx.DB, error) {
	if db := l.db.Load(); db != nil {
		return db, nil
	}

	// The open outlives the request that happened to trigger it.
	openCtx := context.WithoutCancel(ctx)

	v, err, _ := l.sfg.Do("open", func() (any, error) {
		// Double-check after singleflight barrier.
		if db := l.db.Load(); db != nil {
			return db, nil
		}
		db, err := l.open(openCtx)
		if err != nil {
			metrics.DBOpens.WithLabelValues("error").Inc()
			return nil, err
		}
		for _, h := range l.hooks {
			if err := h(openCtx, db); err != nil {
				_ = db.Close()
				metrics.DBOpens.WithLabelValues("error").Inc()
				return nil, err
			}
		}
		l.db.Store(db)
		metrics.DBOpens.WithLabelValues("ok").Inc()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

// Opened reports whether a pool has been published.
func (l *Lazy) Opened() bool { return l.db.Load() != nil }

// Close releases the pool if one was opened.  A later Get reopens.
func (l *Lazy) Close() error {
	if db := l.db.Swap(nil); db != nil {
		return db.Close()
	}
	return nil
}
