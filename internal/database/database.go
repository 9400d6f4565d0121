// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB and TiDB.
//
// Public entry points:
//
//	Open(ctx, dsn)                     – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts)    – fine-grained control plus ping retries.
//	WithPassword(dsn, pw)              – inject a secret into a template DSN.
//	NewLazy / LazyDSN                  – process-wide pool opened on first use.
//
// Open helpers Ping the database before returning so callers can fail fast.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tunes one pool.  Zero values fall back to DefaultOptions.
type Options struct {
	Driver          string // sqlx driver name, "mysql" when empty
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // sleep between ping attempts
}

// DefaultOptions returns 15 max open, 5 idle, a 30-minute connection
// lifetime, and two ping retries half a second apart.
func DefaultOptions() Options {
	return Options{
		Driver:          "mysql",
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Retries:         2,
		RetryBackoff:    500 * time.Millisecond,
	}
}

// Open returns a *sqlx.DB built with DefaultOptions.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, DefaultOptions())
}

// OpenWithOptions opens a pool and pings it, retrying opts.Retries times.
// The pool is closed again when every ping fails.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	def := DefaultOptions()
	if opts.Driver == "" {
		opts.Driver = def.Driver
	}
	if opts.ConnMaxLifetime == 0 {
		opts.ConnMaxLifetime = def.ConnMaxLifetime
	}

	db, err := sqlx.Open(opts.Driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= opts.Retries {
			break
		}
		if !sleep(ctx, opts.RetryBackoff) {
			err = ctx.Err()
			break
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database ping: %w", err)
}

// WithPassword returns dsn with its password replaced by pw.  An empty pw
// leaves the DSN untouched.
func WithPassword(dsn, pw string) (string, error) {
	if pw == "" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.Passwd = pw
	return cfg.FormatDSN(), nil
}

// sleep waits d or until ctx is done; false means ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
