// internal/database/lazy_test.go
//
// Unit-tests for the lazy pool using sqlmock-backed openers.
//
// Run: go test ./internal/database -v

package database

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func mockOpener(t *testing.T, calls *int32, gate <-chan struct{}) OpenFunc {
	t.Helper()
	return func(context.Context) (*sqlx.DB, error) {
		atomic.AddInt32(calls, 1)
		if gate != nil {
			<-gate
		}
		db, _, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, "sqlmock"), nil
	}
}

func TestLazy_NothingOpenedUntilGet(t *testing.T) {
	var calls int32
	l := NewLazy(mockOpener(t, &calls, nil))
	if l.Opened() || atomic.LoadInt32(&calls) != 0 {
		t.Fatal("pool opened before first Get")
	}

	db1, err := l.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	db2, _ := l.Get(context.Background())
	if db1 != db2 {
		t.Fatal("second Get returned a different pool")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("open calls = %d, want 1", got)
	}
	_ = l.Close()
}

func TestLazy_ConcurrentFirstUseOpensOnce(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	l := NewLazy(mockOpener(t, &calls, gate))

	const n = 16
	var wg sync.WaitGroup
	pools := make([]*sqlx.DB, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := l.Get(context.Background())
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			pools[i] = db
		}(i)
	}
	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("open calls = %d, want 1", got)
	}
	for i := 1; i < n; i++ {
		if pools[i] != pools[0] {
			t.Fatalf("goroutine %d got a different pool", i)
		}
	}
	_ = l.Close()
}

func TestLazy_FailedOpenIsRetried(t *testing.T) {
	var calls int32
	l := NewLazy(func(context.Context) (*sqlx.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		db, _, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, "sqlmock"), nil
	})

	if _, err := l.Get(context.Background()); err == nil {
		t.Fatal("expected first Get to fail")
	}
	if l.Opened() {
		t.Fatal("failed open must not publish a pool")
	}
	if _, err := l.Get(context.Background()); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	_ = l.Close()
}

func TestLazy_HookRunsOnceAndCanFail(t *testing.T) {
	var calls, hooks int32
	l := NewLazy(mockOpener(t, &calls, nil), func(context.Context, *sqlx.DB) error {
		atomic.AddInt32(&hooks, 1)
		return nil
	})
	for i := 0; i < 3; i++ {
		if _, err := l.Get(context.Background()); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if got := atomic.LoadInt32(&hooks); got != 1 {
		t.Fatalf("hook runs = %d, want 1", got)
	}
	_ = l.Close()

	failing := NewLazy(mockOpener(t, &calls, nil), func(context.Context, *sqlx.DB) error {
		return errors.New("migrate failed")
	})
	if _, err := failing.Get(context.Background()); err == nil {
		t.Fatal("expected hook failure to surface")
	}
	if failing.Opened() {
		t.Fatal("pool published despite hook failure")
	}
}

func TestLazy_OpenSurvivesCancelledCaller(t *testing.T) {
	var seen error
	l := NewLazy(func(ctx context.Context) (*sqlx.DB, error) {
		seen = ctx.Err()
		db, _, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(db, "sqlmock"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Get(ctx); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if seen != nil {
		t.Fatalf("open saw cancelled context: %v", seen)
	}
	_ = l.Close()
}

func TestWithPassword(t *testing.T) {
	dsn := "gatehouse@tcp(127.0.0.1:3306)/gatehouse?parseTime=true"

	got, err := WithPassword(dsn, "s3cret")
	if err != nil {
		t.Fatalf("WithPassword: %v", err)
	}
	if !strings.HasPrefix(got, "gatehouse:s3cret@tcp(127.0.0.1:3306)/gatehouse") {
		t.Fatalf("dsn = %q", got)
	}

	same, _ := WithPassword(dsn, "")
	if same != dsn {
		t.Fatalf("empty password changed dsn: %q", same)
	}

	if _, err := WithPassword("not a dsn", "x"); err == nil {
		t.Fatal("expected parse error")
	}
}
