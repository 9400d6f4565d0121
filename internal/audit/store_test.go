// internal/audit/store_test.go
//
// Unit-tests for the audit store using sqlmock.
//
// Run: go test ./internal/audit -v

package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/gatehouse/internal/database"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	lazy := database.NewLazy(func(context.Context) (*sqlx.DB, error) {
		return sqlx.NewDb(db, "mysql"), nil
	}, Migrate)
	return New(lazy), mock
}

func TestRecord_MigratesOnceThenInserts(t *testing.T) {
	s, mock := newStore(t)
	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS auth_event")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	insert := regexp.QuoteMeta(
		`INSERT INTO auth_event (action, outcome, remote_ip, request_id, browser, os, device, is_bot, country, occurred_at) ` +
			`VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	mock.ExpectExec(insert).
		WithArgs("sign-in", "success", "203.0.113.9", "req-1", "Chrome", "macOS", "Desktop", false, "US", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).
		WithArgs("sign-out", "error", "", "", "", "", "", false, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))

	ctx := context.Background()
	if err := s.Record(ctx, Event{
		Action: "sign-in", Outcome: "success",
		RemoteIP: "203.0.113.9", RequestID: "req-1",
		Browser: "Chrome", OS: "macOS", Device: "Desktop", Country: "US",
		OccurredAt: at,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(ctx, Event{Action: "sign-out", Outcome: "error"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRecord_MigrateErrorSurfaces(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("access denied"))
	mock.ExpectClose()
	if err := s.Record(context.Background(), Event{Action: "sign-up", Outcome: "rejected"}); err == nil {
		t.Fatal("expected migrate error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRecord_InsertErrorSurfaces(t *testing.T) {
	s, mock := newStore(t)

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO auth_event").WillReturnError(errors.New("disk full"))
	if err := s.Record(context.Background(), Event{Action: "sign-up", Outcome: "rejected"}); err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRecord_RequiresActionAndOutcome(t *testing.T) {
	s, mock := newStore(t)
	if err := s.Record(context.Background(), Event{Action: "sign-in"}); err == nil {
		t.Fatal("expected error for missing outcome")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store touched the database: %v", err)
	}
}
