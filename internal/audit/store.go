// internal/audit/store.go
//
// Append-only trail of authentication actions.
//
// Context
// -------
// When audit.enabled is set, every dispatcher outcome becomes one row:
//
//	auth_event (id PK, action, outcome, remote_ip, request_id,
//	            browser, os, device, is_bot, country, occurred_at)
//
// Credentials never reach this table; an event only says which action ran,
// how it ended, for which request, and what kind of client sent it.  The pool is the process-wide
// database.Lazy, so nothing connects until the first event, and Migrate is
// registered as its open hook.
//
// Notes
// -----
// • Recording is best-effort.  Callers log a failed Record and carry on.
// • Oxford commas, two spaces after periods.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/gatehouse/internal/database"
)

// Event is one auth_event row.
type Event struct {
	Action     string    `db:"action"`
	Outcome    string    `db:"outcome"`
	RemoteIP   string    `db:"remote_ip"`
	RequestID  string    `db:"request_id"`
	Browser    string    `db:"browser"`
	OS         string    `db:"os"`
	Device     string    `db:"device"`
	IsBot      bool      `db:"is_bot"`
	Country    string    `db:"country"`
	OccurredAt time.Time `db:"occurred_at"`
}

const schema = `CREATE TABLE IF NOT EXISTS auth_event (
    id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    action      VARCHAR(16)  NOT NULL,
    outcome     VARCHAR(16)  NOT NULL,
    remote_ip   VARCHAR(45)  NOT NULL DEFAULT '',
    request_id  VARCHAR(64)  NOT NULL DEFAULT '',
    browser     VARCHAR(32)  NOT NULL DEFAULT '',
    os          VARCHAR(32)  NOT NULL DEFAULT '',
    device      VARCHAR(16)  NOT NULL DEFAULT '',
    is_bot      BOOLEAN      NOT NULL DEFAULT FALSE,
    country     CHAR(2)      NOT NULL DEFAULT '',
    occurred_at DATETIME(6)  NOT NULL,
    KEY idx_auth_event_occurred (occurred_at)
)`

const insertEvent = `INSERT INTO auth_event ` +
	`(action, outcome, remote_ip, request_id, browser, os, device, is_bot, country, occurred_at) ` +
	`VALUES (:action, :outcome, :remote_ip, :request_id, :browser, :os, :device, :is_bot, :country, :occurred_at)`

// Migrate creates the table when missing.  Its signature matches
// database.Hook.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Store writes events through the shared pool.
type Store struct {
	db *database.Lazy
}

// New wraps db.  Register Migrate as db’s hook when constructing it.
func New(db *database.Lazy) *Store {
	return &Store{db: db}
}

// Record inserts ev.  A zero OccurredAt is stamped with the current UTC time.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.Action == "" || ev.Outcome == "" {
		return errors.New("audit: action and outcome are required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	db, err := s.db.Get(ctx)
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, insertEvent, ev)
	return err
}
