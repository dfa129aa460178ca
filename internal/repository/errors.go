// Package repository implements the engine's persistence: read-only
// reference data (theatres, templates, pricing, schedules, holidays), the
// seat inventory stores and the ticket ledger.  MySQL, Redis and in-memory
// backends live side by side; the service layer only sees interfaces.
//
// Driver errors are translated at this boundary: a missing row becomes
// model.ErrNotFound and a rejected state change becomes one of the other
// model sentinels, so handlers never inspect driver types.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// ErrConflict is returned when an insert collides with an existing row,
// such as a ticket ID that was already used.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// notFound wraps model.ErrNotFound with what was looked up.
func notFound(what string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(what, args...), model.ErrNotFound)
}

// translate maps sql.ErrNoRows and duplicate-key errors onto the shared
// sentinels and leaves everything else untouched.
func translate(err error, what string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(what, args...)
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%s: %w", fmt.Sprintf(what, args...), ErrConflict)
	}
	return err
}
