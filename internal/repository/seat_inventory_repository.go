package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-ticket-engine/internal/inventory"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// MySQL error numbers that mean "another transaction got there first";
// the transition is retried and then sees the winner's row.
const (
	mysqlDeadlock = 1213
	seatTxRetries = 3
)

// SeatInventoryRepo stores seat records in the seat_inventory table.  A seat
// without a row is FREE, so only HELD and SOLD rows exist.  Transitions run
// in a transaction holding row locks on the touched seats.
type SeatInventoryRepo struct {
	db *sql.DB
}

// NewSeatInventoryRepo returns a SeatInventoryRepo bound to db.
func NewSeatInventoryRepo(db *sql.DB) *SeatInventoryRepo { return &SeatInventoryRepo{db: db} }

var _ inventory.Store = (*SeatInventoryRepo)(nil)

// Seats returns every HELD or SOLD row of a showtime.
func (r *SeatInventoryRepo) Seats(ctx context.Context, key model.ShowtimeKey) (map[string]model.SeatRecord, error) {
	const q = `SELECT seat_id, state, holder_id, hold_token, expires_at, ticket_id
		FROM seat_inventory WHERE showtime_key = ?`
	rows, err := r.db.QueryContext(ctx, q, key.String())
	if err != nil {
		return nil, err
	}
	return scanSeatRecords(rows)
}

// Apply runs one transition atomically.  Deadlocks and duplicate inserts
// caused by a concurrent transition on the same seats are retried so the
// loser observes the winner's rows and fails with the proper domain error.
func (r *SeatInventoryRepo) Apply(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op inventory.Op, now time.Time) error {
	var err error
	for attempt := 0; attempt < seatTxRetries; attempt++ {
		err = r.applyOnce(ctx, key, seatIDs, op, now)
		if !isLockConflict(err) {
			return err
		}
	}
	return err
}

func (r *SeatInventoryRepo) applyOnce(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op inventory.Op, now time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := r.LockSeatsTx(ctx, tx, key, seatIDs)
	if err != nil {
		return err
	}
	writes, err := inventory.Plan(current, seatIDs, op, now)
	if err != nil {
		return err
	}
	if err = r.WriteSeatsTx(ctx, tx, key, writes); err != nil {
		return err
	}
	return tx.Commit()
}

// LockSeatsTx reads the rows of seatIDs with SELECT ... FOR UPDATE.  The
// caller must commit or roll back tx.
func (r *SeatInventoryRepo) LockSeatsTx(ctx context.Context, tx *sql.Tx, key model.ShowtimeKey, seatIDs []string) (map[string]model.SeatRecord, error) {
	if len(seatIDs) == 0 {
		return map[string]model.SeatRecord{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
	q := `SELECT seat_id, state, holder_id, hold_token, expires_at, ticket_id
		FROM seat_inventory WHERE showtime_key = ? AND seat_id IN (` + placeholders + `) FOR UPDATE`
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, key.String())
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSeatRecords(rows)
}

// WriteSeatsTx upserts HELD/SOLD records and deletes FREE ones.
func (r *SeatInventoryRepo) WriteSeatsTx(ctx context.Context, tx *sql.Tx, key model.ShowtimeKey, writes map[string]model.SeatRecord) error {
	const (
		qDelete = `DELETE FROM seat_inventory WHERE showtime_key = ? AND seat_id = ?`
		qUpsert = `INSERT INTO seat_inventory (showtime_key, seat_id, state, holder_id, hold_token, expires_at, ticket_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE state = VALUES(state), holder_id = VALUES(holder_id),
			hold_token = VALUES(hold_token), expires_at = VALUES(expires_at), ticket_id = VALUES(ticket_id)`
	)
	for id, rec := range writes {
		if rec.State == model.SeatFree {
			if _, err := tx.ExecContext(ctx, qDelete, key.String(), id); err != nil {
				return err
			}
			continue
		}
		var expires sql.NullTime
		if !rec.ExpiresAt.IsZero() {
			expires = sql.NullTime{Time: rec.ExpiresAt.UTC(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, qUpsert, key.String(), id, string(rec.State),
			rec.HolderID, rec.HoldToken, expires, rec.TicketID); err != nil {
			return err
		}
	}
	return nil
}

// Sweep deletes HELD rows whose expiry is at or before now.
func (r *SeatInventoryRepo) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_inventory WHERE state = 'HELD' AND expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanSeatRecords(rows *sql.Rows) (map[string]model.SeatRecord, error) {
	defer rows.Close()
	out := make(map[string]model.SeatRecord)
	for rows.Next() {
		var (
			rec     model.SeatRecord
			state   string
			expires sql.NullTime
		)
		if err := rows.Scan(&rec.SeatID, &state, &rec.HolderID, &rec.HoldToken, &expires, &rec.TicketID); err != nil {
			return nil, err
		}
		rec.State = model.SeatState(state)
		if expires.Valid {
			rec.ExpiresAt = expires.Time.UTC()
		}
		out[rec.SeatID] = rec
	}
	return out, rows.Err()
}

func isLockConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlDuplicateEntry
}
