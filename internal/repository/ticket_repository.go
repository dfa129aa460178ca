package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// TicketRepo is the MySQL ticket ledger.  Tickets are appended once and
// afterwards only their status columns change, through a conditional
// UPDATE that only matches confirmed rows.
type TicketRepo struct {
	db *sqlx.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sqlx.DB) *TicketRepo { return &TicketRepo{db: db} }

// ticketRow mirrors the tickets table.
type ticketRow struct {
	ID           string        `db:"id"`
	MovieID      string        `db:"movie_id"`
	TheatreID    string        `db:"theatre_id"`
	ShowDate     string        `db:"show_date"`
	ShowTime     string        `db:"show_time"`
	ShowtimeKey  string        `db:"showtime_key"`
	Total        int64         `db:"total"`
	UserID       string        `db:"user_id"`
	Email        string        `db:"email"`
	Status       string        `db:"status"`
	CloseReason  string        `db:"close_reason"`
	RefundAmount sql.NullInt64 `db:"refund_amount"`
	PurchasedAt  time.Time     `db:"purchased_at"`
	CancelledAt  sql.NullTime  `db:"cancelled_at"`
	RefundedAt   sql.NullTime  `db:"refunded_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// ticketSeatRow mirrors the ticket_seats table.
type ticketSeatRow struct {
	TicketID string `db:"ticket_id"`
	Position int    `db:"position"`
	SeatID   string `db:"seat_id"`
	Tier     string `db:"tier"`
	Price    int64  `db:"price"`
}

const ticketColumns = `id, movie_id, theatre_id, show_date, show_time, showtime_key, total, user_id, email,
	status, close_reason, refund_amount, purchased_at, cancelled_at, refunded_at, updated_at`

// Create inserts the ticket and its seats in one transaction.  A reused ID
// fails with ErrConflict.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := toTicketRow(t)
	const qTicket = `INSERT INTO tickets (` + ticketColumns + `) VALUES
		(:id, :movie_id, :theatre_id, :show_date, :show_time, :showtime_key, :total, :user_id, :email,
		:status, :close_reason, :refund_amount, :purchased_at, :cancelled_at, :refunded_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, qTicket, row); err != nil {
		return translate(err, "ticket %s", t.ID)
	}
	if err = r.CreateSeatsTx(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateSeatsTx inserts the seats of t.  The caller must commit or roll
// back tx.
func (r *TicketRepo) CreateSeatsTx(ctx context.Context, tx *sqlx.Tx, t *model.Ticket) error {
	const q = `INSERT INTO ticket_seats (ticket_id, position, seat_id, tier, price)
		VALUES (:ticket_id, :position, :seat_id, :tier, :price)`
	for i, s := range t.Seats {
		row := ticketSeatRow{TicketID: t.ID, Position: i, SeatID: s.SeatID, Tier: string(s.Tier), Price: s.Price}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one ticket with its seats.
func (r *TicketRepo) Get(ctx context.Context, id string) (*model.Ticket, error) {
	var row ticketRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id); err != nil {
		return nil, translate(err, "ticket %s", id)
	}
	tickets, err := r.withSeats(ctx, []ticketRow{row})
	if err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

// ListByUser returns the tickets bought under email, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, email string) ([]model.Ticket, error) {
	var rows []ticketRow
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE email = ? ORDER BY purchased_at DESC, id`
	if err := r.db.SelectContext(ctx, &rows, q, email); err != nil {
		return nil, err
	}
	return r.withSeats(ctx, rows)
}

// ListByShowtime returns every ticket of a showtime, oldest first.
func (r *TicketRepo) ListByShowtime(ctx context.Context, key model.ShowtimeKey) ([]model.Ticket, error) {
	var rows []ticketRow
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE showtime_key = ? ORDER BY purchased_at, id`
	if err := r.db.SelectContext(ctx, &rows, q, key.String()); err != nil {
		return nil, err
	}
	return r.withSeats(ctx, rows)
}

// Close moves a confirmed ticket to the closure's status.  The UPDATE only
// matches confirmed rows, so two concurrent closes cannot both succeed.
func (r *TicketRepo) Close(ctx context.Context, id string, c model.TicketClosure) (*model.Ticket, error) {
	if !model.TicketConfirmed.CanTransitionTo(c.Status) {
		return nil, fmt.Errorf("close ticket %s: invalid target status %q", id, c.Status)
	}
	var applied model.Ticket
	c.Apply(&applied)

	const q = `UPDATE tickets
		SET status = ?, close_reason = ?, refund_amount = ?, cancelled_at = ?, refunded_at = ?, updated_at = ?
		WHERE id = ? AND status = 'confirmed'`
	res, err := r.db.ExecContext(ctx, q,
		string(c.Status), c.Reason, nullInt64(applied.RefundAmount),
		nullTime(applied.CancelledAt), nullTime(applied.RefundedAt), c.At.UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var status string
		err := r.db.GetContext(ctx, &status, `SELECT status FROM tickets WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("ticket %s", id)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("ticket %s is %s: %w", id, status, model.ErrAlreadyTerminal)
	}
	return r.Get(ctx, id)
}

// withSeats loads the seats of rows with a single IN query.
func (r *TicketRepo) withSeats(ctx context.Context, rows []ticketRow) ([]model.Ticket, error) {
	out := make([]model.Ticket, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	q, args, err := sqlx.In(`SELECT ticket_id, position, seat_id, tier, price
		FROM ticket_seats WHERE ticket_id IN (?) ORDER BY ticket_id, position`, ids)
	if err != nil {
		return nil, err
	}
	var seats []ticketSeatRow
	if err := r.db.SelectContext(ctx, &seats, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	byTicket := make(map[string][]model.TicketSeat, len(rows))
	for _, s := range seats {
		byTicket[s.TicketID] = append(byTicket[s.TicketID], model.TicketSeat{
			SeatID: s.SeatID, Tier: model.SeatTier(s.Tier), Price: s.Price,
		})
	}
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		t.Seats = byTicket[row.ID]
		out = append(out, t)
	}
	return out, nil
}

func toTicketRow(t *model.Ticket) ticketRow {
	return ticketRow{
		ID:           t.ID,
		MovieID:      t.MovieID,
		TheatreID:    t.TheatreID,
		ShowDate:     t.Showtime.Date,
		ShowTime:     t.Showtime.Time.String(),
		ShowtimeKey:  t.Showtime.String(),
		Total:        t.Total,
		UserID:       t.UserID,
		Email:        t.Email,
		Status:       string(t.Status),
		CloseReason:  t.CloseReason,
		RefundAmount: nullInt64(t.RefundAmount),
		PurchasedAt:  t.PurchasedAt.UTC(),
		CancelledAt:  nullTime(t.CancelledAt),
		RefundedAt:   nullTime(t.RefundedAt),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
}

func (row ticketRow) toModel() (model.Ticket, error) {
	key, err := model.NewShowtimeKey(row.TheatreID, row.ShowDate, row.ShowTime)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("ticket %s: %w", row.ID, err)
	}
	t := model.Ticket{
		ID:          row.ID,
		MovieID:     row.MovieID,
		TheatreID:   row.TheatreID,
		Showtime:    key,
		Total:       row.Total,
		UserID:      row.UserID,
		Email:       row.Email,
		Status:      model.TicketStatus(row.Status),
		CloseReason: row.CloseReason,
		PurchasedAt: row.PurchasedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.RefundAmount.Valid {
		v := row.RefundAmount.Int64
		t.RefundAmount = &v
	}
	if row.CancelledAt.Valid {
		v := row.CancelledAt.Time.UTC()
		t.CancelledAt = &v
	}
	if row.RefundedAt.Valid {
		v := row.RefundedAt.Time.UTC()
		t.RefundedAt = &v
	}
	return t, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}
