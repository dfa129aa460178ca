package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

var ticketCols = []string{"id", "movie_id", "theatre_id", "show_date", "show_time", "showtime_key", "total",
	"user_id", "email", "status", "close_reason", "refund_amount", "purchased_at", "cancelled_at", "refunded_at", "updated_at"}

func newTicketRepo(t *testing.T) (*TicketRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTicketRepo(sqlx.NewDb(db, "mysql")), mock
}

func TestTicketRepoCreate(t *testing.T) {
	repo, mock := newTicketRepo(t)
	tk := sampleTicket("t1", time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	tk.Seats = append(tk.Seats, model.TicketSeat{SeatID: "V1", Tier: model.TierVIP, Price: 3000})

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO tickets`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ticket_seats`).
		WithArgs("t1", 0, "A1", "NORMAL", int64(1000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ticket_seats`).
		WithArgs("t1", 1, "V1", "VIP", int64(3000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), tk))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepoCreateDuplicate(t *testing.T) {
	repo, mock := newTicketRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO tickets`).WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleTicket("t1", time.Now()))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepoGet(t *testing.T) {
	repo, mock := newTicketRepo(t)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM tickets WHERE id = \?`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(
			"t1", "m1", "th1", "2026-10-19", "18:30", "th1|2026-10-19|18:30", int64(4000),
			"u1", "u1@example.com", "refunded", "changed plans", int64(1500), at, nil, at, at))
	mock.ExpectQuery(`FROM ticket_seats WHERE ticket_id IN \(\?\)`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id", "position", "seat_id", "tier", "price"}).
			AddRow("t1", 0, "A1", "NORMAL", int64(1000)).
			AddRow("t1", 1, "V1", "VIP", int64(3000)))

	got, err := repo.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TicketRefunded, got.Status)
	assert.Equal(t, "18:30", got.Showtime.Time.String())
	require.NotNil(t, got.RefundAmount)
	assert.Equal(t, int64(1500), *got.RefundAmount)
	assert.Nil(t, got.CancelledAt)
	assert.Equal(t, []string{"A1", "V1"}, got.SeatIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepoGetMissing(t *testing.T) {
	repo, mock := newTicketRepo(t)
	mock.ExpectQuery(`FROM tickets WHERE id = \?`).WillReturnRows(sqlmock.NewRows(ticketCols))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTicketRepoCloseAlreadyTerminal(t *testing.T) {
	repo, mock := newTicketRepo(t)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE tickets`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM tickets WHERE id = \?`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))

	_, err := repo.Close(context.Background(), "t1", model.TicketClosure{Status: model.TicketCancelled, At: at})
	assert.ErrorIs(t, err, model.ErrAlreadyTerminal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepoCloseMissing(t *testing.T) {
	repo, mock := newTicketRepo(t)

	mock.ExpectExec(`UPDATE tickets`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM tickets`).WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := repo.Close(context.Background(), "t9", model.TicketClosure{Status: model.TicketCancelled, At: time.Now()})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTicketRepoCloseRejectsBadStatus(t *testing.T) {
	repo, _ := newTicketRepo(t)
	_, err := repo.Close(context.Background(), "t1", model.TicketClosure{Status: model.TicketConfirmed})
	assert.Error(t, err)
}
