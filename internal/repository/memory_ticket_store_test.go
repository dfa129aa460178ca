package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

func sampleTicket(id string, at time.Time) *model.Ticket {
	key, _ := model.NewShowtimeKey("th1", "2026-10-19", "18:30")
	return &model.Ticket{
		ID:          id,
		MovieID:     "m1",
		TheatreID:   "th1",
		Showtime:    key,
		Seats:       []model.TicketSeat{{SeatID: "A1", Tier: model.TierNormal, Price: 1000}},
		Total:       1000,
		UserID:      "u1",
		Email:       "u1@example.com",
		Status:      model.TicketConfirmed,
		PurchasedAt: at,
		UpdatedAt:   at,
	}
}

func TestMemoryTicketStoreLifecycle(t *testing.T) {
	s := NewMemoryTicketStore()
	ctx := context.Background()
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, sampleTicket("t1", at)))
	require.NoError(t, s.Create(ctx, sampleTicket("t2", at.Add(time.Minute))))
	assert.ErrorIs(t, s.Create(ctx, sampleTicket("t1", at)), ErrConflict)

	mine, err := s.ListByUser(ctx, "u1@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "t2", mine[0].ID, "newest first")

	show, err := s.ListByShowtime(ctx, mine[0].Showtime)
	require.NoError(t, err)
	assert.Equal(t, "t1", show[0].ID, "oldest first")

	closed, err := s.Close(ctx, "t1", model.TicketClosure{Status: model.TicketCancelled, Reason: "x", At: at})
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, closed.Status)

	_, err = s.Close(ctx, "t1", model.TicketClosure{Status: model.TicketRefunded, At: at})
	assert.ErrorIs(t, err, model.ErrAlreadyTerminal)
	_, err = s.Close(ctx, "t9", model.TicketClosure{Status: model.TicketCancelled, At: at})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryTicketStoreReturnsCopies(t *testing.T) {
	s := NewMemoryTicketStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sampleTicket("t1", time.Now())))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	got.Seats[0].Price = 1
	got.Status = model.TicketRefunded

	again, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), again.Seats[0].Price)
	assert.Equal(t, model.TicketConfirmed, again.Status)
}
