package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

func liveShowtimes(s *MemoryStore) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shows)
}

func TestMemoryStoreSweepDropsEmptyShowtimes(t *testing.T) {
	store := NewMemoryStore()
	clock := &fakeClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	inv := New(store, WithClock(clock.Now))
	ctx := context.Background()

	held, _ := model.NewShowtimeKey("th1", "2026-10-17", "18:30")
	sold, _ := model.NewShowtimeKey("th1", "2026-10-17", "21:00")
	browsed, _ := model.NewShowtimeKey("th1", "2026-10-18", "18:30")

	_, err := inv.Reserve(ctx, held, []string{"A1"}, "u1", time.Minute)
	require.NoError(t, err)
	tok, err := inv.Reserve(ctx, sold, []string{"A1"}, "u1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, inv.Confirm(ctx, tok, "t1"))
	_, err = inv.Availability(ctx, browsed)
	require.NoError(t, err)
	assert.Equal(t, 2, liveShowtimes(store), "reads do not create entries")

	clock.Advance(time.Hour)
	n, err := inv.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, liveShowtimes(store))

	states, err := inv.Availability(ctx, sold)
	require.NoError(t, err)
	assert.Equal(t, model.SeatSold, states["A1"])

	// a dropped showtime comes back on the next write
	_, err = inv.Reserve(ctx, held, []string{"A2"}, "u2", time.Minute)
	require.NoError(t, err)
	states, err = inv.Availability(ctx, held)
	require.NoError(t, err)
	assert.Equal(t, model.SeatHeld, states["A2"])
}

func TestMemoryStoreSweepDoesNotLoseConcurrentWrites(t *testing.T) {
	store := NewMemoryStore()
	inv := New(store)
	ctx := context.Background()
	key, _ := model.NewShowtimeKey("th1", "2026-10-17", "18:30")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_, _ = inv.Sweep(ctx)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		tok, err := inv.Reserve(ctx, key, []string{"A1"}, "u1", time.Hour)
		require.NoError(t, err)
		states, err := inv.Availability(ctx, key)
		require.NoError(t, err)
		require.Equal(t, model.SeatHeld, states["A1"], "iteration %d", i)
		require.NoError(t, inv.Release(ctx, tok, "u1"))
	}
	close(stop)
	wg.Wait()
}
