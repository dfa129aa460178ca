package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// MemoryStore keeps seat records in process memory.  Each showtime has its
// own lock so bookings for different screenings never contend.
type MemoryStore struct {
	mu    sync.Mutex
	shows map[model.ShowtimeKey]*showSeats
}

type showSeats struct {
	lock  chan struct{}
	seats map[string]model.SeatRecord
	// dropped is set under lock once Sweep has unlinked this entry; holders
	// of a stale pointer must look the showtime up again.
	dropped bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shows: make(map[model.ShowtimeKey]*showSeats)}
}

func (s *MemoryStore) show(key model.ShowtimeKey) *showSeats {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shows[key]
	if !ok {
		sh = &showSeats{lock: make(chan struct{}, 1), seats: make(map[string]model.SeatRecord)}
		s.shows[key] = sh
	}
	return sh
}

// lockShow returns the live entry for key with its lock held.
func (s *MemoryStore) lockShow(ctx context.Context, key model.ShowtimeKey) (*showSeats, error) {
	for {
		sh := s.show(key)
		if err := sh.acquire(ctx); err != nil {
			return nil, err
		}
		if !sh.dropped {
			return sh, nil
		}
		sh.release()
	}
}

// acquire takes the showtime lock or gives up when ctx ends.
func (sh *showSeats) acquire(ctx context.Context) error {
	select {
	case sh.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (sh *showSeats) release() { <-sh.lock }

func (s *MemoryStore) Seats(ctx context.Context, key model.ShowtimeKey) (map[string]model.SeatRecord, error) {
	s.mu.Lock()
	_, ok := s.shows[key]
	s.mu.Unlock()
	if !ok {
		return map[string]model.SeatRecord{}, nil
	}
	sh, err := s.lockShow(ctx, key)
	if err != nil {
		return nil, err
	}
	defer sh.release()
	out := make(map[string]model.SeatRecord, len(sh.seats))
	for id, r := range sh.seats {
		out[id] = r
	}
	return out, nil
}

func (s *MemoryStore) Apply(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op Op, now time.Time) error {
	sh, err := s.lockShow(ctx, key)
	if err != nil {
		return err
	}
	defer sh.release()

	current := make(map[string]model.SeatRecord, len(seatIDs))
	for _, id := range seatIDs {
		if r, ok := sh.seats[id]; ok {
			current[id] = r
		}
	}
	writes, err := Plan(current, seatIDs, op, now)
	if err != nil {
		return err
	}
	for id, r := range writes {
		if r.State == model.SeatFree {
			delete(sh.seats, id)
			continue
		}
		sh.seats[id] = r
	}
	return nil
}

// Sweep deletes expired holds and unlinks showtimes left with no records.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	shows := make(map[model.ShowtimeKey]*showSeats, len(s.shows))
	for key, sh := range s.shows {
		shows[key] = sh
	}
	s.mu.Unlock()

	removed := 0
	for key, sh := range shows {
		if err := sh.acquire(ctx); err != nil {
			return removed, err
		}
		for id, r := range sh.seats {
			if r.Expired(now) {
				delete(sh.seats, id)
				removed++
			}
		}
		if len(sh.seats) == 0 && !sh.dropped {
			s.mu.Lock()
			if s.shows[key] == sh {
				delete(s.shows, key)
				sh.dropped = true
			}
			s.mu.Unlock()
		}
		sh.release()
	}
	return removed, nil
}
