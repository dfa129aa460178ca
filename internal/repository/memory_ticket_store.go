package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// MemoryTicketStore is an in-process ticket ledger for the memory
// deployment mode and tests.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]*model.Ticket
}

// NewMemoryTicketStore returns an empty ledger.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{tickets: make(map[string]*model.Ticket)}
}

func (s *MemoryTicketStore) Create(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[t.ID]; ok {
		return fmt.Errorf("ticket %s: %w", t.ID, ErrConflict)
	}
	s.tickets[t.ID] = cloneTicket(t)
	return nil
}

func (s *MemoryTicketStore) Get(_ context.Context, id string) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, notFound("ticket %s", id)
	}
	return cloneTicket(t), nil
}

func (s *MemoryTicketStore) ListByUser(_ context.Context, email string) ([]model.Ticket, error) {
	out := s.filter(func(t *model.Ticket) bool { return t.Email == email })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.After(out[j].PurchasedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryTicketStore) ListByShowtime(_ context.Context, key model.ShowtimeKey) ([]model.Ticket, error) {
	out := s.filter(func(t *model.Ticket) bool { return t.Showtime == key })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.Before(out[j].PurchasedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryTicketStore) Close(_ context.Context, id string, c model.TicketClosure) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, notFound("ticket %s", id)
	}
	if !t.Status.CanTransitionTo(c.Status) {
		return nil, fmt.Errorf("ticket %s is %s: %w", id, t.Status, model.ErrAlreadyTerminal)
	}
	c.Apply(t)
	return cloneTicket(t), nil
}

func (s *MemoryTicketStore) filter(keep func(*model.Ticket) bool) []model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Ticket, 0)
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, *cloneTicket(t))
		}
	}
	return out
}

func cloneTicket(t *model.Ticket) *model.Ticket {
	c := *t
	c.Seats = append([]model.TicketSeat(nil), t.Seats...)
	if t.RefundAmount != nil {
		v := *t.RefundAmount
		c.RefundAmount = &v
	}
	return &c
}
