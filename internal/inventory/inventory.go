// Package inventory tracks, per showtime, which seats are free, held or
// sold, and performs the atomic transitions between those states.  The
// transition rules are backend independent; a Store only has to run them
// inside a critical section keyed on the showtime.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// Store persists seat records and applies transitions atomically.
type Store interface {
	// Seats returns every stored record for the showtime.
	Seats(ctx context.Context, key model.ShowtimeKey) (map[string]model.SeatRecord, error)
	// Apply runs Plan for seatIDs and writes the result in one atomic step.
	Apply(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op Op, now time.Time) error
	// Sweep deletes HELD records that expired at or before now.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// ErrTimeout is returned when a transition could not complete within the
// configured operation timeout.  It is a failure, never a partial success.
var ErrTimeout = errors.New("inventory operation timed out")

const defaultOpTimeout = 3 * time.Second

// Inventory is the seat inventory service.
type Inventory struct {
	store     Store
	now       func() time.Time
	opTimeout time.Duration
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Inventory) {
		if now != nil {
			i.now = now
		}
	}
}

// WithOpTimeout bounds every transition.
func WithOpTimeout(d time.Duration) Option {
	return func(i *Inventory) {
		if d > 0 {
			i.opTimeout = d
		}
	}
}

// New builds an Inventory over store.
func New(store Store, opts ...Option) *Inventory {
	inv := &Inventory{store: store, now: time.Now, opTimeout: defaultOpTimeout}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Now returns the inventory's current time.
func (i *Inventory) Now() time.Time { return i.now().UTC() }

// Availability maps every seat with a stored record to its effective
// state.  Seats without a record are FREE and are not listed.
func (i *Inventory) Availability(ctx context.Context, key model.ShowtimeKey) (map[string]model.SeatState, error) {
	recs, err := i.store.Seats(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load seats for %s: %w", key, err)
	}
	now := i.Now()
	out := make(map[string]model.SeatState, len(recs))
	for id, r := range recs {
		out[id] = r.Effective(now)
	}
	return out, nil
}

// Reserve holds every seat in seatIDs for holderID, or none of them.
func (i *Inventory) Reserve(ctx context.Context, key model.ShowtimeKey, seatIDs []string, holderID string, ttl time.Duration) (model.HoldToken, error) {
	if len(seatIDs) == 0 {
		return model.HoldToken{}, model.Invalid("seat_ids", "at least one seat is required")
	}
	if holderID == "" {
		return model.HoldToken{}, model.Invalid("holder_id", "holder is required")
	}
	if ttl <= 0 {
		return model.HoldToken{}, model.Invalid("ttl", "hold ttl must be positive")
	}
	now := i.Now()
	token := model.HoldToken{
		Token:     uuid.NewString(),
		Key:       key,
		SeatIDs:   append([]string(nil), seatIDs...),
		HolderID:  holderID,
		ExpiresAt: now.Add(ttl),
	}
	op := Op{Kind: OpReserve, HolderID: holderID, Token: token.Token, ExpiresAt: token.ExpiresAt}
	if err := i.apply(ctx, key, seatIDs, op, now); err != nil {
		return model.HoldToken{}, err
	}
	return token, nil
}

// Confirm sells the seats of a live hold to ticketID.  Confirming a token
// twice is a no-op the second time.
func (i *Inventory) Confirm(ctx context.Context, token model.HoldToken, ticketID string) error {
	op := Op{Kind: OpConfirm, Token: token.Token, TicketID: ticketID}
	return i.apply(ctx, token.Key, token.SeatIDs, op, i.Now())
}

// Release frees the seats still held by holderID under token.  Seats held
// by anyone else are left alone.  Idempotent.
func (i *Inventory) Release(ctx context.Context, token model.HoldToken, holderID string) error {
	op := Op{Kind: OpRelease, Token: token.Token, HolderID: holderID}
	return i.apply(ctx, token.Key, token.SeatIDs, op, i.Now())
}

// FreeSold returns seats sold to ticketID straight to FREE.
func (i *Inventory) FreeSold(ctx context.Context, key model.ShowtimeKey, seatIDs []string, ticketID string) error {
	op := Op{Kind: OpFreeSold, TicketID: ticketID}
	return i.apply(ctx, key, seatIDs, op, i.Now())
}

// Sweep removes expired holds from the store.
func (i *Inventory) Sweep(ctx context.Context) (int, error) {
	return i.store.Sweep(ctx, i.Now())
}

func (i *Inventory) apply(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op Op, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, i.opTimeout)
	defer cancel()
	err := i.store.Apply(ctx, key, seatIDs, op, now)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrSeatUnavailable), errors.Is(err, model.ErrHoldExpired):
		return err
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		return fmt.Errorf("%s %s: %w", op.Kind, key, ErrTimeout)
	}
	return fmt.Errorf("%s %s: %w", op.Kind, key, err)
}
