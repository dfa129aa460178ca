package model

import "time"

// SeatState is the inventory state of a seat for one showtime.
type SeatState string

const (
	SeatFree SeatState = "FREE"
	SeatHeld SeatState = "HELD"
	SeatSold SeatState = "SOLD"
)

// SeatRecord is the stored state of a seat for a showtime.  A seat with no
// record is FREE.  HELD records carry the holder, the hold token and the
// expiry; SOLD records carry the ticket that bought the seat.
//
// Fields:
//
//	SeatID    – template seat identifier (e.g. "A1").
//	State     – FREE, HELD or SOLD.
//	HolderID  – user holding the seat (HELD and SOLD).
//	HoldToken – token of the hold that claimed the seat.
//	ExpiresAt – when a HELD record stops counting.
//	TicketID  – ticket that bought the seat (SOLD only).
type SeatRecord struct {
	SeatID    string    `json:"seat_id"`              // seat_inventory.seat_id
	State     SeatState `json:"state"`                // seat_inventory.state
	HolderID  string    `json:"holder_id,omitempty"`  // seat_inventory.holder_id
	HoldToken string    `json:"hold_token,omitempty"` // seat_inventory.hold_token
	ExpiresAt time.Time `json:"expires_at,omitempty"` // seat_inventory.expires_at
	TicketID  string    `json:"ticket_id,omitempty"`  // seat_inventory.ticket_id
}

// Expired reports whether a HELD record has lapsed at now.
func (r SeatRecord) Expired(now time.Time) bool {
	return r.State == SeatHeld && !now.Before(r.ExpiresAt)
}

// Effective returns the state readers must act on: an expired hold is FREE.
func (r SeatRecord) Effective(now time.Time) SeatState {
	if r.State == "" || r.Expired(now) {
		return SeatFree
	}
	return r.State
}

// HoldToken is returned by a successful reserve and is required to confirm
// or release the hold.
type HoldToken struct {
	Token     string      `json:"token"`
	Key       ShowtimeKey `json:"showtime"`
	SeatIDs   []string    `json:"seat_ids"`
	HolderID  string      `json:"holder_id"`
	ExpiresAt time.Time   `json:"expires_at"`
}
