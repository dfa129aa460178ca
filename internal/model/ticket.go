package model

import "time"

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketConfirmed TicketStatus = "confirmed"
	TicketCancelled TicketStatus = "cancelled"
	TicketRefunded  TicketStatus = "refunded"
)

// IsValid checks if the ticket status is valid
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketConfirmed, TicketCancelled, TicketRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketCancelled || s == TicketRefunded
}

// CanTransitionTo enforces confirmed -> cancelled|refunded only.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	return s == TicketConfirmed && next.IsTerminal()
}

func (s TicketStatus) String() string { return string(s) }

// TicketSeat is one purchased seat with the tier and price it sold at.
type TicketSeat struct {
	SeatID string   `json:"seat_id"` // ticket_seats.seat_id
	Tier   SeatTier `json:"tier"`    // ticket_seats.tier
	Price  int64    `json:"price"`   // ticket_seats.price
}

// Ticket is the durable record of a seat purchase for one showtime.  It is
// created only by a successful booking; afterwards only its status and the
// closing fields change.
//
// Fields:
//
//	ID           – globally unique identifier, never reused.
//	MovieID      – movie being screened.
//	TheatreID    – theatre of the screening.
//	Showtime     – showtime key of the screening.
//	Seats        – purchased seats in request order.
//	Total        – sum of seat prices in minor units.
//	UserID       – owning user.
//	Email        – owning user's email, used for lookups.
//	Status       – confirmed, cancelled or refunded.
//	CloseReason  – reason given on cancel or refund.
//	RefundAmount – amount refunded (refunded only, may be partial).
//	PurchasedAt  – creation timestamp.
//	CancelledAt  – set when cancelled.
//	RefundedAt   – set when refunded.
//	UpdatedAt    – last update timestamp.
type Ticket struct {
	ID           string       `json:"id"`                      // tickets.id
	MovieID      string       `json:"movie_id"`                // tickets.movie_id
	TheatreID    string       `json:"theatre_id"`              // tickets.theatre_id
	Showtime     ShowtimeKey  `json:"showtime"`                // tickets.show_date / show_time
	Seats        []TicketSeat `json:"seats"`                   // ticket_seats
	Total        int64        `json:"total"`                   // tickets.total
	UserID       string       `json:"user_id"`                 // tickets.user_id
	Email        string       `json:"email"`                   // tickets.email
	Status       TicketStatus `json:"status"`                  // tickets.status
	CloseReason  string       `json:"close_reason,omitempty"`  // tickets.close_reason
	RefundAmount *int64       `json:"refund_amount,omitempty"` // tickets.refund_amount (nullable)
	PurchasedAt  time.Time    `json:"purchased_at"`            // tickets.purchased_at
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`  // tickets.cancelled_at (nullable)
	RefundedAt   *time.Time   `json:"refunded_at,omitempty"`   // tickets.refunded_at (nullable)
	UpdatedAt    time.Time    `json:"updated_at"`              // tickets.updated_at
}

// SeatIDs returns the purchased seat IDs in order.
func (t *Ticket) SeatIDs() []string {
	ids := make([]string, 0, len(t.Seats))
	for _, s := range t.Seats {
		ids = append(ids, s.SeatID)
	}
	return ids
}

// TicketClosure describes a terminal transition applied to a ticket.
type TicketClosure struct {
	Status       TicketStatus
	Reason       string
	RefundAmount *int64
	At           time.Time
}

// Apply moves t into the closure's status.  Callers must have checked
// CanTransitionTo.
func (c TicketClosure) Apply(t *Ticket) {
	at := c.At
	t.Status = c.Status
	t.CloseReason = c.Reason
	t.UpdatedAt = at
	switch c.Status {
	case TicketCancelled:
		t.CancelledAt = &at
	case TicketRefunded:
		t.RefundedAt = &at
		t.RefundAmount = c.RefundAmount
	}
}
