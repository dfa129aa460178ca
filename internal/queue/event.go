// Package queue defines message payloads exchanged over the message broker.
package queue

// Routing keys (and durable queue names) used on the default exchange.
const (
	TicketConfirmedQueue = "ticket.confirmed"
	TicketClosedQueue    = "ticket.closed"
)

// TicketConfirmedEvent is published when a booking is confirmed.  It carries
// enough for the notification collaborator to message the buyer without
// querying the engine.
type TicketConfirmedEvent struct {
	TicketID    string   `json:"ticket_id"`
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	MovieID     string   `json:"movie_id"`
	TheatreID   string   `json:"theatre_id"`
	Showtime    string   `json:"showtime"`
	ShowDate    string   `json:"show_date"`
	ShowTime    string   `json:"show_time"`
	SeatIDs     []string `json:"seats"`
	Total       int64    `json:"total"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// TicketClosedEvent is published when a ticket is cancelled or refunded.
type TicketClosedEvent struct {
	TicketID     string   `json:"ticket_id"`
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Showtime     string   `json:"showtime"`
	SeatIDs      []string `json:"seats"`
	Status       string   `json:"status"`
	Reason       string   `json:"reason,omitempty"`
	RefundAmount *int64   `json:"refund_amount,omitempty"`
	ClosedAt     string   `json:"closed_at"`
}
