// Package service holds the engine's business logic: showtime derivation,
// pricing and the reservation coordinator that turns a seat selection into
// a confirmed ticket.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-ticket-engine/internal/inventory"
	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// TicketStore is the append-only ticket ledger.  Implementations return
// errors wrapping model.ErrNotFound and model.ErrAlreadyTerminal.
type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	Get(ctx context.Context, id string) (*model.Ticket, error)
	ListByUser(ctx context.Context, email string) ([]model.Ticket, error)
	ListByShowtime(ctx context.Context, key model.ShowtimeKey) ([]model.Ticket, error)
	// Close atomically moves a confirmed ticket to the closure's status and
	// returns the updated ticket.
	Close(ctx context.Context, id string, c model.TicketClosure) (*model.Ticket, error)
}

// ReasonHoldLapsed is recorded on a ticket voided because its hold expired
// between the ledger write and the inventory confirm.
const ReasonHoldLapsed = "hold lapsed before confirmation"

const (
	defaultThinkHoldTTL   = 10 * time.Minute
	defaultConfirmHoldTTL = 30 * time.Second
	freeSeatAttempts      = 3
	settleTimeout         = 15 * time.Second
)

// BookRequest is a seat selection for one showtime.  Hold optionally
// carries a think-time hold the caller took earlier.
type BookRequest struct {
	Identity  model.Identity
	MovieID   string
	TheatreID string
	Date      string
	Time      string
	SeatIDs   []string
	Hold      *model.HoldToken
}

// Showtime is a bookable slot with live prices.
type Showtime struct {
	model.ShowSlot
	Key     string           `json:"key"`
	DayType model.DayType    `json:"day_type"`
	Prices  model.TierPrices `json:"prices"`
}

// SeatView is one seat of a seat map.
type SeatView struct {
	SeatID string          `json:"seat_id"`
	Tier   model.SeatTier  `json:"tier"`
	State  model.SeatState `json:"state"`
}

// SeatMap is every template seat of a showtime with its current state.
type SeatMap struct {
	Showtime  model.ShowtimeKey `json:"showtime"`
	Rows      int               `json:"rows"`
	Cols      int               `json:"cols"`
	Available int               `json:"available"`
	Seats     []SeatView        `json:"seats"`
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Catalog   Catalog
	Calendar  *Calendar
	Pricing   *Resolver
	Inventory *inventory.Inventory
	Tickets   TicketStore
	Events    Publisher
	Log       *logger.Logger
}

// Options tunes hold lifetimes.  Zero values select the defaults.
type Options struct {
	ThinkHoldTTL   time.Duration
	ConfirmHoldTTL time.Duration
}

// Coordinator orchestrates bookings across calendar, pricing, inventory
// and the ticket ledger.  It keeps no state between calls.
type Coordinator struct {
	catalog    Catalog
	calendar   *Calendar
	pricing    *Resolver
	inv        *inventory.Inventory
	tickets    TicketStore
	events     Publisher
	log        *logger.Logger
	thinkTTL   time.Duration
	confirmTTL time.Duration
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(d Deps, opts Options) *Coordinator {
	c := &Coordinator{
		catalog:    d.Catalog,
		calendar:   d.Calendar,
		pricing:    d.Pricing,
		inv:        d.Inventory,
		tickets:    d.Tickets,
		events:     d.Events,
		log:        d.Log,
		thinkTTL:   opts.ThinkHoldTTL,
		confirmTTL: opts.ConfirmHoldTTL,
	}
	if c.events == nil {
		c.events = NopPublisher{}
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	if c.thinkTTL <= 0 {
		c.thinkTTL = defaultThinkHoldTTL
	}
	if c.confirmTTL <= 0 {
		c.confirmTTL = defaultConfirmHoldTTL
	}
	return c
}

// Book converts a seat selection into a confirmed ticket.  Either every
// seat is sold to the returned ticket or none is.
func (c *Coordinator) Book(ctx context.Context, req BookRequest) (*model.Ticket, error) {
	if strings.TrimSpace(req.Identity.UserID) == "" {
		return nil, model.Invalid("user", "identity is required")
	}
	if strings.TrimSpace(req.MovieID) == "" {
		return nil, model.Invalid("movie_id", "movie is required")
	}
	seats, err := normalizeSeats(req.SeatIDs)
	if err != nil {
		return nil, err
	}
	key, err := model.NewShowtimeKey(req.TheatreID, req.Date, req.Time)
	if err != nil {
		return nil, model.Invalid("showtime", "%v", err)
	}
	if req.Hold != nil {
		if req.Hold.HolderID != req.Identity.UserID {
			return nil, model.Invalid("hold", "hold belongs to another user")
		}
		if req.Hold.Key != key {
			return nil, model.Invalid("hold", "hold is for a different showtime")
		}
	}

	theatre, tpl, err := c.resolveShowtime(ctx, key)
	if err != nil {
		return nil, err
	}
	tiers, err := seatTiers(tpl, seats)
	if err != nil {
		return nil, err
	}
	day, _ := key.Day()
	priced, total, err := c.priceSeats(ctx, theatre, seats, tiers, day)
	if err != nil {
		return nil, err
	}

	hold, err := c.inv.Reserve(ctx, key, seats, req.Identity.UserID, c.confirmTTL)
	if err != nil {
		var su *model.SeatUnavailableError
		if errors.As(err, &su) {
			c.log.LogSeatConflict(ctx, key.String(), req.Identity.UserID, su.SeatIDs)
		}
		return nil, err
	}
	// From here on seats are held: finish even if the caller goes away.
	ctx, cancel := settleContext(ctx)
	defer cancel()

	now := c.inv.Now()
	ticket := &model.Ticket{
		ID:          uuid.NewString(),
		MovieID:     req.MovieID,
		TheatreID:   theatre.ID,
		Showtime:    key,
		Seats:       priced,
		Total:       total,
		UserID:      req.Identity.UserID,
		Email:       req.Identity.Email,
		Status:      model.TicketConfirmed,
		PurchasedAt: now,
		UpdatedAt:   now,
	}
	if err := c.tickets.Create(ctx, ticket); err != nil {
		c.releaseHold(ctx, hold)
		return nil, fmt.Errorf("record ticket: %w", err)
	}
	if err := c.inv.Confirm(ctx, hold, ticket.ID); err != nil {
		c.voidTicket(ctx, ticket, hold)
		if errors.Is(err, model.ErrHoldExpired) {
			return nil, model.ErrHoldExpired
		}
		return nil, fmt.Errorf("confirm seats: %w", err)
	}

	if req.Hold != nil {
		// seats of the think-time hold that were not booked go back on sale
		c.releaseHold(ctx, *req.Hold)
	}
	c.log.LogTicketBooked(ctx, ticket.ID, key.String(), ticket.UserID, len(ticket.Seats), ticket.Total)
	if err := c.events.TicketConfirmed(ctx, ticket); err != nil {
		c.log.ErrorWithContext(ctx, "publish ticket confirmed", err, map[string]any{"ticket_id": ticket.ID})
	}
	return ticket, nil
}

// Hold takes a think-time hold on seats while the user completes checkout.
// A later Book by the same user takes the seats over.
func (c *Coordinator) Hold(ctx context.Context, id model.Identity, key model.ShowtimeKey, seatIDs []string) (model.HoldToken, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return model.HoldToken{}, model.Invalid("user", "identity is required")
	}
	seats, err := normalizeSeats(seatIDs)
	if err != nil {
		return model.HoldToken{}, err
	}
	_, tpl, err := c.resolveShowtime(ctx, key)
	if err != nil {
		return model.HoldToken{}, err
	}
	if _, err := seatTiers(tpl, seats); err != nil {
		return model.HoldToken{}, err
	}
	hold, err := c.inv.Reserve(ctx, key, seats, id.UserID, c.thinkTTL)
	if err != nil {
		var su *model.SeatUnavailableError
		if errors.As(err, &su) {
			c.log.LogSeatConflict(ctx, key.String(), id.UserID, su.SeatIDs)
		}
		return model.HoldToken{}, err
	}
	return hold, nil
}

// ReleaseHold gives up a think-time hold.  Only the holder may release it.
func (c *Coordinator) ReleaseHold(ctx context.Context, id model.Identity, token model.HoldToken) error {
	if token.Token == "" || len(token.SeatIDs) == 0 {
		return model.Invalid("hold", "token and seats are required")
	}
	if token.HolderID != id.UserID {
		return model.ErrForbidden
	}
	return c.inv.Release(ctx, token, id.UserID)
}

// Cancel moves a confirmed ticket to cancelled and puts its seats back on
// sale.
func (c *Coordinator) Cancel(ctx context.Context, ticketID, reason string) (*model.Ticket, error) {
	closure := model.TicketClosure{
		Status: model.TicketCancelled,
		Reason: strings.TrimSpace(reason),
		At:     c.inv.Now(),
	}
	return c.close(ctx, ticketID, closure)
}

// Refund moves a confirmed ticket to refunded, recording amount (which may
// be partial), and puts its seats back on sale.
func (c *Coordinator) Refund(ctx context.Context, ticketID string, amount int64, reason string) (*model.Ticket, error) {
	t, err := c.Ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if amount < 0 || amount > t.Total {
		return nil, model.Invalid("amount", "refund must be between 0 and %d", t.Total)
	}
	closure := model.TicketClosure{
		Status:       model.TicketRefunded,
		Reason:       strings.TrimSpace(reason),
		RefundAmount: &amount,
		At:           c.inv.Now(),
	}
	return c.close(ctx, ticketID, closure)
}

// Authorize loads a ticket on behalf of actor, who must own it or be an
// admin.
func (c *Coordinator) Authorize(ctx context.Context, actor model.Identity, ticketID string) (*model.Ticket, error) {
	t, err := c.Ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && t.UserID != actor.UserID {
		return nil, model.ErrForbidden
	}
	return t, nil
}

// Showtimes lists a theatre's showtimes on date with the price of every
// seat tier.
func (c *Coordinator) Showtimes(ctx context.Context, theatreID, date string) ([]Showtime, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	theatre, err := c.catalog.Theatre(ctx, theatreID)
	if err != nil {
		return nil, fmt.Errorf("theatre %s: %w", theatreID, err)
	}
	slots, err := c.calendar.SlotsFor(ctx, theatre.ID, date)
	if err != nil {
		return nil, err
	}
	out := make([]Showtime, 0, len(slots))
	if len(slots) == 0 {
		return out, nil
	}
	prices, dayType, err := c.pricing.PricesFor(ctx, theatre.ID, theatre.PricingTierID, day)
	if err != nil {
		return nil, err
	}
	for _, s := range slots {
		out = append(out, Showtime{ShowSlot: s, Key: s.Key().String(), DayType: dayType, Prices: prices})
	}
	return out, nil
}

// Availability returns the seat map of a showtime.
func (c *Coordinator) Availability(ctx context.Context, key model.ShowtimeKey) (*SeatMap, error) {
	_, tpl, err := c.resolveShowtime(ctx, key)
	if err != nil {
		return nil, err
	}
	states, err := c.inv.Availability(ctx, key)
	if err != nil {
		return nil, err
	}
	ids := tpl.SeatIDs()
	m := &SeatMap{Showtime: key, Rows: tpl.Layout.Rows, Cols: tpl.Layout.Cols, Seats: make([]SeatView, 0, len(ids))}
	for _, id := range ids {
		tier, _ := tpl.TierOf(id)
		st, ok := states[id]
		if !ok {
			st = model.SeatFree
		}
		if st == model.SeatFree {
			m.Available++
		}
		m.Seats = append(m.Seats, SeatView{SeatID: id, Tier: tier, State: st})
	}
	return m, nil
}

// TicketsByUser lists the tickets bought under email.
func (c *Coordinator) TicketsByUser(ctx context.Context, email string) ([]model.Ticket, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.Invalid("email", "email is required")
	}
	return c.tickets.ListByUser(ctx, email)
}

// TicketsByShowtime lists every ticket of a showtime.
func (c *Coordinator) TicketsByShowtime(ctx context.Context, key model.ShowtimeKey) ([]model.Ticket, error) {
	return c.tickets.ListByShowtime(ctx, key)
}

// Ticket loads one ticket.
func (c *Coordinator) Ticket(ctx context.Context, id string) (*model.Ticket, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.Invalid("ticket_id", "ticket id is required")
	}
	return c.tickets.Get(ctx, id)
}

// resolveShowtime checks that key names an offered slot and loads the
// theatre and its active template.
func (c *Coordinator) resolveShowtime(ctx context.Context, key model.ShowtimeKey) (*model.Theatre, *model.SeatTemplate, error) {
	theatre, err := c.catalog.Theatre(ctx, key.TheatreID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, model.Invalid("theatre_id", "unknown theatre %s", key.TheatreID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load theatre: %w", err)
	}
	ok, err := c.calendar.SlotExists(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, model.Invalid("showtime", "theatre %s has no showtime on %s at %s", key.TheatreID, key.Date, key.Time)
	}
	tpl, err := c.catalog.SeatTemplate(ctx, theatre.ID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, model.Misconfigured("theatre %s has no active seat template", theatre.ID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load seat template: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return nil, nil, model.Misconfigured("seat template of theatre %s: %v", theatre.ID, err)
	}
	return theatre, tpl, nil
}

func (c *Coordinator) priceSeats(ctx context.Context, theatre *model.Theatre, seats []string, tiers []model.SeatTier, day time.Time) ([]model.TicketSeat, int64, error) {
	cache := make(map[model.SeatTier]int64)
	out := make([]model.TicketSeat, 0, len(seats))
	var total int64
	for i, id := range seats {
		p, ok := cache[tiers[i]]
		if !ok {
			var err error
			p, err = c.pricing.PriceFor(ctx, theatre.ID, theatre.PricingTierID, tiers[i], day)
			if err != nil {
				return nil, 0, err
			}
			cache[tiers[i]] = p
		}
		out = append(out, model.TicketSeat{SeatID: id, Tier: tiers[i], Price: p})
		total += p
	}
	return out, total, nil
}

func (c *Coordinator) close(ctx context.Context, ticketID string, closure model.TicketClosure) (*model.Ticket, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, model.Invalid("ticket_id", "ticket id is required")
	}
	t, err := c.tickets.Close(ctx, ticketID, closure)
	if err != nil {
		return nil, err
	}
	// The ledger moved; the seats must follow even if the caller is gone.
	ctx, cancel := settleContext(ctx)
	defer cancel()
	c.freeSeats(ctx, t)
	c.log.LogTicketClosed(ctx, t.ID, t.Status.String(), t.CloseReason)
	if err := c.events.TicketClosed(ctx, t); err != nil {
		c.log.ErrorWithContext(ctx, "publish ticket closed", err, map[string]any{"ticket_id": t.ID})
	}
	return t, nil
}

// freeSeats returns a closed ticket's seats to FREE, retrying a few times.
// The ledger transition already happened, so a failure here is logged
// rather than surfaced.
func (c *Coordinator) freeSeats(ctx context.Context, t *model.Ticket) {
	var err error
	for attempt := 1; attempt <= freeSeatAttempts; attempt++ {
		if err = c.inv.FreeSold(ctx, t.Showtime, t.SeatIDs(), t.ID); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			attempt = freeSeatAttempts
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
	c.log.WithUserID(t.UserID).ErrorWithContext(ctx, "free seats of closed ticket", err, map[string]any{
		"ticket_id": t.ID,
		"showtime":  t.Showtime.String(),
	})
}

// voidTicket undoes a ticket whose hold could not be confirmed.
func (c *Coordinator) voidTicket(ctx context.Context, t *model.Ticket, hold model.HoldToken) {
	closure := model.TicketClosure{Status: model.TicketCancelled, Reason: ReasonHoldLapsed, At: c.inv.Now()}
	if _, err := c.tickets.Close(ctx, t.ID, closure); err != nil {
		c.log.WithUserID(t.UserID).ErrorWithContext(ctx, "void unconfirmed ticket", err, map[string]any{"ticket_id": t.ID})
	}
	c.releaseHold(ctx, hold)
	if err := c.inv.FreeSold(ctx, t.Showtime, t.SeatIDs(), t.ID); err != nil {
		c.log.ErrorWithContext(ctx, "free seats of voided ticket", err, map[string]any{"ticket_id": t.ID})
	}
}

func (c *Coordinator) releaseHold(ctx context.Context, hold model.HoldToken) {
	if err := c.inv.Release(ctx, hold, hold.HolderID); err != nil {
		c.log.WithUserID(hold.HolderID).WithError(err).ErrorContext(ctx, "release hold", "showtime", hold.Key.String())
	}
}

// settleContext detaches ctx from the caller's cancellation and bounds the
// steps that must run once a ledger or seat change has been committed.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// normalizeSeats trims IDs and collapses duplicates, keeping first-seen
// order.
func normalizeSeats(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, model.Invalid("seat_ids", "seat id must not be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, model.Invalid("seat_ids", "at least one seat is required")
	}
	return out, nil
}

// seatTiers resolves the tier of each seat or reports the unknown ones.
func seatTiers(tpl *model.SeatTemplate, seats []string) ([]model.SeatTier, error) {
	tiers := make([]model.SeatTier, len(seats))
	var unknown []string
	for i, id := range seats {
		tier, ok := tpl.TierOf(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		tiers[i] = tier
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, model.Invalid("seat_ids", "unknown seats for theatre %s: %s", tpl.TheatreID, strings.Join(unknown, ","))
	}
	return tiers, nil
}
