package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/cinema-ticket-engine/internal/inventory"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

type fakeCatalog struct {
	theatres  map[string]*model.Theatre
	templates map[string]*model.SeatTemplate
	pricing   map[string]*model.TheatrePricing
	tiers     map[string]*model.PricingTier
	schedules map[string]*model.TheatreSchedule
}

func ct(s string) model.ClockTime {
	t, err := model.ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// newFakeCatalog describes theatre th1: ten NORMAL seats A1..A10, two VIP
// seats V1, V2, open every day 10:00-23:00.
func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{
		theatres: map[string]*model.Theatre{
			"th1": {ID: "th1", Name: "Downtown", PricingTierID: "metro"},
		},
		templates: map[string]*model.SeatTemplate{},
		pricing: map[string]*model.TheatrePricing{
			"th1|metro": {TheatreID: "th1", TierID: "metro", Normal: 1000, Executive: 1500, Premium: 2000, VIP: 3000},
		},
		tiers: map[string]*model.PricingTier{
			"metro": {
				ID:      "metro",
				Name:    "Metro",
				Base:    decimal.RequireFromString("1.0"),
				Weekend: decimal.RequireFromString("1.25"),
				Holiday: decimal.RequireFromString("1.5"),
			},
		},
		schedules: map[string]*model.TheatreSchedule{},
	}
	normal := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		normal = append(normal, fmt.Sprintf("A%d", i))
	}
	c.templates["th1"] = (&model.SeatTemplate{
		TheatreID:  "th1",
		TotalSeats: 12,
		Counts:     map[model.SeatTier]int{model.TierNormal: 10, model.TierVIP: 2},
		Layout: model.Layout{
			Rows: 2, Cols: 10,
			Tiers: map[model.SeatTier][]string{model.TierNormal: normal, model.TierVIP: {"V1", "V2"}},
		},
	}).BuildIndex()
	for d := time.Sunday; d <= time.Saturday; d++ {
		c.schedules[fmt.Sprintf("th1|%d", d)] = &model.TheatreSchedule{
			TheatreID:      "th1",
			DayOfWeek:      d,
			AvailableSlots: []model.ClockTime{ct("22:00"), ct("10:00"), ct("13:30"), ct("13:30"), ct("18:30"), ct("23:30")},
			OperatingHours: model.OperatingHours{Open: ct("10:00"), Close: ct("23:00")},
		}
	}
	return c
}

func (c *fakeCatalog) Theatre(_ context.Context, id string) (*model.Theatre, error) {
	if t, ok := c.theatres[id]; ok {
		return t, nil
	}
	return nil, model.ErrNotFound
}

func (c *fakeCatalog) SeatTemplate(_ context.Context, theatreID string) (*model.SeatTemplate, error) {
	if t, ok := c.templates[theatreID]; ok {
		return t, nil
	}
	return nil, model.ErrNotFound
}

func (c *fakeCatalog) TheatrePricing(_ context.Context, theatreID, tierID string) (*model.TheatrePricing, error) {
	if p, ok := c.pricing[theatreID+"|"+tierID]; ok {
		return p, nil
	}
	return nil, model.ErrNotFound
}

func (c *fakeCatalog) TheatreSchedule(_ context.Context, theatreID string, day time.Weekday) (*model.TheatreSchedule, error) {
	if s, ok := c.schedules[fmt.Sprintf("%s|%d", theatreID, day)]; ok {
		return s, nil
	}
	return nil, model.ErrNotFound
}

func (c *fakeCatalog) PricingTier(_ context.Context, tierID string) (*model.PricingTier, error) {
	if t, ok := c.tiers[tierID]; ok {
		return t, nil
	}
	return nil, model.ErrNotFound
}

// memTickets is a minimal ledger for coordinator tests.
type memTickets struct {
	mu      sync.Mutex
	tickets map[string]model.Ticket
}

func newMemTickets() *memTickets { return &memTickets{tickets: map[string]model.Ticket{}} }

func (m *memTickets) Create(_ context.Context, t *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; ok {
		return fmt.Errorf("duplicate ticket %s", t.ID)
	}
	m.tickets[t.ID] = *t
	return nil
}

func (m *memTickets) Get(_ context.Context, id string) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &t, nil
}

func (m *memTickets) ListByUser(_ context.Context, email string) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for _, t := range m.tickets {
		if t.Email == email {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTickets) ListByShowtime(_ context.Context, key model.ShowtimeKey) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ticket
	for _, t := range m.tickets {
		if t.Showtime == key {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTickets) Close(_ context.Context, id string, c model.TicketClosure) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if !t.Status.CanTransitionTo(c.Status) {
		return nil, model.ErrAlreadyTerminal
	}
	c.Apply(&t)
	m.tickets[id] = t
	return &t, nil
}

// mockTicketStore is a testify mock of TicketStore.
type mockTicketStore struct {
	mock.Mock
}

func (m *mockTicketStore) Create(ctx context.Context, t *model.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTicketStore) Get(ctx context.Context, id string) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Ticket)
	return t, args.Error(1)
}

func (m *mockTicketStore) ListByUser(ctx context.Context, email string) ([]model.Ticket, error) {
	args := m.Called(ctx, email)
	t, _ := args.Get(0).([]model.Ticket)
	return t, args.Error(1)
}

func (m *mockTicketStore) ListByShowtime(ctx context.Context, key model.ShowtimeKey) ([]model.Ticket, error) {
	args := m.Called(ctx, key)
	t, _ := args.Get(0).([]model.Ticket)
	return t, args.Error(1)
}

func (m *mockTicketStore) Close(ctx context.Context, id string, c model.TicketClosure) (*model.Ticket, error) {
	args := m.Called(ctx, id, c)
	t, _ := args.Get(0).(*model.Ticket)
	return t, args.Error(1)
}

// recordingPublisher remembers published ticket IDs.
type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []string
	closed    []string
}

func (p *recordingPublisher) TicketConfirmed(_ context.Context, t *model.Ticket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, t.ID)
	return nil
}

func (p *recordingPublisher) TicketClosed(_ context.Context, t *model.Ticket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, t.ID)
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// failingConfirmStore rejects every confirm as if the hold had lapsed.
type failingConfirmStore struct {
	*inventory.MemoryStore
}

func (s failingConfirmStore) Apply(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op inventory.Op, now time.Time) error {
	if op.Kind == inventory.OpConfirm {
		return model.ErrHoldExpired
	}
	return s.MemoryStore.Apply(ctx, key, seatIDs, op, now)
}

type harness struct {
	catalog *fakeCatalog
	clock   *testClock
	inv     *inventory.Inventory
	tickets TicketStore
	events  *recordingPublisher
	coord   *Coordinator
}

func newHarness(store inventory.Store, tickets TicketStore) *harness {
	h := &harness{
		catalog: newFakeCatalog(),
		clock:   &testClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)},
		tickets: tickets,
		events:  &recordingPublisher{},
	}
	if store == nil {
		store = inventory.NewMemoryStore()
	}
	if h.tickets == nil {
		h.tickets = newMemTickets()
	}
	h.inv = inventory.New(store, inventory.WithClock(h.clock.Now))
	holidays, _ := NewStaticHolidays([]string{"2026-12-25"})
	cal := NewCalendar(h.catalog, holidays)
	h.coord = NewCoordinator(Deps{
		Catalog:   h.catalog,
		Calendar:  cal,
		Pricing:   NewResolver(h.catalog, cal),
		Inventory: h.inv,
		Tickets:   h.tickets,
		Events:    h.events,
	}, Options{ThinkHoldTTL: 10 * time.Minute, ConfirmHoldTTL: 30 * time.Second})
	return h
}
