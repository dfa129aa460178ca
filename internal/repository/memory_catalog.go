package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// Seed is the YAML document that populates a MemoryCatalog.
type Seed struct {
	// PricingTiers are the named multiplier bundles.
	PricingTiers []SeedPricingTier `yaml:"pricing_tiers"`

	// Theatres with their template, prices and weekly schedule.
	Theatres []SeedTheatre `yaml:"theatres"`

	// Holidays are YYYY-MM-DD dates priced with the holiday multiplier.
	Holidays []string `yaml:"holidays"`
}

// SeedPricingTier holds multipliers as strings so they parse exactly.
type SeedPricingTier struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Base    string `yaml:"base"`
	Weekend string `yaml:"weekend"`
	Holiday string `yaml:"holiday"`
}

// SeedPrices are base prices in minor units for one pricing tier.
type SeedPrices struct {
	Normal    int64 `yaml:"normal"`
	Executive int64 `yaml:"executive"`
	Premium   int64 `yaml:"premium"`
	VIP       int64 `yaml:"vip"`
}

// SeedTheatre describes one theatre.
type SeedTheatre struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Brand       string   `yaml:"brand"`
	Amenities   []string `yaml:"amenities"`
	PricingTier string   `yaml:"pricing_tier"`

	// Prices maps a pricing tier ID to the base prices charged under it.
	Prices map[string]SeedPrices `yaml:"prices"`

	// Template lists seat IDs per seat tier.  Counts and total are derived.
	Template struct {
		Rows  int                 `yaml:"rows"`
		Cols  int                 `yaml:"cols"`
		Tiers map[string][]string `yaml:"tiers"`
	} `yaml:"template"`

	Schedule []SeedSchedule `yaml:"schedule"`
}

// SeedSchedule applies the same slots and hours to a set of weekdays.
type SeedSchedule struct {
	Days  SeedDays `yaml:"days"`
	Slots []string `yaml:"slots"`
	Open  string   `yaml:"open"`
	Close string   `yaml:"close"`
}

// SeedDays accepts either a list of day names or the scalar "daily".
//
//	days: daily
//	days: [sat, sun]
type SeedDays []time.Weekday

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (d *SeedDays) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if strings.EqualFold(value.Value, "daily") {
			*d = SeedDays{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
			return nil
		}
		return fmt.Errorf("line %d: days must be \"daily\" or a list of day names", value.Line)
	}
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	out := make(SeedDays, 0, len(names))
	for _, n := range names {
		short := strings.ToLower(strings.TrimSpace(n))
		if len(short) > 3 {
			short = short[:3]
		}
		wd, ok := dayNames[short]
		if !ok {
			return fmt.Errorf("line %d: unknown day %q", value.Line, n)
		}
		out = append(out, wd)
	}
	*d = out
	return nil
}

// MemoryCatalog serves reference data held in memory.  It is immutable
// after construction and safe for concurrent use.
type MemoryCatalog struct {
	theatres  map[string]*model.Theatre
	templates map[string]*model.SeatTemplate
	pricing   map[string]*model.TheatrePricing
	tiers     map[string]*model.PricingTier
	schedules map[string]*model.TheatreSchedule
	holidays  map[string]struct{}
}

// LoadSeedFile reads and parses a YAML seed file.
func LoadSeedFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	cat, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return cat, nil
}

// ParseSeed builds a MemoryCatalog from YAML.
func ParseSeed(data []byte) (*MemoryCatalog, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return NewMemoryCatalog(seed)
}

// NewMemoryCatalog converts a decoded seed into a catalog.  Unlike the
// lookup paths, structural problems here are rejected up front.
func NewMemoryCatalog(seed Seed) (*MemoryCatalog, error) {
	c := &MemoryCatalog{
		theatres:  make(map[string]*model.Theatre),
		templates: make(map[string]*model.SeatTemplate),
		pricing:   make(map[string]*model.TheatrePricing),
		tiers:     make(map[string]*model.PricingTier),
		schedules: make(map[string]*model.TheatreSchedule),
		holidays:  make(map[string]struct{}),
	}
	for _, st := range seed.PricingTiers {
		tier, err := st.toModel()
		if err != nil {
			return nil, err
		}
		c.tiers[tier.ID] = tier
	}
	for i := range seed.Theatres {
		if err := c.addTheatre(&seed.Theatres[i]); err != nil {
			return nil, err
		}
	}
	for _, h := range seed.Holidays {
		if _, err := time.Parse(model.DateLayout, h); err != nil {
			return nil, fmt.Errorf("holiday %q: want YYYY-MM-DD", h)
		}
		c.holidays[h] = struct{}{}
	}
	return c, nil
}

func (st SeedPricingTier) toModel() (*model.PricingTier, error) {
	if st.ID == "" {
		return nil, fmt.Errorf("pricing tier without id")
	}
	t := &model.PricingTier{ID: st.ID, Name: st.Name}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
		nm  string
	}{{st.Base, &t.Base, "base"}, {st.Weekend, &t.Weekend, "weekend"}, {st.Holiday, &t.Holiday, "holiday"}} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("pricing tier %s: %s multiplier %q: %w", st.ID, f.nm, f.raw, err)
		}
		*f.dst = d
	}
	return t, nil
}

func (c *MemoryCatalog) addTheatre(st *SeedTheatre) error {
	if st.ID == "" {
		return fmt.Errorf("theatre without id")
	}
	c.theatres[st.ID] = &model.Theatre{
		ID:            st.ID,
		Name:          st.Name,
		Brand:         st.Brand,
		Amenities:     st.Amenities,
		PricingTierID: st.PricingTier,
	}

	for tierID, p := range st.Prices {
		c.pricing[pricingKey(st.ID, tierID)] = &model.TheatrePricing{
			TheatreID: st.ID, TierID: tierID,
			Normal: p.Normal, Executive: p.Executive, Premium: p.Premium, VIP: p.VIP,
		}
	}

	if len(st.Template.Tiers) > 0 {
		tpl := &model.SeatTemplate{
			TheatreID: st.ID,
			Counts:    make(map[model.SeatTier]int),
			Layout:    model.Layout{Rows: st.Template.Rows, Cols: st.Template.Cols, Tiers: make(map[model.SeatTier][]string)},
		}
		for name, ids := range st.Template.Tiers {
			tier, err := model.ParseSeatTier(name)
			if err != nil {
				return fmt.Errorf("theatre %s template: %w", st.ID, err)
			}
			tpl.Layout.Tiers[tier] = ids
			tpl.Counts[tier] = len(ids)
			tpl.TotalSeats += len(ids)
		}
		if err := tpl.Validate(); err != nil {
			return fmt.Errorf("theatre %s template: %w", st.ID, err)
		}
		c.templates[st.ID] = tpl.BuildIndex()
	}

	for _, ss := range st.Schedule {
		open, err := model.ParseClockTime(ss.Open)
		if err != nil {
			return fmt.Errorf("theatre %s schedule open: %w", st.ID, err)
		}
		closeAt, err := model.ParseClockTime(ss.Close)
		if err != nil {
			return fmt.Errorf("theatre %s schedule close: %w", st.ID, err)
		}
		slots := make([]model.ClockTime, 0, len(ss.Slots))
		for _, s := range ss.Slots {
			t, err := model.ParseClockTime(s)
			if err != nil {
				return fmt.Errorf("theatre %s schedule slot: %w", st.ID, err)
			}
			slots = append(slots, t)
		}
		for _, d := range ss.Days {
			c.schedules[scheduleKey(st.ID, d)] = &model.TheatreSchedule{
				TheatreID:      st.ID,
				DayOfWeek:      d,
				AvailableSlots: slots,
				OperatingHours: model.OperatingHours{Open: open, Close: closeAt},
			}
		}
	}
	return nil
}

func pricingKey(theatreID, tierID string) string { return theatreID + "|" + tierID }

func scheduleKey(theatreID string, d time.Weekday) string {
	return fmt.Sprintf("%s|%d", theatreID, int(d))
}

func (c *MemoryCatalog) Theatre(_ context.Context, id string) (*model.Theatre, error) {
	if t, ok := c.theatres[id]; ok {
		return t, nil
	}
	return nil, notFound("theatre %s", id)
}

func (c *MemoryCatalog) SeatTemplate(_ context.Context, theatreID string) (*model.SeatTemplate, error) {
	if t, ok := c.templates[theatreID]; ok {
		return t, nil
	}
	return nil, notFound("seat template of theatre %s", theatreID)
}

func (c *MemoryCatalog) TheatrePricing(_ context.Context, theatreID, tierID string) (*model.TheatrePricing, error) {
	if p, ok := c.pricing[pricingKey(theatreID, tierID)]; ok {
		return p, nil
	}
	return nil, notFound("pricing of theatre %s under tier %s", theatreID, tierID)
}

func (c *MemoryCatalog) TheatreSchedule(_ context.Context, theatreID string, day time.Weekday) (*model.TheatreSchedule, error) {
	if s, ok := c.schedules[scheduleKey(theatreID, day)]; ok {
		return s, nil
	}
	return nil, notFound("schedule of theatre %s on %s", theatreID, day)
}

func (c *MemoryCatalog) PricingTier(_ context.Context, tierID string) (*model.PricingTier, error) {
	if t, ok := c.tiers[tierID]; ok {
		return t, nil
	}
	return nil, notFound("pricing tier %s", tierID)
}

// IsHoliday reports whether the seed lists date as a holiday.
func (c *MemoryCatalog) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	_, ok := c.holidays[date.Format(model.DateLayout)]
	return ok, nil
}
