package model

import (
	"fmt"
	"sort"
	"strings"
)

// SeatTier is the pricing class of a seat.
type SeatTier string

const (
	TierNormal    SeatTier = "NORMAL"
	TierExecutive SeatTier = "EXECUTIVE"
	TierPremium   SeatTier = "PREMIUM"
	TierVIP       SeatTier = "VIP"
)

// SeatTiers lists the known tiers in display order.
var SeatTiers = []SeatTier{TierNormal, TierExecutive, TierPremium, TierVIP}

// IsValid reports whether t is one of the four known tiers.
func (t SeatTier) IsValid() bool {
	switch t {
	case TierNormal, TierExecutive, TierPremium, TierVIP:
		return true
	}
	return false
}

func (t SeatTier) String() string { return string(t) }

// ParseSeatTier accepts a tier name in any case.
func ParseSeatTier(s string) (SeatTier, error) {
	t := SeatTier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown seat tier %q", s)
	}
	return t, nil
}

// Layout is the seating blob stored with a template.  Seat IDs are grouped
// by tier; Rows and Cols describe the grid for rendering.
type Layout struct {
	Rows  int                   `json:"rows"`
	Cols  int                   `json:"cols"`
	Tiers map[SeatTier][]string `json:"tiers"`
}

// SeatTemplate is the active seating layout of a theatre.  Only one
// template is active per theatre.  Tickets copy seat tier and price at
// sale time, so swapping a template leaves existing tickets untouched.
//
// Fields:
//
//	TheatreID  – theatre the template belongs to.
//	TotalSeats – declared number of seats.
//	Counts     – declared number of seats per tier.
//	Layout     – seat IDs grouped by tier plus grid metadata.
type SeatTemplate struct {
	TheatreID  string           `json:"theatre_id"`  // seat_templates.theatre_id
	TotalSeats int              `json:"total_seats"` // seat_templates.total_seats
	Counts     map[SeatTier]int `json:"counts"`      // seat_templates.normal_count ... vip_count
	Layout     Layout           `json:"layout"`      // seat_templates.layout (JSON)

	index map[string]SeatTier
}

// TierOf returns the tier of seatID and whether the seat exists.
func (t *SeatTemplate) TierOf(seatID string) (SeatTier, bool) {
	if t.index != nil {
		tier, ok := t.index[seatID]
		return tier, ok
	}
	for tier, ids := range t.Layout.Tiers {
		for _, id := range ids {
			if id == seatID {
				return tier, true
			}
		}
	}
	return "", false
}

// SeatIDs returns every seat in the layout, sorted.
func (t *SeatTemplate) SeatIDs() []string {
	ids := make([]string, 0, t.TotalSeats)
	for _, tierIDs := range t.Layout.Tiers {
		ids = append(ids, tierIDs...)
	}
	sort.Strings(ids)
	return ids
}

// BuildIndex precomputes the seat lookup used by TierOf.  Loaders call it
// once before a template is shared between goroutines.
func (t *SeatTemplate) BuildIndex() *SeatTemplate {
	t.index = make(map[string]SeatTier)
	for tier, ids := range t.Layout.Tiers {
		for _, id := range ids {
			t.index[id] = tier
		}
	}
	return t
}

// Validate checks that the layout agrees with the declared counts.
func (t *SeatTemplate) Validate() error {
	seen := make(map[string]struct{})
	total := 0
	for tier, ids := range t.Layout.Tiers {
		if !tier.IsValid() {
			return fmt.Errorf("layout uses unknown tier %q", tier)
		}
		if c, ok := t.Counts[tier]; ok && c != len(ids) {
			return fmt.Errorf("tier %s declares %d seats but layout has %d", tier, c, len(ids))
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				return fmt.Errorf("seat %s appears more than once", id)
			}
			seen[id] = struct{}{}
		}
		total += len(ids)
	}
	for tier, c := range t.Counts {
		if _, ok := t.Layout.Tiers[tier]; !ok && c != 0 {
			return fmt.Errorf("tier %s declares %d seats but layout has none", tier, c)
		}
	}
	if t.TotalSeats != total {
		return fmt.Errorf("template declares %d seats but layout has %d", t.TotalSeats, total)
	}
	return nil
}
