package model

import "time"

// Theatre is a cinema venue as maintained by the administrative back
// office.  The engine never mutates theatres; it only reads the active
// pricing tier assignment and uses the ID as part of every showtime key.
//
// Fields:
//
//	ID            – primary key identifier (e.g. "th1").
//	Name          – display name.
//	Brand         – chain or brand the theatre belongs to.
//	Amenities     – optional list of amenities (parking, dolby, ...).
//	PricingTierID – pricing tier currently assigned to the theatre.
//	CreatedAt     – timestamp when the theatre was created.
//	UpdatedAt     – timestamp of last update.
type Theatre struct {
	ID            string    `json:"id"`                  // theatres.id
	Name          string    `json:"name"`                // theatres.name
	Brand         string    `json:"brand"`               // theatres.brand
	Amenities     []string  `json:"amenities,omitempty"` // theatres.amenities (JSON)
	PricingTierID string    `json:"pricing_tier_id"`     // theatres.pricing_tier_id
	CreatedAt     time.Time `json:"created_at"`          // theatres.created_at
	UpdatedAt     time.Time `json:"updated_at"`          // theatres.updated_at
}
