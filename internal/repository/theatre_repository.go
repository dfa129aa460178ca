package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// TheatreRepo reads theatres.  The back office owns the table; the engine
// never writes to it.
type TheatreRepo struct {
	db *sql.DB
}

// NewTheatreRepo constructs a TheatreRepo with the provided DB handle.
func NewTheatreRepo(db *sql.DB) *TheatreRepo {
	return &TheatreRepo{db: db}
}

// GetByID returns the theatre with id or an error wrapping
// model.ErrNotFound.
func (r *TheatreRepo) GetByID(ctx context.Context, id string) (*model.Theatre, error) {
	const q = `SELECT id, name, brand, amenities, pricing_tier_id, created_at, updated_at
		FROM theatres WHERE id = ?`
	var (
		t         model.Theatre
		amenities []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Brand, &amenities, &t.PricingTierID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "theatre %s", id)
	}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &t.Amenities); err != nil {
			return nil, fmt.Errorf("decode amenities of theatre %s: %w", id, err)
		}
	}
	return &t, nil
}

// ListAll returns every theatre ordered by ID.
func (r *TheatreRepo) ListAll(ctx context.Context) ([]model.Theatre, error) {
	const q = `SELECT id, name, brand, amenities, pricing_tier_id, created_at, updated_at
		FROM theatres ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Theatre
	for rows.Next() {
		var (
			t         model.Theatre
			amenities []byte
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Brand, &amenities, &t.PricingTierID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if len(amenities) > 0 {
			if err := json.Unmarshal(amenities, &t.Amenities); err != nil {
				return nil, fmt.Errorf("decode amenities of theatre %s: %w", t.ID, err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
