package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// SeatTemplateRepo reads the active seating template of a theatre.  The
// layout is stored as a JSON blob.
type SeatTemplateRepo struct {
	db *sql.DB
}

// NewSeatTemplateRepo constructs a SeatTemplateRepo.
func NewSeatTemplateRepo(db *sql.DB) *SeatTemplateRepo {
	return &SeatTemplateRepo{db: db}
}

// GetByTheatre returns the active template of theatreID with its seat index
// built.
func (r *SeatTemplateRepo) GetByTheatre(ctx context.Context, theatreID string) (*model.SeatTemplate, error) {
	const q = `SELECT theatre_id, total_seats, normal_count, executive_count, premium_count, vip_count, layout
		FROM seat_templates WHERE theatre_id = ?`
	var (
		tpl                        model.SeatTemplate
		normal, exec, premium, vip int
		layout                     []byte
	)
	err := r.db.QueryRowContext(ctx, q, theatreID).Scan(
		&tpl.TheatreID, &tpl.TotalSeats, &normal, &exec, &premium, &vip, &layout,
	)
	if err != nil {
		return nil, translate(err, "seat template of theatre %s", theatreID)
	}
	if err := json.Unmarshal(layout, &tpl.Layout); err != nil {
		return nil, model.Misconfigured("seat template of theatre %s has an unreadable layout: %v", theatreID, err)
	}
	tpl.Counts = map[model.SeatTier]int{
		model.TierNormal:    normal,
		model.TierExecutive: exec,
		model.TierPremium:   premium,
		model.TierVIP:       vip,
	}
	return tpl.BuildIndex(), nil
}

// Upsert replaces the active template of a theatre.  Used by seeding and
// tests; the back office normally owns this table.
func (r *SeatTemplateRepo) Upsert(ctx context.Context, tpl *model.SeatTemplate) error {
	layout, err := json.Marshal(tpl.Layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	const q = `INSERT INTO seat_templates
		(theatre_id, total_seats, normal_count, executive_count, premium_count, vip_count, layout)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE total_seats = VALUES(total_seats), normal_count = VALUES(normal_count),
		executive_count = VALUES(executive_count), premium_count = VALUES(premium_count),
		vip_count = VALUES(vip_count), layout = VALUES(layout)`
	_, err = r.db.ExecContext(ctx, q, tpl.TheatreID, tpl.TotalSeats,
		tpl.Counts[model.TierNormal], tpl.Counts[model.TierExecutive],
		tpl.Counts[model.TierPremium], tpl.Counts[model.TierVIP], layout)
	return err
}
