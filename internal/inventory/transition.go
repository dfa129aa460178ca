package inventory

import (
	"time"

	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// OpKind names a conditional seat-state transition.
type OpKind int

const (
	// OpReserve moves FREE seats (or seats already held by the same
	// holder, or expired holds) to HELD.  All or nothing.
	OpReserve OpKind = iota
	// OpConfirm moves seats HELD under Token to SOLD for TicketID.
	OpConfirm
	// OpRelease moves seats HELD by HolderID under Token back to FREE.
	OpRelease
	// OpFreeSold moves seats SOLD to TicketID back to FREE.
	OpFreeSold
)

func (k OpKind) String() string {
	switch k {
	case OpReserve:
		return "reserve"
	case OpConfirm:
		return "confirm"
	case OpRelease:
		return "release"
	case OpFreeSold:
		return "free_sold"
	}
	return "unknown"
}

// Op is a transition request applied atomically to a set of seats.
type Op struct {
	Kind      OpKind
	HolderID  string
	Token     string
	ExpiresAt time.Time
	TicketID  string
}

// Plan computes the writes that op implies for seatIDs given their current
// records (a missing record is FREE).  A returned record with State FREE
// means "delete the row".  On error nothing may be written.
//
// Every Store runs Plan inside its own critical section, so the rules live
// here once no matter which backend holds the state.
func Plan(current map[string]model.SeatRecord, seatIDs []string, op Op, now time.Time) (map[string]model.SeatRecord, error) {
	writes := make(map[string]model.SeatRecord, len(seatIDs))
	switch op.Kind {
	case OpReserve:
		var conflicts []string
		for _, id := range seatIDs {
			rec := current[id]
			switch rec.Effective(now) {
			case model.SeatFree:
			case model.SeatHeld:
				if rec.HolderID != op.HolderID {
					conflicts = append(conflicts, id)
				}
			default:
				conflicts = append(conflicts, id)
			}
		}
		if len(conflicts) > 0 {
			return nil, &model.SeatUnavailableError{SeatIDs: conflicts}
		}
		for _, id := range seatIDs {
			writes[id] = model.SeatRecord{
				SeatID:    id,
				State:     model.SeatHeld,
				HolderID:  op.HolderID,
				HoldToken: op.Token,
				ExpiresAt: op.ExpiresAt,
			}
		}

	case OpConfirm:
		for _, id := range seatIDs {
			rec := current[id]
			switch {
			case rec.State == model.SeatSold && rec.HoldToken == op.Token:
				// confirmed earlier under the same token
			case rec.State == model.SeatHeld && rec.HoldToken == op.Token && !rec.Expired(now):
				rec.State = model.SeatSold
				rec.TicketID = op.TicketID
				rec.ExpiresAt = time.Time{}
				writes[id] = rec
			default:
				return nil, model.ErrHoldExpired
			}
		}

	case OpRelease:
		for _, id := range seatIDs {
			rec := current[id]
			if rec.State == model.SeatHeld && rec.HoldToken == op.Token && rec.HolderID == op.HolderID {
				writes[id] = model.SeatRecord{SeatID: id, State: model.SeatFree}
			}
		}

	case OpFreeSold:
		for _, id := range seatIDs {
			if rec := current[id]; rec.State == model.SeatSold && rec.TicketID == op.TicketID {
				writes[id] = model.SeatRecord{SeatID: id, State: model.SeatFree}
			}
		}
	}
	return writes, nil
}
