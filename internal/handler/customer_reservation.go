package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
	"github.com/iliyamo/cinema-ticket-engine/internal/service"
)

// CustomerHandler serves holds, bookings and ticket self-service.  Routes
// assume JWTAuth has run; ownership is checked here.
type CustomerHandler struct {
	Coord *service.Coordinator
	Log   *logger.Logger
}

// NewCustomerHandler panics if coord is nil.
func NewCustomerHandler(coord *service.Coordinator, log *logger.Logger) *CustomerHandler {
	if coord == nil {
		panic("nil coordinator passed to NewCustomerHandler")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &CustomerHandler{Coord: coord, Log: log}
}

type holdRequest struct {
	TheatreID string   `json:"theatre_id"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	SeatIDs   []string `json:"seat_ids"`
}

type bookingRequest struct {
	MovieID   string           `json:"movie_id"`
	TheatreID string           `json:"theatre_id"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	SeatIDs   []string         `json:"seat_ids"`
	Hold      *model.HoldToken `json:"hold,omitempty"`
}

type closeRequest struct {
	Reason string `json:"reason"`
}

// HoldSeats handles POST /v1/holds.  It takes a think-time hold and
// returns the token the client must pass to POST /v1/bookings or
// POST /v1/holds/release.
func (h *CustomerHandler) HoldSeats(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "", "invalid request body")
	}
	key, err := model.NewShowtimeKey(body.TheatreID, body.Date, body.Time)
	if err != nil {
		return badRequest(c, "showtime", err.Error())
	}
	token, err := h.Coord.Hold(c.Request().Context(), id, key, body.SeatIDs)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, token)
}

// ReleaseHold handles POST /v1/holds/release with the token from
// HoldSeats as body.  Releasing twice is harmless.
func (h *CustomerHandler) ReleaseHold(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var token model.HoldToken
	if err := c.Bind(&token); err != nil {
		return badRequest(c, "", "invalid request body")
	}
	if err := h.Coord.ReleaseHold(c.Request().Context(), id, token); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Book handles POST /v1/bookings and answers 201 with the ticket.
func (h *CustomerHandler) Book(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var body bookingRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "", "invalid request body")
	}
	ticket, err := h.Coord.Book(c.Request().Context(), service.BookRequest{
		Identity:  id,
		MovieID:   body.MovieID,
		TheatreID: body.TheatreID,
		Date:      body.Date,
		Time:      body.Time,
		SeatIDs:   body.SeatIDs,
		Hold:      body.Hold,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, ticket)
}

// MyTickets handles GET /v1/my-tickets.
func (h *CustomerHandler) MyTickets(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	tickets, err := h.Coord.TicketsByUser(c.Request().Context(), id.Email)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets, "count": len(tickets)})
}

// GetTicket handles GET /v1/tickets/:id for the owner or an admin.
func (h *CustomerHandler) GetTicket(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	t, err := h.Coord.Authorize(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// CancelTicket handles POST /v1/tickets/:id/cancel for the owner or an
// admin.  The seats go back on sale.
func (h *CustomerHandler) CancelTicket(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var body closeRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "", "invalid request body")
	}
	ctx := c.Request().Context()
	if _, err := h.Coord.Authorize(ctx, id, c.Param("id")); err != nil {
		return writeError(c, h.Log, err)
	}
	t, err := h.Coord.Cancel(ctx, c.Param("id"), body.Reason)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}
