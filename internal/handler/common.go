package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-engine/internal/logger"
	"github.com/iliyamo/cinema-ticket-engine/internal/middleware"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string   `json:"error"`
	Message   string   `json:"message,omitempty"`
	Field     string   `json:"field,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// writeError maps a domain error onto its HTTP status.  Anything it does
// not recognise is logged and reported as a bare 500.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	var (
		verr *model.ValidationError
		cerr *model.ConfigurationError
		serr *model.SeatUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorBody{Error: "validation_error", Field: verr.Field, Message: verr.Reason})
	case errors.As(err, &serr):
		return c.JSON(http.StatusConflict, errorBody{Error: "seat_unavailable", Message: "some seats are no longer available", Conflicts: serr.SeatIDs})
	case errors.Is(err, model.ErrHoldExpired):
		return c.JSON(http.StatusGone, errorBody{Error: "hold_expired", Message: "the hold lapsed; select seats again"})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()})
	case errors.Is(err, model.ErrAlreadyTerminal):
		return c.JSON(http.StatusConflict, errorBody{Error: "already_terminal", Message: "ticket is already cancelled or refunded"})
	case errors.Is(err, model.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.As(err, &cerr):
		log.ErrorWithContext(c.Request().Context(), "reference data problem", err, map[string]any{"path": c.Path()})
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "configuration_error", Message: cerr.Reason})
	}
	log.ErrorWithContext(c.Request().Context(), "request failed", err, map[string]any{"path": c.Path()})
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal_error"})
}

// badRequest answers 400 for input rejected before reaching the engine.
func badRequest(c echo.Context, field, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: "validation_error", Field: field, Message: msg})
}

// caller returns the identity set by JWTAuth or answers 401.
func caller(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	return id, nil
}

// showtimeParam builds a showtime key from the :date and :time path
// parameters and the named theatre parameter.
func showtimeParam(c echo.Context, theatreParam string) (model.ShowtimeKey, error) {
	key, err := model.NewShowtimeKey(c.Param(theatreParam), c.Param("date"), c.Param("time"))
	if err != nil {
		return model.ShowtimeKey{}, model.Invalid("showtime", "%v", err)
	}
	return key, nil
}
