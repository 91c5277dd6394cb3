package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rpedro/seatlock/internal/reservation"
)

// ReservationHandler exposes the core's two operations over HTTP:
// createReservation and confirmPayment. It carries no validation,
// authentication, or rate limiting of its own — those are the external
// collaborator's responsibility per the scope of this core; the handler
// only translates JSON to action input and the action's error Kind to
// an HTTP status.
type ReservationHandler struct {
	Reserver  *reservation.Reserver
	Confirmer *reservation.Confirmer
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(r *reservation.Reserver, c *reservation.Confirmer) *ReservationHandler {
	if r == nil || c == nil {
		panic("nil action passed to NewReservationHandler")
	}
	return &ReservationHandler{Reserver: r, Confirmer: c}
}

type createReservationRequest struct {
	UserID  string   `json:"userId"`
	SeatIDs []string `json:"seatIds"`
}

// CreateReservation handles POST /v1/reservations.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in := reservation.ReserveInput{
		UserID:         body.UserID,
		SeatIDs:        body.SeatIDs,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	}
	out, err := h.Reserver.Reserve(c.Request().Context(), in)
	if err != nil {
		return writeActionError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// ConfirmPayment handles POST /v1/reservations/:id/confirm.
func (h *ReservationHandler) ConfirmPayment(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Confirmer.ConfirmPayment(c.Request().Context(), id); err != nil {
		return writeActionError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// writeActionError maps a *reservation.Error to the HTTP status and body
// the error kind implies. Non-reservation errors are treated as
// Internal.
func writeActionError(c echo.Context, err error) error {
	var actionErr *reservation.Error
	if !errors.As(err, &actionErr) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	switch actionErr.Kind {
	case reservation.NotFoundKind:
		return c.JSON(http.StatusNotFound, echo.Map{"error": actionErr.Msg})
	case reservation.ConflictKind:
		return c.JSON(http.StatusConflict, echo.Map{"error": actionErr.Msg})
	case reservation.BadRequestKind:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": actionErr.Msg})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": actionErr.Msg})
	}
}
