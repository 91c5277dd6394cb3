package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/rpedro/seatlock/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers the health check on the provided Echo
// instance. This can be used by load balancers or monitoring systems to
// verify that the service is up and running.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the two exposed operations the core
// implements — createReservation and confirmPayment — per the spec's
// "exposed operations (any transport)" list. No auth or rate-limiting
// middleware is attached: that is an external collaborator's concern.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler) {
	g := e.Group("/v1/reservations")
	g.POST("", h.CreateReservation)
	g.POST("/:id/confirm", h.ConfirmPayment)
}
