// Package events publishes the reservation core's domain events to a
// topic-routed exchange with retry/DLQ semantics driven by message
// headers. It generalizes the teacher's single-queue, default-exchange
// PublishBookingConfirmed into the full topology the spec requires.
package events

// Routing keys for the four core events, published on the cinema_events
// topic exchange.
const (
	RoutingReservationCreated = "reservation.created"
	RoutingPaymentConfirmed   = "payment.confirmed"
	RoutingReservationExpired = "reservation.expired"
	RoutingSeatReleased       = "seat.released"
)

// Exchange and queue names making up the event bus topology.
const (
	ExchangeEvents = "cinema_events"
	ExchangeRetry  = "cinema_retry"
	ExchangeDLQ    = "cinema_dlq"

	QueueReservationCreated = "reservation_created_queue"
	QueueEmailNotification  = "email_notification_queue"
	QueueAnalytics          = "analytics_queue"
	QueueSeatReleased       = "seat_released_queue"
	QueueRetry              = "cinema_retry_queue"
	QueueDLQ                = "cinema_dlq_queue"
)

// Headers stamped/propagated across retry hops.
const (
	HeaderRetryCount       = "x-retry-count"
	HeaderOriginalExchange = "x-original-exchange"
	HeaderOriginalRouting  = "x-original-routing-key"
	HeaderLastError        = "x-last-error"
)

// ReservationCreated is published once per newly-created PENDING
// reservation.
type ReservationCreated struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	SeatID    string `json:"seatId"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

// PaymentConfirmed is published once per successful Confirm-Payment.
type PaymentConfirmed struct {
	ReservationID string `json:"reservationId"`
	UserID        string `json:"userId"`
	SeatID        string `json:"seatId"`
	Amount        string `json:"amount"`
	Timestamp     string `json:"timestamp"`
}

// ReservationExpired is published once per reservation cancelled by the
// Expiration Reaper.
type ReservationExpired struct {
	ReservationID string `json:"reservationId"`
	SeatID        string `json:"seatId"`
	UserID        string `json:"userId"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}

// SeatReleased accompanies every ReservationExpired event.
type SeatReleased struct {
	SeatID        string `json:"seatId"`
	ReservationID string `json:"reservationId"`
	UserID        string `json:"userId"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
}
