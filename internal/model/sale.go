package model

import "time"

// PaymentMethod enumerates how a Sale was settled.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentPix        PaymentMethod = "PIX"
	PaymentCash       PaymentMethod = "CASH"
)

// Sale is created exactly once a Reservation is confirmed; the unique
// constraint on ReservationID makes the creating upsert safe to retry.
//
// Fields:
//  ID            – text primary key (uuid).
//  ReservationID – unique, 1:1 with the confirmed Reservation.
//  Amount        – the Session price at confirmation time.
//  PaymentMethod – how the sale was settled.
//  CreatedAt     – creation timestamp.
type Sale struct {
	ID            string        // sales.id
	ReservationID string        // sales.reservation_id
	Amount        string        // sales.amount, numeric(10,2) as decimal string
	PaymentMethod PaymentMethod // sales.payment_method
	CreatedAt     time.Time     // sales.created_at
}
