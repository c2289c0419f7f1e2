package model

import "time"

// Reservation lifecycle statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// Payment statuses tracked alongside the reservation status.  The
// transitions are recorded here; actual money movement is the payment
// collaborator's business.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Reservation records a user's claim on a set of seats for one
// showtime.  The seat set is immutable after creation; changing seats
// means cancelling and rebooking.  Seat labels follow the pattern of
// one uppercase letter and one or more digits ("A1", "B12").
//
// Fields:
//
//	ID            – primary key identifier.
//	UserID        – user who made the reservation.
//	ShowtimeID    – showtime being reserved.
//	Seats         – seat labels claimed, in request order.
//	AmountCents   – total amount charged in cents.
//	Status        – pending, confirmed or cancelled.
//	PaymentStatus – pending, paid or refunded.
//	PaymentRef    – external payment reference, if any.
//	ReminderSent  – whether the showtime reminder has gone out.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64    // reservations.id
	UserID        uint64    // reservations.user_id
	ShowtimeID    uint64    // reservations.showtime_id
	Seats         []string  // reservation_seats.seat_label rows
	AmountCents   int64     // reservations.amount_cents
	Status        string    // reservations.status
	PaymentStatus string    // reservations.payment_status
	PaymentRef    *string   // reservations.payment_ref (nullable)
	ReminderSent  bool      // reservations.reminder_sent
	CreatedAt     time.Time // reservations.created_at
	UpdatedAt     time.Time // reservations.updated_at
}
