package model

import "time"

// Showtime represents a scheduled screening of a movie in a particular
// hall.  TotalSeats is the configured capacity copied from the hall at
// scheduling time; it is never decremented.  How many seats remain is
// always derived by subtracting the count of actively claimed seats,
// so there is no second mutable counter that could drift from the
// reservation ledger.
//
// Fields:
//
//	ID             – primary key identifier.
//	MovieID        – movie being screened.
//	HallID         – hall where the screening takes place.
//	StartsAt       – scheduled start (show date and time combined, UTC).
//	EndsAt         – scheduled end.
//	BasePriceCents – base ticket price in cents.
//	TotalSeats     – configured seating capacity.
//	IsActive       – false once an admin retires the showtime; showtimes
//	                 with reservations are deactivated, never deleted.
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type Showtime struct {
	ID             uint64    // showtimes.id
	MovieID        uint64    // showtimes.movie_id
	HallID         uint64    // showtimes.hall_id
	StartsAt       time.Time // showtimes.starts_at
	EndsAt         time.Time // showtimes.ends_at
	BasePriceCents uint32    // showtimes.base_price_cents
	TotalSeats     uint32    // showtimes.total_seats
	IsActive       bool      // showtimes.is_active
	CreatedAt      time.Time // showtimes.created_at
	UpdatedAt      time.Time // showtimes.updated_at
}
