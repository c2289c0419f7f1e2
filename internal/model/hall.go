package model

import "time"

// Hall represents an individual screening hall within a theater.
// The seat count recorded here becomes the configured capacity of
// every showtime scheduled into the hall.
//
// Fields:
//
//	ID         – primary key identifier.
//	TheaterID  – containing theater.
//	Name       – unique hall name per theater.
//	FormatType – projection format (e.g. "2D", "IMAX").
//	SeatCount  – number of seats in the hall.
//	IsActive   – whether the hall is active.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type Hall struct {
	ID         uint64    // halls.id
	TheaterID  uint64    // halls.theater_id
	Name       string    // halls.name
	FormatType string    // halls.format_type
	SeatCount  uint32    // halls.seat_count
	IsActive   bool      // halls.is_active
	CreatedAt  time.Time // halls.created_at
	UpdatedAt  time.Time // halls.updated_at
}
