package model

import "time"

// Movie is a title that can be scheduled into showtimes.  Catalog
// metadata only; the reservation core never reads anything here
// beyond the title for display joins.
type Movie struct {
	ID            uint64    // movies.id
	Title         string    // movies.title
	Genre         string    // movies.genre
	DurationMin   uint32    // movies.duration_min
	Certification string    // movies.certification (e.g. "U/A")
	CreatedAt     time.Time // movies.created_at
	UpdatedAt     time.Time // movies.updated_at
}
