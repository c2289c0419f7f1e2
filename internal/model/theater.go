package model

import "time"

// Theater is a physical venue containing one or more halls.
type Theater struct {
	ID        uint64    // theaters.id
	Name      string    // theaters.name
	Address   string    // theaters.address
	City      string    // theaters.city
	CreatedAt time.Time // theaters.created_at
	UpdatedAt time.Time // theaters.updated_at
}
