// Package notification publishes reservation lifecycle events to
// RabbitMQ and runs the background consumer that turns them into
// notification log entries.
package notification

// Event is the payload published to the reservation.events queue.
// It carries enough for downstream consumers to notify the user or
// feed analytics without querying the primary database.
type Event struct {
	EventID       string   `json:"event_id"`
	Kind          string   `json:"kind"`
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	Seats         []string `json:"seats"`
	AmountCents   int64    `json:"amount_cents"`
	OccurredAt    string   `json:"occurred_at"`
}
