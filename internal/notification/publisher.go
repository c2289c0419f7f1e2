package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/abhishekbishtt/booking-app/internal/model"
)

const queueName = "reservation.events"

// Publisher sends reservation events to the broker.  It implements
// the notifier contract of the booking service: failures are returned
// so the caller can log them, but a reservation never fails because
// the broker is down.  With an empty URL publishing is a no-op.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Notify publishes one event for the reservation.  The connection is
// opened per publish; event volume here is a handful per booking, not
// a firehose, and a short-lived connection never holds a stale
// channel across broker restarts.
func (p *Publisher) Notify(ctx context.Context, kind string, res *model.Reservation) error {
	if p.url == "" {
		return nil
	}
	ev := Event{
		EventID:       uuid.NewString(),
		Kind:          kind,
		ReservationID: res.ID,
		UserID:        res.UserID,
		ShowtimeID:    res.ShowtimeID,
		Seats:         res.Seats,
		AmountCents:   res.AmountCents,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts; declare is idempotent.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
