// Package scheduler runs the periodic reminder sweep for upcoming
// showtimes.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
)

// ReminderSource yields confirmed reservations whose showtime starts
// within the lead window and lets the scheduler mark them handled.
type ReminderSource interface {
	DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]model.Reservation, error)
	MarkReminderSent(ctx context.Context, id uint64) error
}

// Scheduler sweeps for due reminders on a fixed interval and emits a
// reminder event per reservation.  A reservation is marked sent only
// after its event publishes, so a broker outage retries on the next
// sweep rather than silently dropping reminders.
type Scheduler struct {
	src      ReminderSource
	notifier booking.Notifier
	lead     time.Duration
	interval time.Duration
	now      func() time.Time
}

func New(src ReminderSource, notifier booking.Notifier, lead, interval time.Duration) *Scheduler {
	return &Scheduler{
		src:      src,
		notifier: notifier,
		lead:     lead,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps immediately, then on every tick until the context is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if n, err := s.RunOnce(ctx); err != nil {
		log.Printf("reminder: sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("reminder: sent %d reminder(s)", n)
	}
}

// RunOnce performs a single sweep and returns how many reminders went
// out.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.src.DueReminders(ctx, s.now(), s.lead)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range due {
		res := &due[i]
		if err := s.notifier.Notify(ctx, booking.NotifyReminder, res); err != nil {
			log.Printf("reminder: notify reservation %d failed: %v", res.ID, err)
			continue
		}
		if err := s.src.MarkReminderSent(ctx, res.ID); err != nil {
			log.Printf("reminder: mark reservation %d failed: %v", res.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
