package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
)

type fakeSource struct {
	mu     sync.Mutex
	due    []model.Reservation
	marked []uint64
	err    error
}

func (f *fakeSource) DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Reservation, len(f.due))
	copy(out, f.due)
	return out, nil
}

func (f *fakeSource) MarkReminderSent(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	for i := range f.due {
		if f.due[i].ID == id {
			f.due = append(f.due[:i], f.due[i+1:]...)
			break
		}
	}
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	kinds  []string
	ids    []uint64
	failID uint64
}

func (f *fakeNotifier) Notify(ctx context.Context, kind string, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failID != 0 && res.ID == f.failID {
		return errors.New("broker down")
	}
	f.kinds = append(f.kinds, kind)
	f.ids = append(f.ids, res.ID)
	return nil
}

func TestRunOnceSendsDueReminders(t *testing.T) {
	src := &fakeSource{due: []model.Reservation{
		{ID: 1, UserID: 10, ShowtimeID: 5, Status: model.ReservationConfirmed},
		{ID: 2, UserID: 11, ShowtimeID: 5, Status: model.ReservationConfirmed},
	}}
	n := &fakeNotifier{}
	s := New(src, n, 2*time.Hour, time.Hour)

	sent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []uint64{1, 2}, n.ids)
	assert.Equal(t, []uint64{1, 2}, src.marked)
	for _, kind := range n.kinds {
		assert.Equal(t, booking.NotifyReminder, kind)
	}
}

func TestRunOnceSkipsFailedNotify(t *testing.T) {
	src := &fakeSource{due: []model.Reservation{
		{ID: 1, Status: model.ReservationConfirmed},
		{ID: 2, Status: model.ReservationConfirmed},
	}}
	n := &fakeNotifier{failID: 1}
	s := New(src, n, 2*time.Hour, time.Hour)

	sent, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	// The failed reservation stays unmarked, so the next sweep retries it.
	assert.Equal(t, []uint64{2}, src.marked)

	n.failID = 0
	sent, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint64{2, 1}, src.marked)
}

func TestRunOnceSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("db gone")}
	s := New(src, &fakeNotifier{}, 2*time.Hour, time.Hour)

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	src := &fakeSource{}
	s := New(src, &fakeNotifier{}, 2*time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
