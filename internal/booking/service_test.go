package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekbishtt/booking-app/internal/model"
)

// memStore is an in-memory Ledger and Registry.  Allocate and Cancel
// serialize on a mutex, which is one of the atomicity strategies the
// engine permits; the secondary claims check inside Allocate plays the
// role of the storage-level unique constraint.
type memStore struct {
	mu           sync.Mutex
	nextID       uint64
	showtimes    map[uint64]*model.Showtime
	reservations map[uint64]*model.Reservation
	claims       map[uint64]map[string]uint64 // showtimeID -> seat label -> reservationID
}

func newMemStore() *memStore {
	return &memStore{
		showtimes:    make(map[uint64]*model.Showtime),
		reservations: make(map[uint64]*model.Reservation),
		claims:       make(map[uint64]map[string]uint64),
	}
}

func (m *memStore) addShowtime(st model.Showtime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := st
	m.showtimes[st.ID] = &cp
	if m.claims[st.ID] == nil {
		m.claims[st.ID] = make(map[string]uint64)
	}
}

func (m *memStore) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memStore) Allocate(ctx context.Context, showtimeID uint64,
	decide func(st *model.Showtime, occupied []string) (*model.Reservation, error)) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[showtimeID]
	if !ok {
		return nil, ErrNotFound
	}
	occupied := make([]string, 0, len(m.claims[showtimeID]))
	for label := range m.claims[showtimeID] {
		occupied = append(occupied, label)
	}
	res, err := decide(st, occupied)
	if err != nil {
		return nil, err
	}
	var clash []string
	for _, label := range res.Seats {
		if _, taken := m.claims[showtimeID][label]; taken {
			clash = append(clash, label)
		}
	}
	if len(clash) > 0 {
		return nil, &SeatConflictError{Labels: clash}
	}
	m.nextID++
	res.ID = m.nextID
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	cp := *res
	m.reservations[res.ID] = &cp
	for _, label := range res.Seats {
		m.claims[showtimeID][label] = res.ID
	}
	return res, nil
}

func (m *memStore) Cancel(ctx context.Context, reservationID uint64,
	decide func(res *model.Reservation, startsAt time.Time) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	st := m.showtimes[res.ShowtimeID]
	cp := *res
	if err := decide(&cp, st.StartsAt); err != nil {
		return err
	}
	res.Status = model.ReservationCancelled
	res.PaymentStatus = model.PaymentRefunded
	for _, label := range res.Seats {
		delete(m.claims[res.ShowtimeID], label)
	}
	return nil
}

func (m *memStore) ConfirmPayment(ctx context.Context, reservationID uint64, paymentRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	if res.Status != model.ReservationPending {
		return ErrNotPending
	}
	res.Status = model.ReservationConfirmed
	res.PaymentStatus = model.PaymentPaid
	res.PaymentRef = &paymentRef
	return nil
}

func (m *memStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (m *memStore) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if res.ShowtimeID == showtimeID {
			out = append(out, *res)
		}
	}
	return out, nil
}

// seatsByShowtime recomputes occupancy the way the invariant is
// stated: the union of seat sets over non-cancelled reservations.
func (m *memStore) seatsByShowtime(showtimeID uint64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, res := range m.reservations {
		if res.ShowtimeID == showtimeID && res.Status != model.ReservationCancelled {
			out = append(out, res.Seats...)
		}
	}
	return out
}

type notifyCall struct {
	kind          string
	reservationID uint64
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, kind string, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{kind: kind, reservationID: res.ID})
	return f.err
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// newTestService returns a service with a frozen clock, one showtime
// (id 1, capacity per the argument, starting in 24h) and the fakes
// backing it.
func newTestService(t *testing.T, capacity uint32) (*Service, *memStore, *fakeNotifier) {
	t.Helper()
	store := newMemStore()
	store.addShowtime(model.Showtime{
		ID:             1,
		MovieID:        1,
		HallID:         1,
		StartsAt:       testNow.Add(24 * time.Hour),
		EndsAt:         testNow.Add(26 * time.Hour),
		BasePriceCents: 25000,
		TotalSeats:     capacity,
		IsActive:       true,
	})
	notifier := &fakeNotifier{}
	svc := NewService(store, store, notifier, 2*time.Hour)
	svc.now = func() time.Time { return testNow }
	return svc, store, notifier
}

func requireBookingErr(t *testing.T, err error, kind Kind, reason string) *Error {
	t.Helper()
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, kind, be.Kind)
	assert.Equal(t, reason, be.Reason)
	return be
}

func TestTryReserveSuccess(t *testing.T) {
	svc, _, notifier := newTestService(t, 100)

	res, err := svc.TryReserve(context.Background(), 7, 1, []string{"A1", "A2"}, 50000)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, model.PaymentPending, res.PaymentStatus)
	assert.Equal(t, []string{"A1", "A2"}, res.Seats)
	assert.Equal(t, int64(50000), res.AmountCents)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, NotifyBookingConfirmed, notifier.calls[0].kind)
}

func TestTryReserveValidation(t *testing.T) {
	svc, _, _ := newTestService(t, 100)
	ctx := context.Background()

	cases := []struct {
		name   string
		seats  []string
		amount int64
		kind   Kind
		reason string
		labels []string
	}{
		{name: "empty seat list", seats: nil, amount: 100, kind: KindValidation, reason: ReasonEmptySeats},
		{
			name:   "more than ten seats",
			seats:  []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "A11"},
			amount: 100, kind: KindValidation, reason: ReasonTooManySeats,
		},
		{
			name:  "lowercase label rejected",
			seats: []string{"a1"}, amount: 100,
			kind: KindValidation, reason: ReasonInvalidSeatFormat, labels: []string{"a1"},
		},
		{
			name:  "label without digits rejected",
			seats: []string{"A"}, amount: 100,
			kind: KindValidation, reason: ReasonInvalidSeatFormat, labels: []string{"A"},
		},
		{
			name:  "duplicate labels are a self-conflict",
			seats: []string{"B1", "B2", "B1"}, amount: 100,
			kind: KindConflict, reason: ReasonSeatsTaken, labels: []string{"B1"},
		},
		{
			name:  "non-positive amount",
			seats: []string{"C1"}, amount: 0,
			kind: KindValidation, reason: ReasonInvalidAmount,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.TryReserve(ctx, 7, 1, tc.seats, tc.amount)
			be := requireBookingErr(t, err, tc.kind, tc.reason)
			if tc.labels != nil {
				assert.Equal(t, tc.labels, be.Seats)
			}
		})
	}
}

func TestTryReserveShowtimeChecks(t *testing.T) {
	svc, store, _ := newTestService(t, 100)
	ctx := context.Background()

	t.Run("unknown showtime", func(t *testing.T) {
		_, err := svc.TryReserve(ctx, 7, 99, []string{"A1"}, 100)
		requireBookingErr(t, err, KindNotFound, ReasonShowtimeNotFound)
	})

	t.Run("inactive showtime reads as not found", func(t *testing.T) {
		store.addShowtime(model.Showtime{
			ID: 2, StartsAt: testNow.Add(24 * time.Hour), TotalSeats: 50, IsActive: false,
		})
		_, err := svc.TryReserve(ctx, 7, 2, []string{"A1"}, 100)
		requireBookingErr(t, err, KindNotFound, ReasonShowtimeNotFound)
	})

	t.Run("showtime already started", func(t *testing.T) {
		store.addShowtime(model.Showtime{
			ID: 3, StartsAt: testNow.Add(-time.Minute), TotalSeats: 50, IsActive: true,
		})
		_, err := svc.TryReserve(ctx, 7, 3, []string{"A1"}, 100)
		requireBookingErr(t, err, KindWindowClosed, ReasonShowtimeInPast)
	})
}

func TestTryReserveSeatConflict(t *testing.T) {
	svc, _, _ := newTestService(t, 100)
	ctx := context.Background()

	first, err := svc.TryReserve(ctx, 7, 1, []string{"A1", "A2"}, 50000)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, first.Status)

	_, err = svc.TryReserve(ctx, 8, 1, []string{"A1"}, 25000)
	be := requireBookingErr(t, err, KindConflict, ReasonSeatsTaken)
	assert.Equal(t, []string{"A1"}, be.Seats)

	// Rejection is idempotent: the same overlapping request always
	// yields the same conflict, never a silent duplicate.
	_, err = svc.TryReserve(ctx, 8, 1, []string{"A1", "A2"}, 50000)
	be = requireBookingErr(t, err, KindConflict, ReasonSeatsTaken)
	assert.Equal(t, []string{"A1", "A2"}, be.Seats)
}

func TestTryReserveCapacity(t *testing.T) {
	svc, _, _ := newTestService(t, 100)
	ctx := context.Background()

	t.Run("over configured capacity", func(t *testing.T) {
		small, _, _ := newTestService(t, 3)
		_, err := small.TryReserve(ctx, 7, 1, []string{"A1", "A2", "A3", "A4"}, 100)
		be := requireBookingErr(t, err, KindCapacity, ReasonCapacity)
		assert.Equal(t, 3, be.Remaining)
		assert.Equal(t, 4, be.Requested)
	})

	t.Run("remaining shrinks as bookings land", func(t *testing.T) {
		small, _, _ := newTestService(t, 4)
		_, err := small.TryReserve(ctx, 7, 1, []string{"A1", "A2", "A3"}, 100)
		require.NoError(t, err)
		_, err = small.TryReserve(ctx, 8, 1, []string{"B1", "B2"}, 100)
		be := requireBookingErr(t, err, KindCapacity, ReasonCapacity)
		assert.Equal(t, 1, be.Remaining)
		assert.Equal(t, 2, be.Requested)
	})

	// Disjoint seat sets both fit when capacity allows.
	_, err := svc.TryReserve(ctx, 7, 1, []string{"A1", "A2"}, 100)
	require.NoError(t, err)
	_, err = svc.TryReserve(ctx, 8, 1, []string{"A3", "A4"}, 100)
	require.NoError(t, err)
}

func TestTryReserveConcurrentOverlap(t *testing.T) {
	ctx := context.Background()

	// Two simultaneous requests for {A1,A2} and {A2,A3}: exactly one
	// commits, the other gets a conflict naming A2.
	for i := 0; i < 50; i++ {
		svc, store, _ := newTestService(t, 100)
		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})

		for j, seats := range [][]string{{"A1", "A2"}, {"A2", "A3"}} {
			wg.Add(1)
			go func(slot int, seats []string) {
				defer wg.Done()
				<-start
				_, errs[slot] = svc.TryReserve(ctx, uint64(slot+1), 1, seats, 100)
			}(j, seats)
		}
		close(start)
		wg.Wait()

		var okCount, conflictCount int
		for _, err := range errs {
			if err == nil {
				okCount++
				continue
			}
			be := requireBookingErr(t, err, KindConflict, ReasonSeatsTaken)
			assert.Contains(t, be.Seats, "A2")
			conflictCount++
		}
		require.Equal(t, 1, okCount, "exactly one request must win")
		require.Equal(t, 1, conflictCount, "exactly one request must lose")
		assertSeatUniqueness(t, store, 1)
	}
}

func TestTryReserveConcurrentCapacityBound(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t, 10)

	// 8 workers racing for 3 seats each against capacity 10: at most
	// three can win, and committed seats never exceed capacity.
	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			<-start
			row := string(rune('A' + w))
			_, _ = svc.TryReserve(ctx, uint64(w+1), 1, []string{row + "1", row + "2", row + "3"}, 100)
		}(w)
	}
	close(start)
	wg.Wait()

	committed := store.seatsByShowtime(1)
	assert.LessOrEqual(t, len(committed), 10)
	assertSeatUniqueness(t, store, 1)
}

func assertSeatUniqueness(t *testing.T, store *memStore, showtimeID uint64) {
	t.Helper()
	seen := make(map[string]bool)
	for _, label := range store.seatsByShowtime(showtimeID) {
		require.False(t, seen[label], "seat %s claimed twice", label)
		seen[label] = true
	}
}

func TestCancelReleasesSeats(t *testing.T) {
	svc, store, _ := newTestService(t, 100)
	ctx := context.Background()

	res, err := svc.TryReserve(ctx, 7, 1, []string{"B1", "B2"}, 100)
	require.NoError(t, err)

	result, err := svc.Cancel(ctx, res.ID, 7, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, res.ID, result.ReservationID)
	assert.Equal(t, []string{"B1", "B2"}, result.Seats)

	got, err := svc.GetReservation(ctx, res.ID, 7, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, got.Status)
	assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)

	// The exact same seats are immediately bookable again: occupancy
	// is derived by scanning non-cancelled reservations, so there is
	// no separate release step to forget.
	rebook, err := svc.TryReserve(ctx, 8, 1, []string{"B1", "B2"}, 100)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, rebook.Status)
	assertSeatUniqueness(t, store, 1)
}

func TestCancelPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown reservation", func(t *testing.T) {
		svc, _, _ := newTestService(t, 100)
		_, err := svc.Cancel(ctx, 999, 7, model.RoleCustomer)
		requireBookingErr(t, err, KindNotFound, ReasonNotFound)
	})

	t.Run("someone else's reservation reads as not found", func(t *testing.T) {
		svc, _, _ := newTestService(t, 100)
		res, err := svc.TryReserve(ctx, 7, 1, []string{"C1"}, 100)
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, res.ID, 8, model.RoleCustomer)
		requireBookingErr(t, err, KindNotFound, ReasonNotFound)
	})

	t.Run("admin may cancel any reservation", func(t *testing.T) {
		svc, _, _ := newTestService(t, 100)
		res, err := svc.TryReserve(ctx, 7, 1, []string{"C1"}, 100)
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, res.ID, 42, model.RoleAdmin)
		require.NoError(t, err)
	})

	t.Run("already cancelled", func(t *testing.T) {
		svc, _, _ := newTestService(t, 100)
		res, err := svc.TryReserve(ctx, 7, 1, []string{"C1"}, 100)
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, res.ID, 7, model.RoleCustomer)
		require.NoError(t, err)
		_, err = svc.Cancel(ctx, res.ID, 7, model.RoleCustomer)
		requireBookingErr(t, err, KindConflict, ReasonAlreadyCancelled)
	})
}

func TestCancelWindow(t *testing.T) {
	ctx := context.Background()

	// Showtime starts at testNow+24h and the window is 2h.
	cases := []struct {
		name   string
		at     time.Time
		reason string // empty means success
	}{
		{name: "three hours before start succeeds", at: testNow.Add(21 * time.Hour)},
		{name: "exactly at the window boundary succeeds", at: testNow.Add(22 * time.Hour)},
		{name: "one hour before start is too late", at: testNow.Add(23 * time.Hour), reason: ReasonWindowClosed},
		{name: "at start the showtime has passed", at: testNow.Add(24 * time.Hour), reason: ReasonShowtimePassed},
		{name: "after start the showtime has passed", at: testNow.Add(25 * time.Hour), reason: ReasonShowtimePassed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(t, 100)
			res, err := svc.TryReserve(ctx, 7, 1, []string{"D1"}, 100)
			require.NoError(t, err)

			svc.now = func() time.Time { return tc.at }
			_, err = svc.Cancel(ctx, res.ID, 7, model.RoleCustomer)
			if tc.reason == "" {
				require.NoError(t, err)
				return
			}
			requireBookingErr(t, err, KindWindowClosed, tc.reason)
		})
	}
}

func TestConfirmPayment(t *testing.T) {
	svc, _, notifier := newTestService(t, 100)
	ctx := context.Background()

	res, err := svc.TryReserve(ctx, 7, 1, []string{"E1"}, 100)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(ctx, res.ID, 7, model.RoleCustomer, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, confirmed.Status)
	assert.Equal(t, model.PaymentPaid, confirmed.PaymentStatus)
	require.NotNil(t, confirmed.PaymentRef)
	assert.Equal(t, "pay_123", *confirmed.PaymentRef)

	// Second confirmation hits the not-pending guard.
	_, err = svc.ConfirmPayment(ctx, res.ID, 7, model.RoleCustomer, "pay_456")
	requireBookingErr(t, err, KindConflict, ReasonAlreadyCancelled)

	// Cross-user confirmation reads as not found.
	res2, err := svc.TryReserve(ctx, 7, 1, []string{"E2"}, 100)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, res2.ID, 9, model.RoleCustomer, "pay_789")
	requireBookingErr(t, err, KindNotFound, ReasonNotFound)

	kinds := make([]string, 0, len(notifier.calls))
	for _, call := range notifier.calls {
		kinds = append(kinds, call.kind)
	}
	assert.Contains(t, kinds, NotifyPaymentConfirmed)
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	svc, _, notifier := newTestService(t, 100)
	notifier.err = assert.AnError

	res, err := svc.TryReserve(context.Background(), 7, 1, []string{"F1"}, 100)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
}
