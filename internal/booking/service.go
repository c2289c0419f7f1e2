package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/abhishekbishtt/booking-app/internal/model"
)

// Notification kinds passed to the Notifier collaborator.
const (
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyPaymentConfirmed = "payment_confirmed"
	NotifyReminder         = "reminder"
)

// Registry exposes read access to showtime scheduling data.  The core
// never mutates a showtime.
type Registry interface {
	// GetShowtime returns the showtime regardless of its active flag,
	// or ErrNotFound.
	GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error)
}

// Ledger is the authority for which seats are taken.  Implementations
// must make Allocate atomic per showtime: the decide callback runs
// against an occupancy snapshot that cannot be invalidated by another
// writer before this reservation commits.  The MySQL ledger does this
// with a row lock on the showtime plus a unique (showtime, seat) claim
// constraint; the in-memory test ledger uses a mutex.
type Ledger interface {
	// Allocate loads the showtime and the occupied seat set (union of
	// seat labels over non-cancelled reservations), then invokes
	// decide.  A reservation returned by decide is persisted before
	// Allocate returns; an error from decide aborts without writing.
	// A lost seat race surfaces as *SeatConflictError; a missing
	// showtime as ErrNotFound.
	Allocate(ctx context.Context, showtimeID uint64,
		decide func(st *model.Showtime, occupied []string) (*model.Reservation, error)) (*model.Reservation, error)

	// Cancel loads the reservation and its showtime start under a
	// write lock and invokes decide.  When decide returns nil the
	// reservation is marked cancelled with payment status refunded and
	// its seat claims are released in the same transaction.
	Cancel(ctx context.Context, reservationID uint64,
		decide func(res *model.Reservation, startsAt time.Time) error) error

	// ConfirmPayment moves a pending reservation to confirmed/paid,
	// recording the external payment reference.  ErrNotFound when the
	// reservation is absent, ErrNotPending when it is not pending.
	ConfirmPayment(ctx context.Context, reservationID uint64, paymentRef string) error

	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Reservation, error)
}

// Notifier is the external notification collaborator.  Calls are
// best-effort; the service logs failures and never lets them fail an
// already-committed reservation.
type Notifier interface {
	Notify(ctx context.Context, kind string, res *model.Reservation) error
}

// Service wires the allocation engine, the cancellation policy and the
// external collaborators together.
type Service struct {
	ledger       Ledger
	registry     Registry
	notifier     Notifier
	cancelWindow time.Duration
	now          func() time.Time
}

// NewService builds a Service.  cancelWindow is how long before the
// showtime start cancellation closes (the classic policy is two
// hours).  notifier may be nil, in which case no events are emitted.
func NewService(ledger Ledger, registry Registry, notifier Notifier, cancelWindow time.Duration) *Service {
	return &Service{
		ledger:       ledger,
		registry:     registry,
		notifier:     notifier,
		cancelWindow: cancelWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// TryReserve admits or rejects a booking request.  Preconditions are
// checked in a fixed order so every rejection names one specific
// violation: seat count, label format, duplicate labels, showtime
// existence and activity, showtime in the future, capacity, seat
// overlap, and finally the amount.  On admission the reservation is
// persisted in pending/pending state and a booking confirmation event
// is fired after commit.
func (s *Service) TryReserve(ctx context.Context, userID, showtimeID uint64, seats []string, amountCents int64) (*model.Reservation, error) {
	if len(seats) == 0 {
		return nil, errEmptySeats()
	}
	if len(seats) > MaxSeatsPerBooking {
		return nil, errTooManySeats(len(seats))
	}
	if bad := invalidLabels(seats); len(bad) > 0 {
		return nil, errInvalidSeatFormat(bad)
	}
	// A label repeated within one request is a self-conflict: the
	// occupancy check below only sees committed claims, so duplicates
	// must be caught explicitly rather than deduplicated away.
	if dup := repeatedLabels(seats); len(dup) > 0 {
		return nil, errSeatsAlreadyTaken(dup)
	}

	res, err := s.ledger.Allocate(ctx, showtimeID, func(st *model.Showtime, occupied []string) (*model.Reservation, error) {
		if !st.IsActive {
			return nil, errShowtimeNotFound()
		}
		if !st.StartsAt.After(s.now()) {
			return nil, errShowtimeInPast()
		}
		remaining := int(st.TotalSeats) - len(occupied)
		if len(seats) > remaining {
			return nil, errInsufficientCapacity(remaining, len(seats))
		}
		occ := make(map[string]struct{}, len(occupied))
		for _, l := range occupied {
			occ[l] = struct{}{}
		}
		// Checked independently of capacity so the caller learns the
		// exact clashing labels even when capacity alone would pass.
		if taken := takenLabels(seats, occ); len(taken) > 0 {
			return nil, errSeatsAlreadyTaken(taken)
		}
		if amountCents <= 0 {
			return nil, errInvalidAmount()
		}
		return &model.Reservation{
			UserID:        userID,
			ShowtimeID:    showtimeID,
			Seats:         seats,
			AmountCents:   amountCents,
			Status:        model.ReservationPending,
			PaymentStatus: model.PaymentPending,
		}, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errShowtimeNotFound()
		}
		// Another writer committed an overlapping seat set between the
		// occupancy snapshot and our insert; the constraint names the
		// losers.  First successful commit wins, deterministically.
		var conflict *SeatConflictError
		if errors.As(err, &conflict) {
			return nil, errSeatsAlreadyTaken(conflict.Labels)
		}
		var be *Error
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, err
	}

	s.notify(ctx, NotifyBookingConfirmed, res)
	return res, nil
}

// CancelResult reports what a successful cancellation released.
type CancelResult struct {
	ReservationID uint64
	AmountCents   int64
	PaymentRef    *string
	Seats         []string
}

// Cancel applies the cancellation policy.  The reservation must exist
// and belong to the caller (admins may cancel any), must not already
// be cancelled, the showtime must not have started, and the request
// must arrive earlier than the cancellation window before start.  On
// success the status flips to cancelled, the payment status to
// refunded (recording intent; the refund itself is the payment
// collaborator's job) and the seats become immediately reservable,
// because occupancy excludes cancelled reservations.
func (s *Service) Cancel(ctx context.Context, reservationID, callerID uint64, callerRole string) (*CancelResult, error) {
	var result CancelResult
	err := s.ledger.Cancel(ctx, reservationID, func(res *model.Reservation, startsAt time.Time) error {
		if callerRole != model.RoleAdmin && res.UserID != callerID {
			return errNotFoundOrUnauthorized()
		}
		if res.Status == model.ReservationCancelled {
			return errAlreadyCancelled()
		}
		now := s.now()
		if !startsAt.After(now) {
			return errShowtimePassed()
		}
		if now.After(startsAt.Add(-s.cancelWindow)) {
			return errWindowClosed(s.cancelWindow.Hours())
		}
		result = CancelResult{
			ReservationID: res.ID,
			AmountCents:   res.AmountCents,
			PaymentRef:    res.PaymentRef,
			Seats:         res.Seats,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errNotFoundOrUnauthorized()
		}
		var be *Error
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, err
	}
	return &result, nil
}

// ConfirmPayment records a successful payment reported by the payment
// collaborator: pending -> confirmed, payment pending -> paid.  The
// ownership check mirrors Cancel so one user cannot confirm another's
// reservation.
func (s *Service) ConfirmPayment(ctx context.Context, reservationID, callerID uint64, callerRole, paymentRef string) (*model.Reservation, error) {
	res, err := s.GetReservation(ctx, reservationID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.ConfirmPayment(ctx, reservationID, paymentRef); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errNotFoundOrUnauthorized()
		}
		if errors.Is(err, ErrNotPending) {
			return nil, &Error{Kind: KindConflict, Reason: ReasonAlreadyCancelled,
				Message: "reservation is not awaiting payment"}
		}
		return nil, err
	}
	res.Status = model.ReservationConfirmed
	res.PaymentStatus = model.PaymentPaid
	res.PaymentRef = &paymentRef

	s.notify(ctx, NotifyPaymentConfirmed, res)
	return res, nil
}

// GetReservation returns a single reservation.  Non-admin callers only
// see their own; anything else reads as not found.
func (s *Service) GetReservation(ctx context.Context, id, callerID uint64, callerRole string) (*model.Reservation, error) {
	res, err := s.ledger.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errNotFoundOrUnauthorized()
		}
		return nil, err
	}
	if callerRole != model.RoleAdmin && res.UserID != callerID {
		return nil, errNotFoundOrUnauthorized()
	}
	return res, nil
}

// ListUserReservations returns all reservations created by a user,
// newest first.
func (s *Service) ListUserReservations(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.ledger.ListByUser(ctx, userID)
}

// ListShowtimeReservations returns every reservation against a
// showtime (admin operation).  ErrNotFound from the registry becomes a
// typed not-found rejection.
func (s *Service) ListShowtimeReservations(ctx context.Context, showtimeID uint64) (*model.Showtime, []model.Reservation, error) {
	st, err := s.registry.GetShowtime(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, errShowtimeNotFound()
		}
		return nil, nil, err
	}
	list, err := s.ledger.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, nil, err
	}
	return st, list, nil
}

// notify dispatches a collaborator event and only logs failures; a
// notification problem must never fail the committed reservation.
func (s *Service) notify(ctx context.Context, kind string, res *model.Reservation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, kind, res); err != nil {
		log.Printf("booking: notify %s for reservation %d failed: %v", kind, res.ID, err)
	}
}
