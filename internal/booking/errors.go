// Package booking implements the reservation core: the seat allocation
// engine, the cancellation policy and the orchestration around them.
// It is storage-agnostic; persistence sits behind the Ledger and
// Registry interfaces so the same decision logic runs against MySQL in
// production and an in-memory ledger in tests.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a rejection so transports can map it to a status
// code without string matching.
type Kind int

const (
	KindValidation   Kind = iota + 1 // malformed input
	KindNotFound                     // showtime or reservation absent
	KindUnauthorized                 // ownership mismatch
	KindConflict                     // seat already taken, duplicate labels
	KindCapacity                     // not enough seats remain
	KindWindowClosed                 // past showtime, cancellation window over
	KindTransient                    // storage or collaborator failure
)

// Stable reason codes carried on Error.  Clients can branch on these;
// the message text is free to change.
const (
	ReasonEmptySeats        = "empty_seats"
	ReasonTooManySeats      = "too_many_seats"
	ReasonInvalidSeatFormat = "invalid_seat_format"
	ReasonShowtimeNotFound  = "showtime_not_found"
	ReasonShowtimeInPast    = "showtime_in_past"
	ReasonCapacity          = "insufficient_capacity"
	ReasonSeatsTaken        = "seats_already_taken"
	ReasonInvalidAmount     = "invalid_amount"
	ReasonNotFound          = "not_found_or_unauthorized"
	ReasonAlreadyCancelled  = "already_cancelled"
	ReasonShowtimePassed    = "showtime_passed"
	ReasonWindowClosed      = "cancellation_window_closed"
)

// Error is the typed rejection returned by the core.  Every rejection
// names the specific violated precondition: conflicting or malformed
// seat labels ride in Seats, capacity rejections carry Remaining and
// Requested.
type Error struct {
	Kind      Kind
	Reason    string
	Message   string
	Seats     []string // offending labels, when applicable
	Remaining int      // seats still available (capacity rejections)
	Requested int      // seats asked for (capacity rejections)
}

func (e *Error) Error() string {
	if len(e.Seats) > 0 {
		return fmt.Sprintf("%s: %s [%s]", e.Reason, e.Message, strings.Join(e.Seats, ","))
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// IsKind reports whether err is a core Error of the given kind.
func IsKind(err error, k Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == k
}

func errEmptySeats() *Error {
	return &Error{Kind: KindValidation, Reason: ReasonEmptySeats, Message: "at least one seat must be selected"}
}

func errTooManySeats(requested int) *Error {
	return &Error{Kind: KindValidation, Reason: ReasonTooManySeats,
		Message: fmt.Sprintf("cannot book more than %d seats at once", MaxSeatsPerBooking), Requested: requested}
}

func errInvalidSeatFormat(labels []string) *Error {
	return &Error{Kind: KindValidation, Reason: ReasonInvalidSeatFormat,
		Message: "invalid seat format, use labels like A1 or B12", Seats: labels}
}

func errShowtimeNotFound() *Error {
	return &Error{Kind: KindNotFound, Reason: ReasonShowtimeNotFound, Message: "showtime not found"}
}

func errShowtimeInPast() *Error {
	return &Error{Kind: KindWindowClosed, Reason: ReasonShowtimeInPast,
		Message: "cannot book tickets for past or ongoing showtimes"}
}

func errInsufficientCapacity(remaining, requested int) *Error {
	return &Error{Kind: KindCapacity, Reason: ReasonCapacity,
		Message:   fmt.Sprintf("only %d seats available, but %d requested", remaining, requested),
		Remaining: remaining, Requested: requested}
}

func errSeatsAlreadyTaken(labels []string) *Error {
	return &Error{Kind: KindConflict, Reason: ReasonSeatsTaken,
		Message: "some seats are already booked", Seats: labels}
}

func errInvalidAmount() *Error {
	return &Error{Kind: KindValidation, Reason: ReasonInvalidAmount,
		Message: "total amount must be greater than zero"}
}

func errNotFoundOrUnauthorized() *Error {
	// Identical for "does not exist" and "not yours": a caller must not
	// be able to probe which reservation ids exist.
	return &Error{Kind: KindNotFound, Reason: ReasonNotFound, Message: "reservation not found or unauthorized"}
}

func errAlreadyCancelled() *Error {
	return &Error{Kind: KindConflict, Reason: ReasonAlreadyCancelled, Message: "reservation is already cancelled"}
}

func errShowtimePassed() *Error {
	return &Error{Kind: KindWindowClosed, Reason: ReasonShowtimePassed,
		Message: "cannot cancel past or ongoing reservations"}
}

func errWindowClosed(hours float64) *Error {
	return &Error{Kind: KindWindowClosed, Reason: ReasonWindowClosed,
		Message: fmt.Sprintf("cannot cancel less than %g hours before showtime", hours)}
}

// Sentinels returned by Ledger and Registry implementations.  The
// service maps them onto typed Errors; storage code stays free of
// transport concerns.
var (
	// ErrNotFound signals a missing row (showtime or reservation).
	ErrNotFound = errors.New("booking: not found")
	// ErrNotPending signals a payment confirmation against a
	// reservation that is no longer pending.
	ErrNotPending = errors.New("booking: reservation not pending")
)

// SeatConflictError is returned by a Ledger when persisting a
// reservation loses the race for one or more seats: the storage-level
// uniqueness constraint fired after this request's occupancy snapshot
// was taken.  Labels holds the clashing seats.
type SeatConflictError struct {
	Labels []string
}

func (e *SeatConflictError) Error() string {
	return "booking: seats already claimed: " + strings.Join(e.Labels, ",")
}
