package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
)

// ReservationRepo is the MySQL reservation ledger; it implements
// booking.Ledger.  Two tables back it: reservation_seats is the
// permanent record of which labels a reservation holds (kept even
// after cancellation), and seat_claims carries one row per actively
// claimed (showtime_id, seat_label) pair under a unique composite
// key.  The unique key is the storage-layer enforcement of the
// seat-uniqueness invariant: of two racing inserts for the same seat,
// exactly one commits.  Cancellation deletes the claim rows, which is
// all it takes to release the seats, since occupancy is always
// derived from the claims and never from a stored counter.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, showtime_id, amount_cents, status, payment_status, payment_ref, reminder_sent, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var payRef sql.NullString
	err := row.Scan(&res.ID, &res.UserID, &res.ShowtimeID, &res.AmountCents,
		&res.Status, &res.PaymentStatus, &payRef, &res.ReminderSent,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if payRef.Valid {
		ref := payRef.String
		res.PaymentRef = &ref
	}
	return &res, nil
}

// Allocate runs the check-and-claim sequence in one transaction.  The
// showtime row is locked FOR UPDATE so concurrent writers for the
// same showtime serialize and the occupancy snapshot handed to decide
// stays authoritative through commit; writers for other showtimes are
// unaffected.  The unique key on seat_claims remains as the backstop:
// if an insert still collides, the duplicate-key error is converted
// into *booking.SeatConflictError naming the clashing labels.
func (r *ReservationRepo) Allocate(ctx context.Context, showtimeID uint64,
	decide func(st *model.Showtime, occupied []string) (*model.Reservation, error)) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const stQ = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ? FOR UPDATE`
	st, err := scanShowtime(tx.QueryRowContext(ctx, stQ, showtimeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}

	occupied, err := claimedSeatsTx(ctx, tx, showtimeID)
	if err != nil {
		return nil, err
	}

	res, err := decide(st, occupied)
	if err != nil {
		return nil, err
	}

	const insQ = `INSERT INTO reservations (user_id, showtime_id, amount_cents, status, payment_status)
	              VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insQ,
		res.UserID, res.ShowtimeID, res.AmountCents, res.Status, res.PaymentStatus)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	res.ID = uint64(id)

	if err := insertSeatRows(ctx, tx, `INSERT INTO reservation_seats (reservation_id, seat_label) VALUES `,
		func(label string) []any { return []any{res.ID, label} }, res.Seats); err != nil {
		return nil, err
	}

	err = insertSeatRows(ctx, tx, `INSERT INTO seat_claims (showtime_id, seat_label, reservation_id) VALUES `,
		func(label string) []any { return []any{showtimeID, label, res.ID} }, res.Seats)
	if err != nil {
		if isDuplicateKey(err) {
			labels, lookupErr := conflictingLabels(ctx, r.db, showtimeID, res.Seats)
			if lookupErr != nil || len(labels) == 0 {
				labels = res.Seats
			}
			return nil, &booking.SeatConflictError{Labels: labels}
		}
		return nil, err
	}

	// Query back timestamps populated by the database.
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// insertSeatRows bulk-inserts one row per seat label using the given
// prefix and argument builder.  Multi-VALUES in a single statement,
// matching how the rest of the repository does bulk inserts.
func insertSeatRows(ctx context.Context, tx *sql.Tx, prefix string, rowArgs func(label string) []any, seats []string) error {
	if len(seats) == 0 {
		return nil
	}
	perRow := len(rowArgs(seats[0]))
	placeholders := "(?" + strings.Repeat(", ?", perRow-1) + ")"
	query := prefix
	args := make([]any, 0, len(seats)*perRow)
	for i, label := range seats {
		if i > 0 {
			query += ","
		}
		query += placeholders
		args = append(args, rowArgs(label)...)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// claimedSeatsTx returns every actively claimed seat label for a
// showtime, inside the given transaction.
func claimedSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_label FROM seat_claims WHERE showtime_id = ? ORDER BY seat_label`, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	labels := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// conflictingLabels reports which of the requested labels already hold
// a claim for the showtime.  Used after a duplicate-key failure, on a
// fresh connection since the transaction is doomed.
func conflictingLabels(ctx context.Context, db *sql.DB, showtimeID uint64, requested []string) ([]string, error) {
	placeholders := make([]string, 0, len(requested))
	args := make([]any, 0, len(requested)+1)
	args = append(args, showtimeID)
	for _, l := range requested {
		placeholders = append(placeholders, "?")
		args = append(args, l)
	}
	q := `SELECT seat_label FROM seat_claims WHERE showtime_id = ? AND seat_label IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY seat_label`
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// OccupiedSeats returns the union of actively claimed seat labels for
// a showtime, sorted.  Cancelled reservations never appear here: their
// claims are deleted when the cancellation commits.
func (r *ReservationRepo) OccupiedSeats(ctx context.Context, showtimeID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_label FROM seat_claims WHERE showtime_id = ? ORDER BY seat_label`, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	labels := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// Cancel loads the reservation and its showtime start under a row
// lock, lets decide apply the cancellation policy, then flips the
// status, records the refund intent and releases the seat claims in
// the same transaction.
func (r *ReservationRepo) Cancel(ctx context.Context, reservationID uint64,
	decide func(res *model.Reservation, startsAt time.Time) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `SELECT r.id, r.user_id, r.showtime_id, r.amount_cents, r.status, r.payment_status,
	                  r.payment_ref, r.reminder_sent, r.created_at, r.updated_at, s.starts_at
	           FROM reservations r
	           JOIN showtimes s ON s.id = r.showtime_id
	           WHERE r.id = ? FOR UPDATE`
	var res model.Reservation
	var payRef sql.NullString
	var startsAt time.Time
	err = tx.QueryRowContext(ctx, q, reservationID).Scan(
		&res.ID, &res.UserID, &res.ShowtimeID, &res.AmountCents, &res.Status, &res.PaymentStatus,
		&payRef, &res.ReminderSent, &res.CreatedAt, &res.UpdatedAt, &startsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrNotFound
		}
		return err
	}
	if payRef.Valid {
		ref := payRef.String
		res.PaymentRef = &ref
	}
	res.Seats, err = reservationSeatsTx(ctx, tx, res.ID)
	if err != nil {
		return err
	}

	if err := decide(&res, startsAt.UTC()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, payment_status = ? WHERE id = ?`,
		model.ReservationCancelled, model.PaymentRefunded, reservationID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM seat_claims WHERE reservation_id = ?`, reservationID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func reservationSeatsTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_label FROM reservation_seats WHERE reservation_id = ? ORDER BY id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		seats = append(seats, l)
	}
	return seats, rows.Err()
}

// ConfirmPayment conditionally moves a pending reservation to
// confirmed/paid.  The WHERE guard makes the transition race-free: a
// second confirmation, or one against a cancelled reservation,
// affects zero rows and is reported as ErrNotPending.
func (r *ReservationRepo) ConfirmPayment(ctx context.Context, reservationID uint64, paymentRef string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, payment_status = ?, payment_ref = ?
		 WHERE id = ? AND status = ?`,
		model.ReservationConfirmed, model.PaymentPaid, paymentRef, reservationID, model.ReservationPending)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var status string
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM reservations WHERE id = ?`, reservationID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrNotFound
	}
	if err != nil {
		return err
	}
	return booking.ErrNotPending
}

// GetReservation returns a reservation with its seat set, or
// booking.ErrNotFound.  Ownership is the service's concern.
func (r *ReservationRepo) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	seatsByID, err := r.seatsFor(ctx, []uint64{res.ID})
	if err != nil {
		return nil, err
	}
	res.Seats = seatsByID[res.ID]
	return res, nil
}

// ListByUser returns a user's reservations, newest first, seats
// populated.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// ListByShowtime returns every reservation against a showtime, newest
// first, seats populated.
func (r *ReservationRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE showtime_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, showtimeID)
}

func (r *ReservationRepo) list(ctx context.Context, query string, arg any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	seatsByID, err := r.seatsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Seats = seatsByID[out[i].ID]
	}
	return out, nil
}

// seatsFor loads the seat sets for a batch of reservations in one
// query.
func (r *ReservationRepo) seatsFor(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT reservation_id, seat_label FROM reservation_seats
	      WHERE reservation_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY reservation_id, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seatsByID := make(map[uint64][]string, len(ids))
	for rows.Next() {
		var rid uint64
		var label string
		if err := rows.Scan(&rid, &label); err != nil {
			return nil, err
		}
		seatsByID[rid] = append(seatsByID[rid], label)
	}
	return seatsByID, rows.Err()
}

// ReservationDetail is a reservation joined with showtime, movie, hall
// and theater context for display.
type ReservationDetail struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	AmountCents   int64     `json:"amount_cents"`
	Seats         []string  `json:"seats"`
	ShowtimeID    uint64    `json:"showtime_id"`
	StartsAt      time.Time `json:"starts_at"`
	MovieTitle    string    `json:"movie_title"`
	HallName      string    `json:"hall_name"`
	TheaterName   string    `json:"theater_name"`
	City          string    `json:"city"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetDetail returns a reservation with its full display context, or
// booking.ErrNotFound.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	const q = `SELECT r.id, r.user_id, r.status, r.payment_status, r.amount_cents,
	                  r.showtime_id, st.starts_at, m.title, h.name, t.name, t.city, r.created_at
	           FROM reservations r
	           JOIN showtimes st ON st.id = r.showtime_id
	           JOIN movies m ON m.id = st.movie_id
	           JOIN halls h ON h.id = st.hall_id
	           JOIN theaters t ON t.id = h.theater_id
	           WHERE r.id = ?`
	var d ReservationDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.Status, &d.PaymentStatus, &d.AmountCents,
		&d.ShowtimeID, &d.StartsAt, &d.MovieTitle, &d.HallName, &d.TheaterName, &d.City, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	seatsByID, err := r.seatsFor(ctx, []uint64{d.ID})
	if err != nil {
		return nil, err
	}
	d.Seats = seatsByID[d.ID]
	if d.Seats == nil {
		d.Seats = []string{}
	}
	return &d, nil
}

// DueReminders returns confirmed, reminder-unsent reservations whose
// showtime starts within the lead window from now.  Used by the
// reminder scheduler; seats are populated so the event can carry them.
func (r *ReservationRepo) DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]model.Reservation, error) {
	const q = `SELECT r.id, r.user_id, r.showtime_id, r.amount_cents, r.status, r.payment_status,
	                  r.payment_ref, r.reminder_sent, r.created_at, r.updated_at
	           FROM reservations r
	           JOIN showtimes s ON s.id = r.showtime_id
	           WHERE r.status = ? AND r.reminder_sent = 0
	             AND s.starts_at > ? AND s.starts_at <= ?`
	rows, err := r.db.QueryContext(ctx, q, model.ReservationConfirmed, now.UTC(), now.UTC().Add(lead))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	seatsByID, err := r.seatsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Seats = seatsByID[out[i].ID]
	}
	return out, nil
}

// MarkReminderSent flags a reservation so the next sweep skips it.
func (r *ReservationRepo) MarkReminderSent(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET reminder_sent = 1 WHERE id = ?`, id)
	return err
}
