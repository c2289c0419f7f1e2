package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
)

// ShowtimeRepo provides access to the showtimes table.  It implements
// booking.Registry.  All timestamps are stored and compared in UTC.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo returns a ShowtimeRepo bound to the given database.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

const showtimeColumns = `id, movie_id, hall_id, starts_at, ends_at, base_price_cents, total_seats, is_active, created_at, updated_at`

func scanShowtime(row interface{ Scan(...any) error }) (*model.Showtime, error) {
	var st model.Showtime
	err := row.Scan(&st.ID, &st.MovieID, &st.HallID, &st.StartsAt, &st.EndsAt,
		&st.BasePriceCents, &st.TotalSeats, &st.IsActive, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetShowtime returns a showtime by id regardless of its active flag,
// or booking.ErrNotFound.
func (r *ShowtimeRepo) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	st, err := scanShowtime(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return st, err
}

// Create inserts a showtime.  TotalSeats is copied from the hall's
// seat count by the caller; it is configuration, not a live counter.
func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, hall_id, starts_at, ends_at, base_price_cents, total_seats, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, 1)`
	result, err := r.db.ExecContext(ctx, q,
		st.MovieID, st.HallID, st.StartsAt.UTC(), st.EndsAt.UTC(), st.BasePriceCents, st.TotalSeats)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	st.IsActive = true
	return nil
}

// Deactivate retires a showtime.  Showtimes are never hard-deleted
// once scheduled: reservations keep pointing at them.
func (r *ShowtimeRepo) Deactivate(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE showtimes SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// ShowtimeDetail is a showtime joined with its movie, hall and theater
// for public browsing.
type ShowtimeDetail struct {
	ID             uint64    `json:"id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	TotalSeats     uint32    `json:"total_seats"`
	MovieID        uint64    `json:"movie_id"`
	MovieTitle     string    `json:"movie_title"`
	Genre          string    `json:"genre"`
	DurationMin    uint32    `json:"duration_min"`
	Certification  string    `json:"certification"`
	HallID         uint64    `json:"hall_id"`
	HallName       string    `json:"hall_name"`
	FormatType     string    `json:"format_type"`
	TheaterID      uint64    `json:"theater_id"`
	TheaterName    string    `json:"theater_name"`
	City           string    `json:"city"`
}

const showtimeDetailQuery = `SELECT st.id, st.starts_at, st.ends_at, st.base_price_cents, st.total_seats,
               m.id, m.title, m.genre, m.duration_min, m.certification,
               h.id, h.name, h.format_type,
               t.id, t.name, t.city
        FROM showtimes st
        JOIN movies m ON m.id = st.movie_id
        JOIN halls h ON h.id = st.hall_id
        JOIN theaters t ON t.id = h.theater_id`

func scanShowtimeDetail(row interface{ Scan(...any) error }) (*ShowtimeDetail, error) {
	var d ShowtimeDetail
	err := row.Scan(&d.ID, &d.StartsAt, &d.EndsAt, &d.BasePriceCents, &d.TotalSeats,
		&d.MovieID, &d.MovieTitle, &d.Genre, &d.DurationMin, &d.Certification,
		&d.HallID, &d.HallName, &d.FormatType,
		&d.TheaterID, &d.TheaterName, &d.City)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListUpcoming returns active showtimes starting after now, soonest
// first, with movie/hall/theater context for display.
func (r *ShowtimeRepo) ListUpcoming(ctx context.Context, now time.Time) ([]ShowtimeDetail, error) {
	const q = showtimeDetailQuery + `
        WHERE st.is_active = 1 AND st.starts_at > ?
        ORDER BY st.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ShowtimeDetail, 0)
	for rows.Next() {
		d, err := scanShowtimeDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

// GetDetail returns one showtime with its display context, active or
// not, or booking.ErrNotFound.
func (r *ShowtimeRepo) GetDetail(ctx context.Context, id uint64) (*ShowtimeDetail, error) {
	const q = showtimeDetailQuery + ` WHERE st.id = ?`
	d, err := scanShowtimeDetail(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return d, err
}
