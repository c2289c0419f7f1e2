package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
)

// HallRepo provides CRUD access to the 'halls' table.  A hall's seat
// count is copied into every showtime scheduled for it, so editing a
// hall never changes the capacity of already scheduled showtimes.
type HallRepo struct {
	db *sql.DB
}

func NewHallRepo(db *sql.DB) *HallRepo { return &HallRepo{db: db} }

const hallColumns = "id, theater_id, name, format_type, seat_count, is_active, created_at, updated_at"

// Create inserts a hall and populates its ID and timestamps.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (theater_id, name, format_type, seat_count) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, h.TheaterID, h.Name, h.FormatType, h.SeatCount)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)

	const qSelect = `SELECT is_active, created_at, updated_at FROM halls WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, h.ID).Scan(&h.IsActive, &h.CreatedAt, &h.UpdatedAt)
}

// GetByID fetches a hall or returns booking.ErrNotFound.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE id = ?`
	var h model.Hall
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.TheaterID, &h.Name, &h.FormatType, &h.SeatCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// ListByTheater returns the halls of one theater ordered by name.
func (r *HallRepo) ListByTheater(ctx context.Context, theaterID uint64) ([]model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE theater_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Hall, 0)
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.TheaterID, &h.Name, &h.FormatType, &h.SeatCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
