package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
)

// TheaterRepo provides CRUD access to the 'theaters' table.
type TheaterRepo struct {
	db *sql.DB
}

func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

const theaterColumns = "id, name, address, city, created_at, updated_at"

// Create inserts a theater and populates its ID and timestamps.
func (r *TheaterRepo) Create(ctx context.Context, t *model.Theater) error {
	const qInsert = `INSERT INTO theaters (name, address, city) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, t.Name, t.Address, t.City)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	const qSelect = `SELECT created_at, updated_at FROM theaters WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a theater or returns booking.ErrNotFound.
func (r *TheaterRepo) GetByID(ctx context.Context, id uint64) (*model.Theater, error) {
	const q = `SELECT ` + theaterColumns + ` FROM theaters WHERE id = ?`
	var t model.Theater
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Address, &t.City, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns all theaters, optionally filtered by city.
func (r *TheaterRepo) List(ctx context.Context, city string) ([]model.Theater, error) {
	q := `SELECT ` + theaterColumns + ` FROM theaters`
	args := []any{}
	if city != "" {
		q += ` WHERE city = ?`
		args = append(args, city)
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Theater, 0)
	for rows.Next() {
		var t model.Theater
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.City, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
