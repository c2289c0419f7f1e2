package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
	"github.com/abhishekbishtt/booking-app/internal/repository"
)

// AdminHandler manages the catalog: movies, theaters, halls and
// showtimes, plus the per-showtime reservation report.
type AdminHandler struct {
	Movies       *repository.MovieRepo
	Theaters     *repository.TheaterRepo
	Halls        *repository.HallRepo
	Showtimes    *repository.ShowtimeRepo
	Reservations *repository.ReservationRepo
	Svc          *booking.Service
}

func NewAdminHandler(m *repository.MovieRepo, t *repository.TheaterRepo, h *repository.HallRepo,
	st *repository.ShowtimeRepo, res *repository.ReservationRepo, svc *booking.Service) *AdminHandler {
	return &AdminHandler{Movies: m, Theaters: t, Halls: h, Showtimes: st, Reservations: res, Svc: svc}
}

type createMovieReq struct {
	Title         string `json:"title"`
	Genre         string `json:"genre"`
	DurationMin   uint32 `json:"duration_min"`
	Certification string `json:"certification"`
}

// CreateMovie adds a title to the catalog.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := &model.Movie{Title: req.Title, Genre: req.Genre, DurationMin: req.DurationMin, Certification: req.Certification}
	if err := h.Movies.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": m.ID, "title": m.Title})
}

type createTheaterReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// CreateTheater adds a venue.
func (h *AdminHandler) CreateTheater(c echo.Context) error {
	var req createTheaterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.City) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.Theater{Name: strings.TrimSpace(req.Name), Address: req.Address, City: strings.TrimSpace(req.City)}
	if err := h.Theaters.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create theater failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": t.ID, "name": t.Name})
}

type createHallReq struct {
	TheaterID  uint64 `json:"theater_id"`
	Name       string `json:"name"`
	FormatType string `json:"format_type"`
	SeatCount  uint32 `json:"seat_count"`
}

// CreateHall adds a hall to a theater.  The seat count set here
// becomes the capacity of every showtime later scheduled into the
// hall.
func (h *AdminHandler) CreateHall(c echo.Context) error {
	var req createHallReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TheaterID == 0 || strings.TrimSpace(req.Name) == "" || req.SeatCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "theater_id, name and seat_count required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Theaters.GetByID(ctx, req.TheaterID); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	hall := &model.Hall{TheaterID: req.TheaterID, Name: strings.TrimSpace(req.Name), FormatType: req.FormatType, SeatCount: req.SeatCount}
	if err := h.Halls.Create(ctx, hall); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "hall name already used in this theater"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hall failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": hall.ID, "name": hall.Name, "seat_count": hall.SeatCount})
}

// ListHalls returns the halls of one theater, inactive included so
// admins can see retired halls.
func (h *AdminHandler) ListHalls(c echo.Context) error {
	theaterID, err := strconv.ParseUint(c.QueryParam("theater_id"), 10, 64)
	if err != nil || theaterID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "theater_id query parameter required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	halls, err := h.Halls.ListByTheater(ctx, theaterID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type hallResp struct {
		ID         uint64 `json:"id"`
		Name       string `json:"name"`
		FormatType string `json:"format_type"`
		SeatCount  uint32 `json:"seat_count"`
		IsActive   bool   `json:"is_active"`
	}
	out := make([]hallResp, 0, len(halls))
	for _, hall := range halls {
		out = append(out, hallResp{ID: hall.ID, Name: hall.Name, FormatType: hall.FormatType, SeatCount: hall.SeatCount, IsActive: hall.IsActive})
	}
	return c.JSON(http.StatusOK, echo.Map{"halls": out})
}

type createShowtimeReq struct {
	MovieID        uint64    `json:"movie_id"`
	HallID         uint64    `json:"hall_id"`
	StartsAt       time.Time `json:"starts_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
}

// CreateShowtime schedules a screening.  The hall's seat count is
// copied in as the showtime's capacity and the end time is derived
// from the movie's runtime.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req createShowtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MovieID == 0 || req.HallID == 0 || req.BasePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, hall_id and base_price_cents required"})
	}
	if !req.StartsAt.UTC().After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hall, err := h.Halls.GetByID(ctx, req.HallID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !hall.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "hall is not active"})
	}

	starts := req.StartsAt.UTC()
	st := &model.Showtime{
		MovieID:        req.MovieID,
		HallID:         req.HallID,
		StartsAt:       starts,
		EndsAt:         starts.Add(time.Duration(movie.DurationMin) * time.Minute),
		BasePriceCents: req.BasePriceCents,
		TotalSeats:     hall.SeatCount,
	}
	if err := h.Showtimes.Create(ctx, st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create showtime failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          st.ID,
		"starts_at":   st.StartsAt,
		"ends_at":     st.EndsAt,
		"total_seats": st.TotalSeats,
	})
}

// DeactivateShowtime retires a showtime.  Showtimes are never hard
// deleted; deactivation hides them from browsing and blocks new
// bookings while existing reservations keep their history.
func (h *AdminHandler) DeactivateShowtime(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Showtimes.Deactivate(ctx, id); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "showtime deactivated"})
}

// ShowtimeReservations reports every reservation against a showtime
// along with occupancy statistics.
func (h *AdminHandler) ShowtimeReservations(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, list, err := h.Svc.ListShowtimeReservations(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}

	var active, cancelled, seatsTaken int
	var revenueCents int64
	out := make([]reservationResp, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResp(r.ID, r.ShowtimeID, r.Seats, r.AmountCents, r.Status, r.PaymentStatus, r.CreatedAt))
		if r.Status == model.ReservationCancelled {
			cancelled++
			continue
		}
		active++
		seatsTaken += len(r.Seats)
		if r.PaymentStatus == model.PaymentPaid {
			revenueCents += r.AmountCents
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id": st.ID,
		"starts_at":   st.StartsAt,
		"statistics": echo.Map{
			"total_reservations":     len(list),
			"active_reservations":    active,
			"cancelled_reservations": cancelled,
			"seats_taken":            seatsTaken,
			"seats_remaining":        int(st.TotalSeats) - seatsTaken,
			"revenue_cents":          revenueCents,
		},
		"reservations": out,
	})
}
