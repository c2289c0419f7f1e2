package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints: movies,
// theaters and upcoming showtimes with seat availability.
type PublicHandler struct {
	Movies       *repository.MovieRepo
	Theaters     *repository.TheaterRepo
	Showtimes    *repository.ShowtimeRepo
	Reservations *repository.ReservationRepo
}

func NewPublicHandler(m *repository.MovieRepo, t *repository.TheaterRepo, st *repository.ShowtimeRepo, res *repository.ReservationRepo) *PublicHandler {
	return &PublicHandler{Movies: m, Theaters: t, Showtimes: st, Reservations: res}
}

// ListMovies returns the movie catalog.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Movies.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type movieResp struct {
		ID            uint64 `json:"id"`
		Title         string `json:"title"`
		Genre         string `json:"genre"`
		DurationMin   uint32 `json:"duration_min"`
		Certification string `json:"certification"`
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, movieResp{ID: m.ID, Title: m.Title, Genre: m.Genre, DurationMin: m.DurationMin, Certification: m.Certification})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

// ListTheaters returns theaters, optionally filtered by ?city=.
func (h *PublicHandler) ListTheaters(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	theaters, err := h.Theaters.List(ctx, c.QueryParam("city"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type theaterResp struct {
		ID      uint64 `json:"id"`
		Name    string `json:"name"`
		Address string `json:"address"`
		City    string `json:"city"`
	}
	out := make([]theaterResp, 0, len(theaters))
	for _, t := range theaters {
		out = append(out, theaterResp{ID: t.ID, Name: t.Name, Address: t.Address, City: t.City})
	}
	return c.JSON(http.StatusOK, echo.Map{"theaters": out})
}

// ListShowtimes returns active future showtimes with movie and venue
// context.
func (h *PublicHandler) ListShowtimes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Showtimes.ListUpcoming(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"showtimes": list})
}

// GetShowtime returns one showtime with the seats currently taken, so
// clients can render the seat map.  The availability is a snapshot; a
// booking can still lose the race for a seat that looked free here.
func (h *PublicHandler) GetShowtime(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Showtimes.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	occupied, err := h.Reservations.OccupiedSeats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime":        detail,
		"occupied_seats":  occupied,
		"remaining_seats": int(detail.TotalSeats) - len(occupied),
	})
}
