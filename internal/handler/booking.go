package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/payment"
	"github.com/abhishekbishtt/booking-app/internal/repository"
)

// BookingHandler exposes the reservation endpoints.
type BookingHandler struct {
	Svc          *booking.Service
	Reservations *repository.ReservationRepo
	Showtimes    *repository.ShowtimeRepo
	Payments     payment.Service // nil when no gateway is configured
}

func NewBookingHandler(svc *booking.Service, res *repository.ReservationRepo, st *repository.ShowtimeRepo, pay payment.Service) *BookingHandler {
	return &BookingHandler{Svc: svc, Reservations: res, Showtimes: st, Payments: pay}
}

type createReservationReq struct {
	ShowtimeID uint64   `json:"showtime_id"`
	Seats      []string `json:"seats"`
}

type reservationResp struct {
	ID            uint64   `json:"id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	Seats         []string `json:"seats"`
	AmountCents   int64    `json:"amount_cents"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	CreatedAt     string   `json:"created_at"`
}

// Create books seats for the authenticated user.  The amount is priced
// server-side from the showtime's base price; the core re-checks every
// precondition inside the allocation transaction, so the price lookup
// here is only for the total, not for admission.
func (h *BookingHandler) Create(c echo.Context) error {
	uid := c.Get("user_id").(uint64)

	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var amountCents int64
	if st, err := h.Showtimes.GetShowtime(ctx, req.ShowtimeID); err == nil {
		amountCents = int64(st.BasePriceCents) * int64(len(req.Seats))
	}
	// A missing showtime leaves amountCents zero; the core rejects the
	// request with the proper not-found error before the amount check.

	res, err := h.Svc.TryReserve(ctx, uid, req.ShowtimeID, req.Seats, amountCents)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(res.ID, res.ShowtimeID, res.Seats, res.AmountCents, res.Status, res.PaymentStatus, res.CreatedAt))
}

// ListMine returns the caller's reservations, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid := c.Get("user_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Svc.ListUserReservations(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]reservationResp, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResp(r.ID, r.ShowtimeID, r.Seats, r.AmountCents, r.Status, r.PaymentStatus, r.CreatedAt))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Get returns one reservation with its showtime and venue context.
// Existence and lack of ownership are indistinguishable in the
// response.
func (h *BookingHandler) Get(c echo.Context) error {
	uid := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Svc.GetReservation(ctx, id, uid, role); err != nil {
		return bookingError(c, err)
	}
	detail, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel cancels a reservation under the cancellation policy and, if a
// payment was captured, fires the refund.  The refund is best-effort
// after the commit: the seats are already released and the refunded
// payment status records the intent even if the gateway call fails.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.Svc.Cancel(ctx, id, uid, role)
	if err != nil {
		return bookingError(c, err)
	}

	if h.Payments != nil && result.PaymentRef != nil {
		if err := h.Payments.Refund(ctx, *result.PaymentRef, result.AmountCents); err != nil {
			log.Printf("booking: refund for reservation %d failed: %v", result.ReservationID, err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "reservation cancelled",
		"reservation_id": result.ReservationID,
		"released_seats": result.Seats,
		"refund_cents":   result.AmountCents,
	})
}

func toReservationResp(id, showtimeID uint64, seats []string, amount int64, status, payStatus string, createdAt time.Time) reservationResp {
	return reservationResp{
		ID:            id,
		ShowtimeID:    showtimeID,
		Seats:         seats,
		AmountCents:   amount,
		Status:        status,
		PaymentStatus: payStatus,
		CreatedAt:     createdAt.UTC().Format(time.RFC3339),
	}
}
