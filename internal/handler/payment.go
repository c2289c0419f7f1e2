package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/booking"
	"github.com/abhishekbishtt/booking-app/internal/model"
	"github.com/abhishekbishtt/booking-app/internal/payment"
)

// PaymentHandler drives the checkout flow: open a gateway order for a
// pending reservation, then verify the gateway callback and confirm
// the reservation.
type PaymentHandler struct {
	Svc      *booking.Service
	Payments payment.Service
}

func NewPaymentHandler(svc *booking.Service, pay payment.Service) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Payments: pay}
}

// CreateOrder opens a gateway order for a pending reservation owned by
// the caller.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	if h.Payments == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments not configured"})
	}
	uid := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Svc.GetReservation(ctx, id, uid, role)
	if err != nil {
		return bookingError(c, err)
	}
	if res.Status != model.ReservationPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not awaiting payment"})
	}

	order, err := h.Payments.CreateOrder(ctx, res.AmountCents, fmt.Sprintf("resv_%d", res.ID))
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": res.ID,
		"order":          order,
	})
}

type verifyPaymentReq struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Verify checks the checkout signature and, when valid, confirms the
// reservation with the gateway payment id as the payment reference.
func (h *PaymentHandler) Verify(c echo.Context) error {
	if h.Payments == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payments not configured"})
	}
	uid := c.Get("user_id").(uint64)
	role, _ := c.Get("role").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	var req verifyPaymentReq
	if err := c.Bind(&req); err != nil || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id, payment_id and signature required"})
	}
	if !h.Payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.ConfirmPayment(ctx, id, uid, role, req.PaymentID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":        "payment confirmed",
		"reservation_id": res.ID,
		"status":         res.Status,
		"payment_status": res.PaymentStatus,
	})
}
