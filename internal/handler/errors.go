package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abhishekbishtt/booking-app/internal/booking"
)

// bookingError maps a rejection from the reservation core onto an HTTP
// response.  The stable reason code rides in "error"; offending seat
// labels and capacity numbers are included when the rejection carries
// them, so the client always learns which precondition failed.
func bookingError(c echo.Context, err error) error {
	var be *booking.Error
	if !errors.As(err, &be) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	status := http.StatusInternalServerError
	switch be.Kind {
	case booking.KindValidation:
		status = http.StatusBadRequest
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindUnauthorized:
		status = http.StatusForbidden
	case booking.KindConflict, booking.KindCapacity, booking.KindWindowClosed:
		status = http.StatusConflict
	}

	body := echo.Map{"error": be.Reason, "message": be.Message}
	if len(be.Seats) > 0 {
		body["seats"] = be.Seats
	}
	if be.Reason == booking.ReasonCapacity {
		body["remaining"] = be.Remaining
		body["requested"] = be.Requested
	}
	return c.JSON(status, body)
}
