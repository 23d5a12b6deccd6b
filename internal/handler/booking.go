package handler

import (
	"errors"   // for errors.Is comparisons against sentinel values
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // timestamp formatting

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/cinefy/cinefy-server/internal/pricing"
	"github.com/cinefy/cinefy-server/internal/repository"
	"github.com/cinefy/cinefy-server/internal/service"
)

// BookingHandler exposes the direct booking path and the read surfaces
// of the seat inventory and booking ledger. All methods assume JWT
// authentication has already run where required; unauthenticated
// requests are rejected with 401.
type BookingHandler struct {
	Reservations *service.ReservationService // direct booking transaction
	Inventory    *repository.InventoryRepo   // occupancy map reads
	Bookings     *repository.BookingRepo     // single-booking ledger reads
}

// NewBookingHandler constructs a BookingHandler with the provided
// dependencies. All of them must be non-nil.
func NewBookingHandler(reservations *service.ReservationService, inventory *repository.InventoryRepo, bookings *repository.BookingRepo) *BookingHandler {
	if reservations == nil || inventory == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Reservations: reservations, Inventory: inventory, Bookings: bookings}
}

// CreateBooking handles POST /v1/bookings. The request body carries a
// show id and a seat set; the amount is always computed server-side.
// Exactly one of any set of overlapping concurrent requests succeeds;
// the rest receive 409 and can pick different seats.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShowID uint64   `json:"show_id"`
		Seats  []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id is required"})
	}
	booking, err := h.Reservations.Reserve(c.Request().Context(), userID, body.ShowID, body.Seats)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, repository.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, pricing.ErrInvalidSeatIdentifier):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrSeatConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "selected seats are not available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":   booking.ID,
		"amount_cents": booking.AmountCents,
		"seats":        booking.Seats,
	})
}

// GetOccupiedSeats handles GET /v1/shows/:id/seats. It returns the
// occupied seat labels for a show so clients can render availability.
// The response is never cached: seat state must not be stale.
func (h *BookingHandler) GetOccupiedSeats(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	occupied, err := h.Inventory.Occupied(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"occupied_seats": occupied})
}

// GetMyBooking handles GET /v1/me/bookings/:id. It returns a single
// ledger entry. A booking owned by somebody else is reported as 404
// rather than 403 so the endpoint does not confirm foreign booking ids.
func (h *BookingHandler) GetMyBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if booking.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	item := echo.Map{
		"booking_id":   booking.ID,
		"show_id":      booking.ShowID,
		"seats":        booking.Seats,
		"amount_cents": booking.AmountCents,
		"is_paid":      booking.IsPaid,
		"created_at":   booking.CreatedAt.UTC().Format(time.RFC3339),
	}
	if booking.PaymentRef != nil {
		item["payment_ref"] = *booking.PaymentRef
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

// ListMyBookings handles GET /v1/me/bookings. It returns the calling
// user's ledger entries, newest first. When no bookings exist an empty
// array is returned.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Reservations.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	items := make([]echo.Map, 0, len(bookings))
	for _, b := range bookings {
		item := echo.Map{
			"booking_id":   b.ID,
			"show_id":      b.ShowID,
			"seats":        b.Seats,
			"amount_cents": b.AmountCents,
			"is_paid":      b.IsPaid,
			"created_at":   b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if b.PaymentRef != nil {
			item["payment_ref"] = *b.PaymentRef
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
