package handler

import (
	"errors"   // for errors.Is comparisons against sentinel values
	"net/http" // HTTP status codes
	"time"     // timestamp formatting

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/cinefy/cinefy-server/internal/pricing"
	"github.com/cinefy/cinefy-server/internal/repository"
	"github.com/cinefy/cinefy-server/internal/service"
)

// PaymentHandler exposes the payment-gated reservation workflow:
// creating a provider checkout session and verifying its outcome.
type PaymentHandler struct {
	Checkout *service.CheckoutService // payment-gated workflow
}

// NewPaymentHandler constructs a PaymentHandler. The checkout service
// must be non-nil.
func NewPaymentHandler(checkout *service.CheckoutService) *PaymentHandler {
	if checkout == nil {
		panic("nil checkout service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Checkout: checkout}
}

// CreateCheckoutSession handles POST /v1/checkout. It validates the
// seat set, checks availability without claiming anything and returns
// the provider's hosted payment page URL. Seats remain free for other
// customers until payment is verified.
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
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
	url, err := h.Checkout.StartCheckout(c.Request().Context(), userID, body.ShowID, body.Seats, getUserEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, repository.ErrInvalidRequest):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, pricing.ErrInvalidSeatIdentifier):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrSeatConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are already booked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create checkout session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// ListPendingRefunds handles GET /v1/me/refunds. It lists the calling
// user's checkout attempts where the payment went through but the seats
// were taken in the meantime, so money is owed back. An empty list is
// the normal case.
func (h *PaymentHandler) ListPendingRefunds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	attempts, err := h.Checkout.PendingRefunds(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load pending refunds"})
	}
	items := make([]echo.Map, 0, len(attempts))
	for _, a := range attempts {
		item := echo.Map{
			"session_id": a.SessionID,
			"show_id":    a.ShowID,
			"seats":      a.Seats,
			"updated_at": a.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if a.ChargedCents != nil {
			item["charged_cents"] = *a.ChargedCents
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// VerifyPayment handles POST /v1/checkout/verify. It settles a session
// against the provider's authoritative payment state. The call is
// idempotent: re-verifying a confirmed session returns the same
// booking id. A 402 means the session is not paid yet and the client
// may poll again; a 409 means the customer paid but the seats were
// taken in the meantime and a refund is owed out of band.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	booking, err := h.Checkout.VerifyPayment(c.Request().Context(), body.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCheckoutNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "checkout session not found"})
		case errors.Is(err, repository.ErrPaymentNotCompleted):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not completed"})
		case errors.Is(err, repository.ErrPostPaymentConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seats were taken during the payment process; a refund will be issued"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify payment"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":   booking.ID,
		"amount_cents": booking.AmountCents,
	})
}
