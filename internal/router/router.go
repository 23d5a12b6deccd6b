package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/cinefy/cinefy-server/internal/handler"    // import the handlers that implement business logic
	"github.com/cinefy/cinefy-server/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// inspect the show catalog and seat availability before signing in.  Only
// the catalog listing sits behind the response cache; everything that
// reveals occupancy must be fresh, because stale seat state misleads
// customers into conflicts.
func RegisterPublic(e *echo.Echo, shows *handler.ShowHandler, bookings *handler.BookingHandler, cached ...echo.MiddlewareFunc) {
	// List upcoming shows.
	e.GET("/v1/shows", shows.ListShows, cached...)
	// Show details by show id, including current occupancy.  Never cached.
	e.GET("/v1/shows/:id", shows.GetShow)
	// Occupied seat labels for a show.  Never cached.
	e.GET("/v1/shows/:id/seats", bookings.GetOccupiedSeats)
}

// RegisterBooking registers the authenticated reservation and payment
// endpoints under /v1.  All of them require a valid bearer token issued
// by the external identity provider.  Additional middleware (e.g. the
// rate limiter) applies to the whole group.
func RegisterBooking(e *echo.Echo, bookings *handler.BookingHandler, payments *handler.PaymentHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	// Create a group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	for _, m := range extra {
		auth.Use(m)
	}
	// Direct booking path: claim seats immediately.
	auth.POST("/bookings", bookings.CreateBooking)
	// The calling user's booking ledger.
	auth.GET("/me/bookings", bookings.ListMyBookings)
	auth.GET("/me/bookings/:id", bookings.GetMyBooking)
	// Payment-gated path: create a provider checkout session, then verify
	// its outcome once the customer returns from the payment page.
	auth.POST("/checkout", payments.CreateCheckoutSession)
	auth.POST("/checkout/verify", payments.VerifyPayment)
	// Conflicted attempts awaiting an out-of-band refund.
	auth.GET("/me/refunds", payments.ListPendingRefunds)
}
