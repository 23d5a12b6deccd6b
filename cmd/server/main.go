package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads variables from a .env file
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/cinefy/cinefy-server/internal/config"     // Internal config loader
	"github.com/cinefy/cinefy-server/internal/database"   // MySQL connection helper
	"github.com/cinefy/cinefy-server/internal/handler"    // HTTP handlers
	"github.com/cinefy/cinefy-server/internal/middleware" // Cache and rate limit middleware
	"github.com/cinefy/cinefy-server/internal/payment"    // Stripe checkout provider
	"github.com/cinefy/cinefy-server/internal/queue"      // RabbitMQ consumers
	"github.com/cinefy/cinefy-server/internal/repository" // Data access layer
	"github.com/cinefy/cinefy-server/internal/router"     // Route registration
	"github.com/cinefy/cinefy-server/internal/service"    // Reservation and checkout services
)

func main() {
	// Load .env if present; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool.  Load aborts earlier if the DSN pieces are
	// missing, so a failure here means the server is unreachable.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  Both
	// middlewares degrade to no-ops when the client is nil.
	rdb := config.NewRedisClient()

	// Repositories share the single pool.
	showRepo := repository.NewShowRepo(db)
	invRepo := repository.NewInventoryRepo(db)
	bookingRepo := repository.NewBookingRepo(db, invRepo)
	checkoutRepo := repository.NewCheckoutRepo(db)

	// Stripe hosts the payment page; we only create and verify sessions.
	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.Currency)

	notifier := &service.BrokerNotifier{}
	reservations := service.NewReservationService(showRepo, bookingRepo, notifier)
	checkout := service.NewCheckoutService(
		showRepo, invRepo, bookingRepo, checkoutRepo,
		provider, notifier,
		cfg.SuccessURL(), cfg.CancelURL(),
	)

	bookingHandler := handler.NewBookingHandler(reservations, invRepo, bookingRepo)
	showHandler := handler.NewShowHandler(showRepo, invRepo)
	paymentHandler := handler.NewPaymentHandler(checkout)

	e := echo.New() // Create Echo instance

	router.RegisterRoutes(e) // Health check
	router.RegisterPublic(e, showHandler, bookingHandler,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterBooking(e, bookingHandler, paymentHandler, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Queue consumers drain booking.confirmed and payment.conflict in the
	// background for the lifetime of the process.
	go queue.StartConsumers()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
