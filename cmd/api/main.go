package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/pentacabs/booking-api/internal/cache"
	"github.com/pentacabs/booking-api/internal/gateway"
	"github.com/pentacabs/booking-api/internal/handlers"
	"github.com/pentacabs/booking-api/internal/repository"
	"github.com/pentacabs/booking-api/internal/service"
	"github.com/pentacabs/booking-api/pkg/config"
	"github.com/pentacabs/booking-api/pkg/database"
	"github.com/pentacabs/booking-api/pkg/events"
	"github.com/pentacabs/booking-api/pkg/logger"
	mw "github.com/pentacabs/booking-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to cache
	redisCache, err := cache.New(cfg.Redis.URL, cfg.Cache.CabResultsTTL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Payment gateway client
	gw := gateway.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	cabRepo := repository.NewCabRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	// Initialize services
	bookingService := service.NewBookingService(bookingRepo, cabRepo, idempotencyRepo, redisCache, eventBus)
	paymentService := service.NewPaymentService(gw, paymentRepo, bookingService, eventBus, cfg.Razorpay.Currency)

	// Initialize handlers
	h := handlers.New(bookingService, paymentService, eventBus, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("booking-api"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Fare and search
		r.Post("/search-cabs", h.SearchCabs)
		r.Post("/payment-options", h.PaymentOptions)
		r.Get("/payment-options", h.PaymentOptionsFromQuery)

		// Payment handshake
		r.With(mw.Idempotency(redisCache, cfg.Cache.IdempotencyTTL)).Post("/create-order", h.CreateOrder)
		r.With(mw.Idempotency(redisCache, cfg.Cache.IdempotencyTTL)).Post("/verify-payment", h.VerifyPayment)
		r.Post("/cancel-order", h.CancelOrder)

		// Bookings
		r.With(mw.Idempotency(redisCache, cfg.Cache.IdempotencyTTL)).Post("/create-booking-request", h.CreateBookingRequest)
		r.Get("/booking-requests", h.ListBookingRequests)
		r.Get("/booking-requests/{customBookingId}", h.GetBookingRequest)

		// Notifications
		r.Post("/send-airport-email", h.SendAirportEmail)
		r.Post("/send-local-email", h.SendLocalEmail)
		r.Post("/send-intercity-email", h.SendIntercityEmail)
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down booking API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Booking API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting booking API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Booking API error", "error", err)
		os.Exit(1)
	}
}
