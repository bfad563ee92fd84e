package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pentacabs/booking-api/internal/service"
	"github.com/pentacabs/booking-api/pkg/auth"
	"github.com/pentacabs/booking-api/pkg/config"
	"github.com/pentacabs/booking-api/pkg/events"
)

type Handlers struct {
	bookingService service.BookingService
	paymentService service.PaymentService
	publisher      events.Publisher
	config         *config.Config
}

func New(bookingService service.BookingService, paymentService service.PaymentService, publisher events.Publisher, cfg *config.Config) *Handlers {
	return &Handlers{
		bookingService: bookingService,
		paymentService: paymentService,
		publisher:      publisher,
		config:         cfg,
	}
}

// bookingToken extracts the access token from the Authorization header.
func bookingToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func (h *Handlers) parseBookingClaims(r *http.Request) *auth.Claims {
	token := bookingToken(r)
	if token == "" {
		return nil
	}
	claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
	if err != nil {
		return nil
	}
	return claims
}

// Helper functions for common response patterns
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Helper to parse pagination parameters
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
