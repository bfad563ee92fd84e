package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/draft"
	"github.com/pentacabs/booking-api/internal/fare"
	"github.com/pentacabs/booking-api/internal/response"
	"github.com/pentacabs/booking-api/internal/service"
	"github.com/pentacabs/booking-api/pkg/auth"
	"github.com/pentacabs/booking-api/pkg/logger"
)

type searchCabsRequest struct {
	ServiceType string `json:"serviceType"`
	Pickup      string `json:"pickup"`
	Dropoff     string `json:"dropoff"`
}

type searchCabsResponse struct {
	Success bool               `json:"success"`
	Cabs    []domain.CabOption `json:"cabs"`
}

// SearchCabs lists the cab options available on a route.
func (h *Handlers) SearchCabs(w http.ResponseWriter, r *http.Request) {
	var req searchCabsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	serviceType, ok := domain.ParseServiceType(req.ServiceType)
	if !ok {
		response.BadRequest(w, "Unknown service type")
		return
	}
	if strings.TrimSpace(req.Pickup) == "" || strings.TrimSpace(req.Dropoff) == "" {
		response.BadRequest(w, "Pickup and dropoff are required")
		return
	}

	cabs, err := h.bookingService.SearchCabs(r.Context(), serviceType, req.Pickup, req.Dropoff)
	if err != nil {
		logger.ErrorContext(r.Context(), "Cab search failed", "error", err)
		response.InternalError(w, "Failed to search cabs")
		return
	}
	if cabs == nil {
		cabs = []domain.CabOption{}
	}

	writeJSON(w, http.StatusOK, searchCabsResponse{Success: true, Cabs: cabs})
}

type paymentOptionsRequest struct {
	TotalFare json.Number `json:"totalFare"`
}

type paymentOptionsResponse struct {
	Success bool                 `json:"success"`
	Options []fare.PaymentOption `json:"options"`
}

// PaymentOptions returns the advance tiers for a fare so the confirmation
// page renders server-computed amounts.
func (h *Handlers) PaymentOptions(w http.ResponseWriter, r *http.Request) {
	var req paymentOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	totalFare, err := req.TotalFare.Int64()
	if err != nil {
		totalFare = 0
	}

	writeJSON(w, http.StatusOK, paymentOptionsResponse{
		Success: true,
		Options: fare.Options(totalFare),
	})
}

type draftPaymentOptionsResponse struct {
	Success bool                 `json:"success"`
	Draft   *domain.BookingDraft `json:"draft"`
	Query   string               `json:"query"`
	Options []fare.PaymentOption `json:"options"`
}

// PaymentOptionsFromQuery serves the confirmation page's initial load. The
// booking flow carries the draft in the query string; the decoded draft is
// echoed back together with a normalized query string for the next page's
// URL and the advance tiers for its fare.
func (h *Handlers) PaymentOptionsFromQuery(w http.ResponseWriter, r *http.Request) {
	d := draft.Decode(r.URL.Query())

	values, err := draft.Encode(d)
	if err != nil {
		logger.ErrorContext(r.Context(), "Draft encode failed", "error", err)
		response.InternalError(w, "Failed to prepare payment options")
		return
	}

	writeJSON(w, http.StatusOK, draftPaymentOptionsResponse{
		Success: true,
		Draft:   d,
		Query:   values.Encode(),
		Options: fare.Options(d.CabPrice),
	})
}

type createBookingRequest struct {
	Booking         *domain.BookingDraft `json:"booking"`
	SelectedPayment string               `json:"selectedPayment"`
}

type createBookingResponse struct {
	Success         bool   `json:"success"`
	CustomBookingID string `json:"customBookingId"`
	ManageToken     string `json:"manage_token"`
	AccessToken     string `json:"access_token,omitempty"`
}

// CreateBookingRequest is the cash path: the booking is confirmed without
// touching the payment gateway.
func (h *Handlers) CreateBookingRequest(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.Booking == nil {
		response.BadRequest(w, "Booking details are required")
		return
	}

	tier := strings.TrimSpace(req.SelectedPayment)
	if tier == "" {
		tier = fare.TierCash
	}
	if tier != fare.TierCash {
		response.BadRequest(w, "Paid tiers must go through the payment order flow")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	booking, err := h.bookingService.CreateBookingRequest(r.Context(), req.Booking, tier, nil, idempotencyKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTier) {
			response.BadRequest(w, err.Error())
			return
		}
		if errors.Is(err, service.ErrRequestInFlight) {
			response.WriteError(w, http.StatusConflict, err.Error(), response.CodeBookingFailed)
			return
		}
		logger.ErrorContext(r.Context(), "Booking request failed", "error", err)
		response.WriteError(w, http.StatusBadRequest, "There was an issue with your booking request", response.CodeBookingFailed)
		return
	}

	resp := createBookingResponse{
		Success:         true,
		CustomBookingID: booking.CustomBookingID,
		ManageToken:     booking.ManageToken,
	}
	if token, err := h.newAccessToken(booking.CustomBookingID, booking.TravelerEmail); err == nil {
		resp.AccessToken = token
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetBookingRequest serves the thank-you page lookup. Access is granted by
// either the manage token or a booking access token.
func (h *Handlers) GetBookingRequest(w http.ResponseWriter, r *http.Request) {
	customID := chi.URLParam(r, "customBookingId")
	if customID == "" {
		response.BadRequest(w, "Booking ID is required")
		return
	}

	// Public access via manage token
	if token := r.URL.Query().Get("manage_token"); token != "" {
		booking, err := h.bookingService.GetBookingWithToken(r.Context(), customID, token)
		if err != nil {
			logger.ErrorContext(r.Context(), "Booking lookup failed", "error", err)
			response.InternalError(w, "Failed to retrieve booking")
			return
		}
		if booking == nil {
			response.NotFound(w, "Booking not found")
			return
		}
		writeJSON(w, http.StatusOK, booking)
		return
	}

	claims := h.parseBookingClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}
	if claims.BookingID != customID {
		response.NotFound(w, "Booking not found")
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), customID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Booking lookup failed", "error", err)
		response.InternalError(w, "Failed to retrieve booking")
		return
	}
	if booking == nil || !booking.IsOwner(claims.Email) {
		response.NotFound(w, "Booking not found")
		return
	}

	booking.ManageToken = ""
	writeJSON(w, http.StatusOK, booking)
}

// ListBookingRequests lists the caller's bookings by token email.
func (h *Handlers) ListBookingRequests(w http.ResponseWriter, r *http.Request) {
	claims := h.parseBookingClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, offset := parsePagination(r)

	bookings, err := h.bookingService.ListBookingsByEmail(r.Context(), claims.Email, limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "Booking list failed", "error", err)
		response.InternalError(w, "Failed to retrieve bookings")
		return
	}

	for i := range bookings {
		bookings[i].ManageToken = ""
	}

	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) newAccessToken(customBookingID, email string) (string, error) {
	return auth.NewBookingToken(customBookingID, email, h.config.Auth.JWTSecret, h.config.Auth.BookingTokenTTL)
}
