package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/response"
	"github.com/pentacabs/booking-api/internal/service"
	"github.com/pentacabs/booking-api/pkg/logger"
)

type createOrderRequest struct {
	// Price arrives as whatever the fare page held; unparseable values are
	// treated as 0 and rejected downstream as a non-positive amount.
	Price           json.Number          `json:"price"`
	SelectedPayment string               `json:"selectedPayment"`
	Booking         *domain.BookingDraft `json:"booking"`
}

type createOrderResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder registers a gateway order for a paid advance tier.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.Booking == nil {
		response.BadRequest(w, "Booking details are required")
		return
	}

	price, err := req.Price.Int64()
	if err != nil {
		price = 0
	}
	req.Booking.CabPrice = price

	attempt, err := h.paymentService.CreateOrder(r.Context(), req.Booking, strings.TrimSpace(req.SelectedPayment))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCashTier), errors.Is(err, service.ErrInvalidTier), errors.Is(err, service.ErrInvalidAmount):
			response.BadRequest(w, err.Error())
		default:
			logger.ErrorContext(r.Context(), "Order creation failed", "error", err)
			response.WriteError(w, http.StatusBadGateway, "Unable to create payment order", response.CodeOrderCreateFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, createOrderResponse{
		Success:  true,
		ID:       attempt.OrderID,
		Amount:   attempt.Amount * 100,
		Currency: attempt.Currency,
	})
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string               `json:"razorpay_order_id"`
	RazorpayPaymentID string               `json:"razorpay_payment_id"`
	RazorpaySignature string               `json:"razorpay_signature"`
	BookingData       *domain.BookingDraft `json:"bookingData"`
	SelectedPayment   string               `json:"selectedPayment"`
	TotalFare         json.Number          `json:"totalFare"`
}

type verifyPaymentResponse struct {
	Success         bool   `json:"success"`
	CustomBookingID string `json:"customBookingId,omitempty"`
	ManageToken     string `json:"manage_token,omitempty"`
	AccessToken     string `json:"access_token,omitempty"`
}

// VerifyPayment validates the checkout signature and confirms the booking.
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		response.BadRequest(w, "Missing payment verification fields")
		return
	}
	if req.BookingData == nil {
		response.BadRequest(w, "Booking details are required")
		return
	}

	if fare, err := req.TotalFare.Int64(); err == nil && fare > 0 {
		req.BookingData.CabPrice = fare
	}

	booking, err := h.bookingFromVerify(r, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(w, "Payment order not found")
		case errors.Is(err, service.ErrOrderNotOpen):
			response.WriteError(w, http.StatusConflict, "Payment order is no longer open", response.CodeVerifyFailed)
		case errors.Is(err, service.ErrVerificationFailed):
			response.WriteError(w, http.StatusBadRequest, "Payment verification failed", response.CodeVerifyFailed)
		default:
			logger.ErrorContext(r.Context(), "Payment verification failed", "error", err, "order_id", req.RazorpayOrderID)
			response.WriteError(w, http.StatusInternalServerError, "Payment verification failed", response.CodeVerifyFailed)
		}
		return
	}

	resp := verifyPaymentResponse{
		Success:         true,
		CustomBookingID: booking.CustomBookingID,
		ManageToken:     booking.ManageToken,
	}
	if token, err := h.newAccessToken(booking.CustomBookingID, booking.TravelerEmail); err == nil {
		resp.AccessToken = token
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) bookingFromVerify(r *http.Request, req *verifyPaymentRequest) (*domain.BookingRequest, error) {
	return h.paymentService.VerifyPayment(r.Context(), &service.VerifyRequest{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
		Draft:     req.BookingData,
		Tier:      strings.TrimSpace(req.SelectedPayment),
	}, r.Header.Get("Idempotency-Key"))
}

type cancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

// CancelOrder voids an open order after the traveler dismisses the checkout.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		response.BadRequest(w, "order_id is required")
		return
	}

	if err := h.paymentService.CancelOrder(r.Context(), req.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(w, "Payment order not found")
		case errors.Is(err, service.ErrOrderNotOpen):
			response.WriteError(w, http.StatusConflict, "Payment order is no longer open", response.CodeVerifyFailed)
		default:
			logger.ErrorContext(r.Context(), "Order cancellation failed", "error", err, "order_id", req.OrderID)
			response.InternalError(w, "Failed to cancel order")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
