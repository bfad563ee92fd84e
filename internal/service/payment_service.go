package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/fare"
	"github.com/pentacabs/booking-api/internal/gateway"
	"github.com/pentacabs/booking-api/internal/repository"
	"github.com/pentacabs/booking-api/pkg/events"
	"github.com/pentacabs/booking-api/pkg/logger"
)

var (
	ErrCashTier           = errors.New("cash bookings do not require a payment order")
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrOrderNotOpen       = errors.New("payment order is no longer open")
	ErrVerificationFailed = errors.New("payment signature verification failed")
)

// VerifyRequest carries what the hosted checkout hands back on success,
// together with the draft the confirmation page has been holding.
type VerifyRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	Draft     *domain.BookingDraft
	Tier      string
}

type PaymentService interface {
	// CreateOrder recomputes the tier amount server-side, registers a gateway
	// order and records the attempt. Tier "0" is rejected; cash bookings go
	// straight to BookingService.CreateBookingRequest.
	CreateOrder(ctx context.Context, draft *domain.BookingDraft, tier string) (*domain.PaymentAttempt, error)
	// VerifyPayment validates the checkout signature and, on success, turns
	// the attempt into a confirmed booking request.
	VerifyPayment(ctx context.Context, req *VerifyRequest, idempotencyKey string) (*domain.BookingRequest, error)
	// CancelOrder voids an open attempt after the traveler dismisses the
	// hosted checkout.
	CancelOrder(ctx context.Context, orderID string) error
}

type paymentService struct {
	gw          gateway.Gateway
	paymentRepo repository.PaymentRepository
	bookings    BookingService
	eventBus    events.Publisher
	currency    string
}

func NewPaymentService(
	gw gateway.Gateway,
	paymentRepo repository.PaymentRepository,
	bookings BookingService,
	eventBus events.Publisher,
	currency string,
) PaymentService {
	return &paymentService{
		gw:          gw,
		paymentRepo: paymentRepo,
		bookings:    bookings,
		eventBus:    eventBus,
		currency:    currency,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, draft *domain.BookingDraft, tier string) (*domain.PaymentAttempt, error) {
	if tier == fare.TierCash {
		return nil, ErrCashTier
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	opt, ok := fare.OptionForTier(draft.CabPrice, tier)
	if !ok {
		return nil, ErrInvalidTier
	}
	if opt.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	pickup, dropoff := draft.Route()
	notes := map[string]interface{}{
		"service_type": draft.ServiceType,
		"trip_type":    draft.TripType,
		"route":        pickup + " -> " + dropoff,
		"travel_date":  draft.Date,
		"travel_time":  draft.Time,
		"cab_type":     draft.CabType,
		"traveler":     draft.Name,
	}

	// The gateway works in paise; fares are whole rupees.
	order, err := s.gw.CreateOrder(ctx, opt.Amount*100, s.currency, uuid.NewString(), notes)
	if err != nil {
		return nil, fmt.Errorf("order creation failed: %w", err)
	}

	attempt, err := s.paymentRepo.CreateAttempt(ctx, &domain.PaymentAttempt{
		OrderID:       order.ID,
		Tier:          tier,
		BaseAmount:    opt.BaseAmount,
		PlatformFee:   opt.PlatformFee,
		Amount:        opt.Amount,
		Currency:      order.Currency,
		TravelerEmail: domain.NormalizeEmail(draft.Email),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment attempt: %w", err)
	}

	event := events.PaymentOrderCreatedEvent{
		OrderID:   attempt.OrderID,
		Tier:      attempt.Tier,
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
		CreatedAt: attempt.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.PaymentOrderCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish order created event", "error", err, "order_id", attempt.OrderID)
	}

	return attempt, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, req *VerifyRequest, idempotencyKey string) (*domain.BookingRequest, error) {
	attempt, err := s.paymentRepo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment attempt: %w", err)
	}
	if attempt == nil {
		return nil, ErrOrderNotFound
	}
	if !attempt.Status.CanTransition(domain.AttemptCaptured) {
		return nil, ErrOrderNotOpen
	}

	if !s.gw.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.failAttempt(ctx, req.OrderID, "signature mismatch")
		return nil, ErrVerificationFailed
	}

	booking, err := s.bookings.CreateBookingRequest(ctx, req.Draft, req.Tier, &req.OrderID, idempotencyKey)
	if err != nil {
		// Payment went through but the booking could not be stored; keep the
		// attempt open so support can reconcile it against the gateway.
		return nil, fmt.Errorf("failed to create booking after payment: %w", err)
	}

	if ok, err := s.paymentRepo.MarkCaptured(ctx, req.OrderID, req.PaymentID, booking.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to mark attempt captured", "error", err, "order_id", req.OrderID)
	} else if !ok {
		logger.WarnContext(ctx, "Attempt no longer open while capturing", "order_id", req.OrderID)
	}

	event := events.PaymentCapturedEvent{
		OrderID:         req.OrderID,
		PaymentID:       req.PaymentID,
		CustomBookingID: booking.CustomBookingID,
		Amount:          attempt.Amount,
		CapturedAt:      time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.PaymentCaptured, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment captured event", "error", err, "order_id", req.OrderID)
	}

	return booking, nil
}

func (s *paymentService) CancelOrder(ctx context.Context, orderID string) error {
	attempt, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load payment attempt: %w", err)
	}
	if attempt == nil {
		return ErrOrderNotFound
	}
	if !attempt.Status.CanTransition(domain.AttemptCanceled) {
		return ErrOrderNotOpen
	}

	ok, err := s.paymentRepo.UpdateStatus(ctx, orderID, domain.AttemptCanceled)
	if err != nil {
		return fmt.Errorf("failed to cancel payment attempt: %w", err)
	}
	if !ok {
		return ErrOrderNotOpen
	}

	logger.InfoContext(ctx, "Checkout dismissed, order canceled", "order_id", orderID)

	event := events.PaymentCanceledEvent{
		OrderID:    orderID,
		CanceledAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.PaymentCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment canceled event", "error", err, "order_id", orderID)
	}

	return nil
}

func (s *paymentService) failAttempt(ctx context.Context, orderID, reason string) {
	if _, err := s.paymentRepo.UpdateStatus(ctx, orderID, domain.AttemptFailed); err != nil {
		logger.ErrorContext(ctx, "Failed to mark attempt failed", "error", err, "order_id", orderID)
	}

	event := events.PaymentFailedEvent{
		OrderID:  orderID,
		Reason:   reason,
		FailedAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.PaymentFailed, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment failed event", "error", err, "order_id", orderID)
	}
}
