package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pentacabs/booking-api/internal/cache"
	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/fare"
	"github.com/pentacabs/booking-api/internal/repository"
	"github.com/pentacabs/booking-api/pkg/events"
	"github.com/pentacabs/booking-api/pkg/logger"
)

var (
	ErrBookingNotFound = errors.New("booking request not found")
	ErrInvalidTier     = errors.New("unknown payment tier")
	ErrRequestInFlight = errors.New("an identical booking request is already being processed")
)

type BookingService interface {
	SearchCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error)
	// CreateBookingRequest persists a confirmed booking. It is the cash path
	// when paymentOrderID is nil, and the tail of a verified gateway payment
	// otherwise.
	CreateBookingRequest(ctx context.Context, draft *domain.BookingDraft, tier string, paymentOrderID *string, idempotencyKey string) (*domain.BookingRequest, error)
	GetBooking(ctx context.Context, customID string) (*domain.BookingRequest, error)
	GetBookingWithToken(ctx context.Context, customID, token string) (*domain.BookingRequest, error)
	ListBookingsByEmail(ctx context.Context, email string, limit, offset int) ([]domain.BookingRequest, error)
}

// CabCache is the slice of the redis cache the booking service needs.
type CabCache interface {
	GetCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error)
	SetCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string, cabs []domain.CabOption) error
}

var _ CabCache = (*cache.RedisCache)(nil)

type bookingService struct {
	bookingRepo     repository.BookingRepository
	cabRepo         repository.CabRepository
	idempotencyRepo repository.IdempotencyRepository
	cabCache        CabCache
	eventBus        events.Publisher
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	cabRepo repository.CabRepository,
	idempotencyRepo repository.IdempotencyRepository,
	cabCache CabCache,
	eventBus events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo:     bookingRepo,
		cabRepo:         cabRepo,
		idempotencyRepo: idempotencyRepo,
		cabCache:        cabCache,
		eventBus:        eventBus,
	}
}

func (s *bookingService) SearchCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error) {
	if s.cabCache != nil {
		cabs, err := s.cabCache.GetCabs(ctx, serviceType, pickup, dropoff)
		if err != nil {
			logger.WarnContext(ctx, "Cab cache read failed", "error", err)
		} else if cabs != nil {
			return cabs, nil
		}
	}

	cabs, err := s.cabRepo.ListByRoute(ctx, serviceType, pickup, dropoff)
	if err != nil {
		return nil, fmt.Errorf("failed to search cabs: %w", err)
	}

	if s.cabCache != nil && len(cabs) > 0 {
		if err := s.cabCache.SetCabs(ctx, serviceType, pickup, dropoff, cabs); err != nil {
			logger.WarnContext(ctx, "Cab cache write failed", "error", err)
		}
	}

	return cabs, nil
}

func (s *bookingService) CreateBookingRequest(ctx context.Context, draft *domain.BookingDraft, tier string, paymentOrderID *string, idempotencyKey string) (*domain.BookingRequest, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	opt, ok := fare.OptionForTier(draft.CabPrice, tier)
	if !ok {
		return nil, ErrInvalidTier
	}

	// Claim the idempotency key before touching the database. Losing the
	// claim means another request with the same key got here first: replay
	// its booking if it finished, reject if it is still running.
	if idempotencyKey != "" {
		owned, existingID, err := s.idempotencyRepo.Reserve(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !owned {
			if existingID > 0 {
				return s.getByID(ctx, existingID)
			}
			return nil, ErrRequestInFlight
		}
	}

	method := domain.PayGateway
	if tier == fare.TierCash {
		method = domain.PayCash
	}

	serviceType, _ := domain.ParseServiceType(draft.ServiceType)
	tripType, _ := domain.ParseTripType(draft.TripType)
	pickup, dropoff := draft.Route()

	booking, err := s.bookingRepo.Create(ctx, &domain.BookingRequest{
		Status:         domain.BookingConfirmed,
		ServiceType:    serviceType,
		TripType:       tripType,
		Pickup:         pickup,
		Dropoff:        dropoff,
		TravelDate:     draft.Date,
		TravelTime:     draft.Time,
		TravelerName:   draft.Name,
		TravelerMobile: domain.NormalizePhone(draft.Mobile),
		TravelerEmail:  domain.NormalizeEmail(draft.Email),
		CabType:        draft.CabType,
		CabCapacity:    draft.CabCapacity,
		TotalFare:      draft.CabPrice,
		AdvanceAmount:  opt.BaseAmount,
		PlatformFee:    opt.PlatformFee,
		PaymentMethod:  method,
		PaymentOrderID: paymentOrderID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	if idempotencyKey != "" {
		if err := s.idempotencyRepo.Complete(ctx, idempotencyKey, booking.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "booking_id", booking.ID)
		}
	}

	event := events.BookingCreatedEvent{
		BookingID:       booking.ID,
		CustomBookingID: booking.CustomBookingID,
		ServiceType:     string(booking.ServiceType),
		TripType:        string(booking.TripType),
		Pickup:          booking.Pickup,
		Dropoff:         booking.Dropoff,
		TravelDate:      booking.TravelDate,
		TravelTime:      booking.TravelTime,
		TravelerName:    booking.TravelerName,
		TravelerEmail:   booking.TravelerEmail,
		PaymentMethod:   string(booking.PaymentMethod),
		AdvanceAmount:   booking.AdvanceAmount,
		TotalFare:       booking.TotalFare,
		CreatedAt:       booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, customID string) (*domain.BookingRequest, error) {
	return s.bookingRepo.GetByCustomID(ctx, customID)
}

func (s *bookingService) GetBookingWithToken(ctx context.Context, customID, token string) (*domain.BookingRequest, error) {
	return s.bookingRepo.GetByCustomIDWithToken(ctx, customID, token)
}

func (s *bookingService) ListBookingsByEmail(ctx context.Context, email string, limit, offset int) ([]domain.BookingRequest, error) {
	return s.bookingRepo.ListByEmail(ctx, email, limit, offset)
}

// getByID resolves an idempotency hit; the idempotency table stores numeric
// ids rather than custom booking ids.
func (s *bookingService) getByID(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	booking, err := s.bookingRepo.GetByNumericID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}
