package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pentacabs/booking-api/internal/domain"
	"github.com/pentacabs/booking-api/internal/gateway"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.BookingRequest) (*domain.BookingRequest, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) GetByNumericID(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) GetByCustomID(ctx context.Context, customID string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, customID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) GetByCustomIDWithToken(ctx context.Context, customID, token string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, customID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.BookingRequest, error) {
	args := m.Called(ctx, email, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingRequest), args.Error(1)
}

type MockCabRepository struct {
	mock.Mock
}

func (m *MockCabRepository) ListByRoute(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error) {
	args := m.Called(ctx, serviceType, pickup, dropoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CabOption), args.Error(1)
}

type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Reserve(ctx context.Context, key string) (bool, int64, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockIdempotencyRepository) Complete(ctx context.Context, key string, bookingID int64) error {
	args := m.Called(ctx, key, bookingID)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreateAttempt(ctx context.Context, a *domain.PaymentAttempt) (*domain.PaymentAttempt, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttempt), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttempt), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, orderID string, to domain.AttemptStatus) (bool, error) {
	args := m.Called(ctx, orderID, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) MarkCaptured(ctx context.Context, orderID, paymentID string, bookingID int64) (bool, error) {
	args := m.Called(ctx, orderID, paymentID, bookingID)
	return args.Bool(0), args.Error(1)
}

type MockCabCache struct {
	mock.Mock
}

func (m *MockCabCache) GetCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error) {
	args := m.Called(ctx, serviceType, pickup, dropoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CabOption), args.Error(1)
}

func (m *MockCabCache) SetCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string, cabs []domain.CabOption) error {
	args := m.Called(ctx, serviceType, pickup, dropoff, cabs)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]interface{}) (*gateway.Order, error) {
	args := m.Called(ctx, amountPaise, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Order), args.Error(1)
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) SearchCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error) {
	args := m.Called(ctx, serviceType, pickup, dropoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CabOption), args.Error(1)
}

func (m *MockBookingService) CreateBookingRequest(ctx context.Context, draft *domain.BookingDraft, tier string, paymentOrderID *string, idempotencyKey string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, draft, tier, paymentOrderID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, customID string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, customID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingService) GetBookingWithToken(ctx context.Context, customID, token string) (*domain.BookingRequest, error) {
	args := m.Called(ctx, customID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingRequest), args.Error(1)
}

func (m *MockBookingService) ListBookingsByEmail(ctx context.Context, email string, limit, offset int) ([]domain.BookingRequest, error) {
	args := m.Called(ctx, email, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingRequest), args.Error(1)
}

func validDraft() *domain.BookingDraft {
	return &domain.BookingDraft{
		ServiceType: "OUTSTATION",
		TripType:    "ONEWAY",
		Origin:      "Ahmedabad",
		Destination: "Mumbai",
		Date:        "2025-11-20",
		Time:        "09:30",
		Name:        "Ravi Patel",
		Mobile:      "+919876543210",
		Email:       "ravi@example.com",
		CabType:     "Sedan",
		CabPrice:    2500,
		CabCapacity: 4,
	}
}
