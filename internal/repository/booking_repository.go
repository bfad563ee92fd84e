package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pentacabs/booking-api/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.BookingRequest) (*domain.BookingRequest, error)
	GetByNumericID(ctx context.Context, id int64) (*domain.BookingRequest, error)
	GetByCustomID(ctx context.Context, customID string) (*domain.BookingRequest, error)
	GetByCustomIDWithToken(ctx context.Context, customID, token string) (*domain.BookingRequest, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.BookingRequest, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, custom_booking_id, manage_token, status,
service_type, trip_type, pickup, dropoff, travel_date, travel_time,
traveler_name, traveler_mobile, traveler_email,
cab_type, cab_capacity, total_fare, advance_amount, platform_fee,
payment_method, payment_order_id, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, b *domain.BookingRequest) (*domain.BookingRequest, error) {
	const q = `INSERT INTO booking_requests (
		custom_booking_id, manage_token, status,
		service_type, trip_type, pickup, dropoff, travel_date, travel_time,
		traveler_name, traveler_mobile, traveler_email,
		cab_type, cab_capacity, total_fare, advance_amount, platform_fee,
		payment_method, payment_order_id
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	RETURNING ` + bookingCols

	if b.CustomBookingID == "" {
		b.CustomBookingID = NewCustomBookingID()
	}
	if b.ManageToken == "" {
		b.ManageToken = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.BookingRequest
	err := r.pool.QueryRow(ctx, q,
		b.CustomBookingID, b.ManageToken, b.Status,
		b.ServiceType, b.TripType, b.Pickup, b.Dropoff, b.TravelDate, b.TravelTime,
		b.TravelerName, b.TravelerMobile, b.TravelerEmail,
		b.CabType, b.CabCapacity, b.TotalFare, b.AdvanceAmount, b.PlatformFee,
		b.PaymentMethod, b.PaymentOrderID,
	).Scan(
		&out.ID, &out.CustomBookingID, &out.ManageToken, &out.Status,
		&out.ServiceType, &out.TripType, &out.Pickup, &out.Dropoff, &out.TravelDate, &out.TravelTime,
		&out.TravelerName, &out.TravelerMobile, &out.TravelerEmail,
		&out.CabType, &out.CabCapacity, &out.TotalFare, &out.AdvanceAmount, &out.PlatformFee,
		&out.PaymentMethod, &out.PaymentOrderID, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bookingRepository) GetByNumericID(ctx context.Context, id int64) (*domain.BookingRequest, error) {
	const q = `SELECT ` + bookingCols + ` FROM booking_requests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.BookingRequest
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.CustomBookingID, &b.ManageToken, &b.Status,
		&b.ServiceType, &b.TripType, &b.Pickup, &b.Dropoff, &b.TravelDate, &b.TravelTime,
		&b.TravelerName, &b.TravelerMobile, &b.TravelerEmail,
		&b.CabType, &b.CabCapacity, &b.TotalFare, &b.AdvanceAmount, &b.PlatformFee,
		&b.PaymentMethod, &b.PaymentOrderID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &b, err
}

func (r *bookingRepository) GetByCustomID(ctx context.Context, customID string) (*domain.BookingRequest, error) {
	const q = `SELECT ` + bookingCols + ` FROM booking_requests WHERE custom_booking_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.BookingRequest
	err := r.pool.QueryRow(ctx, q, customID).Scan(
		&b.ID, &b.CustomBookingID, &b.ManageToken, &b.Status,
		&b.ServiceType, &b.TripType, &b.Pickup, &b.Dropoff, &b.TravelDate, &b.TravelTime,
		&b.TravelerName, &b.TravelerMobile, &b.TravelerEmail,
		&b.CabType, &b.CabCapacity, &b.TotalFare, &b.AdvanceAmount, &b.PlatformFee,
		&b.PaymentMethod, &b.PaymentOrderID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &b, err
}

func (r *bookingRepository) GetByCustomIDWithToken(ctx context.Context, customID, token string) (*domain.BookingRequest, error) {
	const q = `SELECT ` + bookingCols + ` FROM booking_requests WHERE custom_booking_id=$1 AND manage_token=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.BookingRequest
	err := r.pool.QueryRow(ctx, q, customID, token).Scan(
		&b.ID, &b.CustomBookingID, &b.ManageToken, &b.Status,
		&b.ServiceType, &b.TripType, &b.Pickup, &b.Dropoff, &b.TravelDate, &b.TravelTime,
		&b.TravelerName, &b.TravelerMobile, &b.TravelerEmail,
		&b.CabType, &b.CabCapacity, &b.TotalFare, &b.AdvanceAmount, &b.PlatformFee,
		&b.PaymentMethod, &b.PaymentOrderID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &b, err
}

func (r *bookingRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.BookingRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + bookingCols + ` FROM booking_requests
		WHERE lower(traveler_email)=lower($1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, email, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.BookingRequest
	for rows.Next() {
		var b domain.BookingRequest
		if err := rows.Scan(
			&b.ID, &b.CustomBookingID, &b.ManageToken, &b.Status,
			&b.ServiceType, &b.TripType, &b.Pickup, &b.Dropoff, &b.TravelDate, &b.TravelTime,
			&b.TravelerName, &b.TravelerMobile, &b.TravelerEmail,
			&b.CabType, &b.CabCapacity, &b.TotalFare, &b.AdvanceAmount, &b.PlatformFee,
			&b.PaymentMethod, &b.PaymentOrderID, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// NewCustomBookingID generates the reference shown to the traveler,
// e.g. PC-7F3A21B9.
func NewCustomBookingID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PC-" + strings.ToUpper(raw[:8])
}
