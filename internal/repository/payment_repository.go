package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pentacabs/booking-api/internal/domain"
)

type PaymentRepository interface {
	CreateAttempt(ctx context.Context, a *domain.PaymentAttempt) (*domain.PaymentAttempt, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error)
	// UpdateStatus moves an attempt out of the created status. It reports
	// false when the attempt is already terminal or unknown.
	UpdateStatus(ctx context.Context, orderID string, to domain.AttemptStatus) (bool, error)
	// MarkCaptured records the gateway payment id and booking id along with
	// the captured status, in one statement.
	MarkCaptured(ctx context.Context, orderID, paymentID string, bookingID int64) (bool, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const attemptCols = `id, order_id, tier, base_amount, platform_fee, amount, currency,
status, payment_id, booking_id, traveler_email, created_at, updated_at`

func (r *paymentRepository) CreateAttempt(ctx context.Context, a *domain.PaymentAttempt) (*domain.PaymentAttempt, error) {
	const q = `INSERT INTO payment_attempts (
		order_id, tier, base_amount, platform_fee, amount, currency, status, traveler_email
	) VALUES ($1,$2,$3,$4,$5,$6,'created',$7)
	RETURNING ` + attemptCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.PaymentAttempt
	err := r.pool.QueryRow(ctx, q,
		a.OrderID, a.Tier, a.BaseAmount, a.PlatformFee, a.Amount, a.Currency, a.TravelerEmail,
	).Scan(
		&out.ID, &out.OrderID, &out.Tier, &out.BaseAmount, &out.PlatformFee, &out.Amount, &out.Currency,
		&out.Status, &out.PaymentID, &out.BookingID, &out.TravelerEmail, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	const q = `SELECT ` + attemptCols + ` FROM payment_attempts WHERE order_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.PaymentAttempt
	err := r.pool.QueryRow(ctx, q, orderID).Scan(
		&a.ID, &a.OrderID, &a.Tier, &a.BaseAmount, &a.PlatformFee, &a.Amount, &a.Currency,
		&a.Status, &a.PaymentID, &a.BookingID, &a.TravelerEmail, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, orderID string, to domain.AttemptStatus) (bool, error) {
	// created is the only non-terminal status, so the WHERE clause enforces
	// the state machine at the database level.
	const q = `UPDATE payment_attempts SET status=$2, updated_at=now()
		WHERE order_id=$1 AND status='created'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, orderID, to)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) MarkCaptured(ctx context.Context, orderID, paymentID string, bookingID int64) (bool, error) {
	const q = `UPDATE payment_attempts
		SET status='captured', payment_id=$2, booking_id=$3, updated_at=now()
		WHERE order_id=$1 AND status='created'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, orderID, paymentID, bookingID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
