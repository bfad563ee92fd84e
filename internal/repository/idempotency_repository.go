package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdempotencyRepository interface {
	// Reserve atomically claims a key. It returns owned=true when this call
	// won the reservation and the caller should proceed. Otherwise
	// existingBookingID carries the booking recorded for the key, or 0 while
	// the winning request is still in flight.
	Reserve(ctx context.Context, key string) (owned bool, existingBookingID int64, err error)
	// Complete records the booking created under a reserved key.
	Complete(ctx context.Context, key string, bookingID int64) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

// hashKey hashes the idempotency key for privacy and consistent length.
func hashKey(key string) string {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key string) (bool, int64, error) {
	keyHash := hashKey(key)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// A single conflict-aware insert decides the winner; concurrent requests
	// carrying the same key cannot both claim it.
	const reserveQuery = `
		INSERT INTO booking_idempotency (key_hash, booking_id, expires_at)
		VALUES ($1, NULL, $2)
		ON CONFLICT (key_hash) DO NOTHING
		RETURNING key_hash`

	expiresAt := time.Now().Add(24 * time.Hour)
	var inserted string
	err := r.pool.QueryRow(ctx, reserveQuery, keyHash, expiresAt).Scan(&inserted)
	if err == nil {
		return true, 0, nil
	}
	if err != pgx.ErrNoRows {
		return false, 0, err
	}

	const lookupQuery = `SELECT COALESCE(booking_id, 0) FROM booking_idempotency WHERE key_hash = $1`
	var existingBookingID int64
	if err := r.pool.QueryRow(ctx, lookupQuery, keyHash).Scan(&existingBookingID); err != nil {
		if err == pgx.ErrNoRows {
			// The winning row expired and was cleaned up between the two
			// queries; treat the key as still in flight.
			return false, 0, nil
		}
		return false, 0, err
	}

	return false, existingBookingID, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, bookingID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const query = `UPDATE booking_idempotency SET booking_id = $2 WHERE key_hash = $1`
	_, err := r.pool.Exec(ctx, query, hashKey(key), bookingID)
	return err
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	const query = `DELETE FROM booking_idempotency WHERE expires_at < now()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
