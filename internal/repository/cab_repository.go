package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pentacabs/booking-api/internal/domain"
)

type CabRepository interface {
	ListByRoute(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error)
}

type cabRepository struct {
	pool *pgxpool.Pool
}

func NewCabRepository(pool *pgxpool.Pool) CabRepository {
	return &cabRepository{pool: pool}
}

func (r *cabRepository) ListByRoute(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error) {
	const q = `SELECT cab_type, price, capacity FROM cabs
		WHERE service_type=$1 AND lower(pickup)=lower($2) AND lower(dropoff)=lower($3) AND active
		ORDER BY price ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, serviceType, pickup, dropoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cabs []domain.CabOption
	for rows.Next() {
		var c domain.CabOption
		if err := rows.Scan(&c.CabType, &c.Price, &c.Capacity); err != nil {
			return nil, err
		}
		cabs = append(cabs, c)
	}
	return cabs, rows.Err()
}
