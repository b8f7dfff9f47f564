package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository stores the pricing singleton. Get creates the default policy
// when none exists yet; every mutation stamps LastUpdated.
type Repository interface {
	Get(ctx context.Context) (*Policy, error)
	PriceFor(ctx context.Context, category string) (int64, error)
	SetGlobalPrice(ctx context.Context, price int64) (*Policy, error)
	AddCategoryPrice(ctx context.Context, category string, price int64) (*CategoryPrice, error)
	UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*CategoryPrice, error)
	DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}
