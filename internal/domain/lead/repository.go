package lead

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter narrows the administrator lead list. Empty fields do not filter.
type Filter struct {
	SearchTerm string
	Category   string
	Status     Status
	Location   string
}

// Repository persists leads.
type Repository interface {
	Create(ctx context.Context, l *Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Lead, error)
	Update(ctx context.Context, l *Lead) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Lead, int64, error)

	// ListAvailable returns listable leads of the category, newest first.
	// An empty city matches every city.
	ListAvailable(ctx context.Context, category, city string) ([]*Lead, error)

	// ReserveCapacity adds buyerID to the lead in one conditional write that
	// re-checks capacity and membership. It fails with a NotFound,
	// CapacityExceeded or AlreadyPurchased shared error.
	ReserveCapacity(ctx context.Context, leadID, buyerID uuid.UUID) (*Lead, error)

	WithTx(tx pgx.Tx) Repository
}
