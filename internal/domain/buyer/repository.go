package buyer

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists buyers. Lookups of missing buyers return a
// shared.KindNotFound error and duplicate mobile or email a KindConflict.
type Repository interface {
	Create(ctx context.Context, b *Buyer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Buyer, error)
	GetByMobile(ctx context.Context, mobile string) (*Buyer, error)

	// LockByID reads the buyer row under FOR UPDATE for the rest of the transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*Buyer, error)

	// List returns buyers newest first together with the total match count.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Buyer, int64, error)

	// Delete fails with a KindConflict error once the buyer has wallet history.
	Delete(ctx context.Context, id uuid.UUID) error

	UpdateProfile(ctx context.Context, b *Buyer) error
	UpdateApproval(ctx context.Context, b *Buyer) error

	// ApplyPurchase debits cost only if the balance covers it, records the
	// lead as purchased and returns the new balance.
	ApplyPurchase(ctx context.Context, buyerID, leadID uuid.UUID, cost int64) (int64, error)
	Credit(ctx context.Context, buyerID uuid.UUID, amount int64) (int64, error)

	AddSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error
	RemoveSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// Filter narrows the administrator buyer list. Zero values match everything.
type Filter struct {
	ApprovalStatus ApprovalStatus
	// CompleteOnly keeps buyers whose profile is complete, the approval queue.
	CompleteOnly bool
}
