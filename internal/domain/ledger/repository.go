package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/shared"
)

// Repository is the transactional, write-once ledger. Record fails with a
// retryable Conflict when the transaction id is taken and with
// AlreadyPurchased when the buyer already has a purchase entry for the lead.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Entry, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, typ shared.EntryType, limit, offset int) ([]*Entry, int64, error)
	ListPurchases(ctx context.Context, f PurchaseFilter, limit, offset int) ([]*PurchaseRecord, int64, error)
	WithTx(tx pgx.Tx) Repository
}

// PurchaseFilter narrows the purchase report. Zero values do not filter.
// SearchTerm is a case-insensitive substring of the buyer's business name,
// owner name, mobile or email, the lead title, or the transaction id. From
// and To are inclusive instants.
type PurchaseFilter struct {
	SearchTerm string
	Status     shared.EntryStatus
	From       *time.Time
	To         *time.Time
}

// AuditQuery filters the wallet log search. Zero values do not filter.
// SearchTerm matches transaction ids, buyer mobiles, business names and
// owner names; PaymentMethod is a case-insensitive substring.
type AuditQuery struct {
	SearchTerm    string
	PaymentMethod string
	Type          shared.EntryType
	From          *time.Time
	To            *time.Time
}

// AuditRepository is the read-optimised mirror of the ledger fed by the
// outbox. Upsert is idempotent on the transaction id.
type AuditRepository interface {
	Upsert(ctx context.Context, e *Entry) error
	GetByTransactionID(ctx context.Context, transactionID string) (*Entry, error)
	Search(ctx context.Context, q AuditQuery, limit, offset int) ([]*Entry, int64, error)
}
