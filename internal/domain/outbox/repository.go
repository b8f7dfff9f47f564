package outbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/shared"
)

// Repository persists messages for the audit mirror. Create joins the
// caller's transaction through WithTx and fails with Conflict when the
// transaction id already has a message.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}
