package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/outbox"
	"github.com/lead-marketplace/internal/wallet_processor/service"
)

// OutboxManagerImpl queues ledger entries for the audit mirror.
type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry queues entry for the audit mirror. A nil tx writes
// outside any transaction.
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	repo := m.outboxRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	message, err := outbox.NewMessage(entry)
	if err != nil {
		return fmt.Errorf("failed to encode outbox payload for %s: %w", entry.TransactionID, err)
	}

	if err := repo.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to create outbox message for %s: %w", entry.TransactionID, err)
	}

	m.logger.Debug("Outbox message created", "transaction_id", entry.TransactionID, "outbox_id", message.ID)
	return nil
}
