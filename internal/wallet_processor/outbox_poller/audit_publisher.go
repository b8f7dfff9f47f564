package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/outbox"
	"github.com/lead-marketplace/internal/domain/shared"
)

// AuditPublisher mirrors one outbox message into the audit store
type AuditPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// ErrUndecodablePayload marks a message that no retry can publish.
var ErrUndecodablePayload = errors.New("undecodable outbox payload")

// AuditPublisherImpl upserts outbox messages into the audit mirror.
type AuditPublisherImpl struct {
	outboxRepo outbox.Repository
	auditRepo  ledger.AuditRepository
	logger     *slog.Logger
}

func NewAuditPublisher(
	outboxRepo outbox.Repository,
	auditRepo ledger.AuditRepository,
	logger *slog.Logger,
) AuditPublisher {
	return &AuditPublisherImpl{
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// Publish upserts the entry by transaction id, so a message delivered twice
// leaves one audit document, then marks the message processed.
func (p *AuditPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	entry, err := message.Entry()
	if err != nil {
		p.logger.Error("Failed to decode outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Failed to mark undecodable outbox message", "outbox_id", message.ID, "error", updateErr)
		}
		return fmt.Errorf("%w %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	if err := p.auditRepo.Upsert(ctx, entry); err != nil {
		logger.Error("Failed to write audit entry", "transaction_id", entry.TransactionID, "error", err)
		return fmt.Errorf("failed to write audit entry %s: %w", entry.TransactionID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message processed",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("audit write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	logger.Debug("Outbox message mirrored", "outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
