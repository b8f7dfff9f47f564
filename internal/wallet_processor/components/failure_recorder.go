package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
	"github.com/lead-marketplace/internal/wallet_processor/service"
)

// FailureRecorderImpl writes Failed recharge entries.
type FailureRecorderImpl struct {
	db            persistence.TxRunner
	ledgerRepo    ledger.Repository
	outboxManager service.OutboxManager
	now           func() time.Time
	logger        *slog.Logger
}

func NewFailureRecorder(db persistence.TxRunner, ledgerRepo ledger.Repository, outboxManager service.OutboxManager, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		db:            db,
		ledgerRepo:    ledgerRepo,
		outboxManager: outboxManager,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

// RecordFailure stores a Failed recharge entry. The ledger table only holds
// entries of existing buyers, so an unknown buyer's failure reaches the audit
// mirror through the outbox alone. Recording the same transaction twice is a
// no-op.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.RechargeRequest, reason shared.FailureReason) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	entry, err := ledger.NewRecharge(request.TransactionID, request.BuyerID, request.Amount, request.PaymentMethod, shared.EntryStatusFailed, r.now())
	if err != nil {
		return err
	}
	entry.FailureReason = string(reason)
	entry.CorrelationID = request.CorrelationID

	err = r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if reason != shared.FailureReasonBuyerNotFound {
			if err := r.ledgerRepo.WithTx(tx).Record(ctx, entry); err != nil {
				return err
			}
		}
		return r.outboxManager.CreateOutboxEntry(ctx, tx, entry)
	})
	if errors.Is(err, shared.ErrConflict) {
		logger.Info("Recharge failure already recorded", "transaction_id", request.TransactionID)
		return nil
	}
	if err != nil {
		logger.Error("Failed to record recharge failure", "transaction_id", request.TransactionID, "reason", reason, "error", err)
		return err
	}

	logger.Info("Recorded failed recharge", "transaction_id", request.TransactionID, "reason", reason)
	return nil
}
