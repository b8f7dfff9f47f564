package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/metrics"
	"github.com/lead-marketplace/internal/platform/persistence"
)

// ProcessingServiceImpl settles one recharge request at a time.
type ProcessingServiceImpl struct {
	db              persistence.TxRunner
	ledgerRepo      ledger.Repository
	validator       RechargeValidator
	walletCreditor  WalletCreditor
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	outcomes        OutcomeRecorder
	now             func() time.Time
	logger          *slog.Logger
}

// NewProcessingService wires the settlement steps. A nil outcomes recorder
// disables counting.
func NewProcessingService(
	db persistence.TxRunner,
	ledgerRepo ledger.Repository,
	validator RechargeValidator,
	walletCreditor WalletCreditor,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	outcomes OutcomeRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		db:              db,
		ledgerRepo:      ledgerRepo,
		validator:       validator,
		walletCreditor:  walletCreditor,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		outcomes:        outcomes,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          logger,
	}
}

// ProcessRecharge credits the buyer's wallet. The credit, its Success ledger
// entry and the outbox message commit together or not at all. A nil return
// tells the consumer to commit the offset.
func (s *ProcessingServiceImpl) ProcessRecharge(ctx context.Context, request *shared.RechargeRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing recharge", "transaction_id", request.TransactionID, "buyer_id", request.BuyerID.String())

	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Warn("Recharge validation failed", "transaction_id", request.TransactionID, "error", err)
		s.record(metrics.OutcomeFailed)
		return fmt.Errorf("%w: %v", ErrInvalidRecharge, err)
	}

	skip, err := s.validator.CheckIdempotency(ctx, request)
	if errors.Is(err, ErrTransactionIDCollision) {
		s.record(metrics.OutcomeFailed)
		return err
	}
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	var balance int64
	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		credited, err := s.walletCreditor.LockAndCredit(ctx, tx, request)
		if err != nil {
			return err
		}
		balance = credited.WalletBalance

		entry, err := ledger.NewRecharge(request.TransactionID, request.BuyerID, request.Amount, request.PaymentMethod, shared.EntryStatusSuccess, s.now())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecharge, err)
		}
		entry.SetBuyer(credited.Mobile, credited.BusinessName, credited.OwnerName)
		entry.CorrelationID = request.CorrelationID

		if err := s.ledgerRepo.WithTx(tx).Record(ctx, entry); err != nil {
			return err
		}
		return s.outboxManager.CreateOutboxEntry(ctx, tx, entry)
	})
	if err == nil {
		logger.Info("Recharge settled",
			"transaction_id", request.TransactionID,
			"buyer_id", request.BuyerID.String(),
			"amount", request.Amount,
			"new_balance", balance,
		)
		s.record(metrics.OutcomeSuccess)
		return nil
	}

	return s.handleFailure(ctx, logger, request, err)
}

// resolveConflict settles a transaction id clash raised inside the credit
// transaction. Another delivery of the same message committing first is a
// duplicate; an entry for a different recharge is a collision.
func (s *ProcessingServiceImpl) resolveConflict(ctx context.Context, logger *slog.Logger, request *shared.RechargeRequest, cause error) error {
	existing, err := s.ledgerRepo.GetByTransactionID(ctx, request.TransactionID)
	if err != nil {
		logger.Error("Failed to load conflicting ledger entry", "transaction_id", request.TransactionID, "error", err)
		s.record(metrics.OutcomeError)
		return shared.Retryable(errors.Join(cause, err), "failed to resolve conflict on transaction %s", request.TransactionID)
	}
	if !existing.SameRecharge(request.BuyerID, request.Amount, request.PaymentMethod) {
		logger.Warn("Transaction id already recorded for another recharge", "transaction_id", request.TransactionID)
		s.record(metrics.OutcomeFailed)
		return TransactionIDCollision(request, existing)
	}
	logger.Info("Recharge already recorded", "transaction_id", request.TransactionID)
	return nil
}

func (s *ProcessingServiceImpl) handleFailure(ctx context.Context, logger *slog.Logger, request *shared.RechargeRequest, err error) error {
	var reason shared.FailureReason
	switch {
	case errors.Is(err, ErrInvalidRecharge):
		s.record(metrics.OutcomeFailed)
		return err
	case errors.Is(err, shared.ErrNotFound):
		reason = shared.FailureReasonBuyerNotFound
	case errors.Is(err, shared.ErrConflict):
		return s.resolveConflict(ctx, logger, request, err)
	default:
		logger.Error("Recharge transaction failed", "transaction_id", request.TransactionID, "error", err)
		s.record(metrics.OutcomeError)
		return fmt.Errorf("failed to settle recharge %s: %w", request.TransactionID, err)
	}

	logger.Warn("Recharge rejected", "transaction_id", request.TransactionID, "reason", reason)
	if recordErr := s.failureRecorder.RecordFailure(ctx, request, reason); recordErr != nil {
		logger.Error("Failed to record recharge failure", "transaction_id", request.TransactionID, "error", recordErr)
		s.record(metrics.OutcomeError)
		return recordErr
	}
	s.record(metrics.OutcomeFailed)
	return nil
}

func (s *ProcessingServiceImpl) record(outcome string) {
	if s.outcomes != nil {
		s.outcomes.RecordRecharge(outcome)
	}
}
