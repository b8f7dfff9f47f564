package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/wallet_processor/service"
)

// RechargeValidatorImpl checks requests against the ledger.
type RechargeValidatorImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewRechargeValidator(ledgerRepo ledger.Repository, logger *slog.Logger) service.RechargeValidator {
	return &RechargeValidatorImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// Validate rejects requests no retry can fix
func (v *RechargeValidatorImpl) Validate(_ context.Context, request *shared.RechargeRequest) error {
	switch {
	case !strings.HasPrefix(request.TransactionID, ledger.RechargePrefix):
		return fmt.Errorf("transaction id %q is not a recharge id", request.TransactionID)
	case request.BuyerID == uuid.Nil:
		return errors.New("buyer id is required")
	case request.Amount <= 0:
		return ledger.ErrInvalidAmount
	case strings.TrimSpace(request.PaymentMethod) == "":
		return ledger.ErrPaymentRequired
	}
	return nil
}

// CheckIdempotency reports whether the transaction id already has a ledger
// entry for this recharge. An entry for a different buyer, amount or payment
// method is a collision, not a duplicate.
func (v *RechargeValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.RechargeRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	existing, err := v.ledgerRepo.GetByTransactionID(ctx, request.TransactionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		logger.Error("Failed to check ledger for idempotency", "transaction_id", request.TransactionID, "error", err)
		return false, fmt.Errorf("idempotency check failed for transaction %s: %w", request.TransactionID, err)
	}

	if !existing.SameRecharge(request.BuyerID, request.Amount, request.PaymentMethod) {
		logger.Warn("Transaction id already recorded for another recharge",
			"transaction_id", request.TransactionID,
			"recorded_buyer_id", existing.BuyerID.String(),
			"recorded_amount", existing.Amount,
			"buyer_id", request.BuyerID.String(),
			"amount", request.Amount,
		)
		return false, service.TransactionIDCollision(request, existing)
	}

	logger.Info("Recharge already processed", "transaction_id", request.TransactionID, "status", existing.Status)
	return true, nil
}
