package components

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/wallet_processor/service"
)

// WalletCreditorImpl implements the WalletCreditor interface
type WalletCreditorImpl struct {
	buyerRepo buyer.Repository
	logger    *slog.Logger
}

func NewWalletCreditor(buyerRepo buyer.Repository, logger *slog.Logger) service.WalletCreditor {
	return &WalletCreditorImpl{
		buyerRepo: buyerRepo,
		logger:    logger,
	}
}

// LockAndCredit holds the buyer row lock until tx ends, so a concurrent
// purchase debit and this credit are applied one after the other.
func (m *WalletCreditorImpl) LockAndCredit(ctx context.Context, tx pgx.Tx, request *shared.RechargeRequest) (*buyer.Buyer, error) {
	logger := m.logger
	if request.CorrelationID != "" {
		logger = m.logger.With("correlation_id", request.CorrelationID)
	}

	buyerRepoTx := m.buyerRepo.WithTx(tx)

	locked, err := buyerRepoTx.LockByID(ctx, request.BuyerID)
	if err != nil {
		logger.Warn("Failed to lock buyer", "transaction_id", request.TransactionID, "buyer_id", request.BuyerID.String(), "error", err)
		return nil, err
	}

	balance, err := buyerRepoTx.Credit(ctx, locked.ID, request.Amount)
	if err != nil {
		logger.Error("Failed to credit wallet", "transaction_id", request.TransactionID, "buyer_id", locked.ID.String(), "error", err)
		return nil, err
	}
	logger.Debug("Wallet credited", "transaction_id", request.TransactionID, "old_balance", locked.WalletBalance, "new_balance", balance)

	locked.WalletBalance = balance
	return locked, nil
}
