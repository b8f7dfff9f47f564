package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
)

// ErrInvalidRecharge marks a request that can never be settled. The consumer
// parks such messages on the dead letter topic instead of retrying them.
var ErrInvalidRecharge = errors.New("invalid recharge request")

// ErrTransactionIDCollision marks a request whose transaction id is already
// recorded for another recharge. It is an ErrInvalidRecharge: redelivering
// the message cannot settle it, so it is parked with the stored details.
var ErrTransactionIDCollision = fmt.Errorf("%w: transaction id is recorded for another recharge", ErrInvalidRecharge)

// TransactionIDCollision describes the clash between request and the entry
// already stored under its transaction id. The chain carries a retryable
// Conflict so the requester knows a fresh transaction id will go through.
func TransactionIDCollision(request *shared.RechargeRequest, existing *ledger.Entry) error {
	return fmt.Errorf("%w: %w", ErrTransactionIDCollision, shared.RetryableConflict(nil,
		"transaction id %s is recorded for buyer %s with amount %d via %s, request has buyer %s with amount %d via %s",
		request.TransactionID,
		existing.BuyerID, existing.Amount, existing.PaymentMethod,
		request.BuyerID, request.Amount, request.PaymentMethod,
	))
}

// ProcessingService settles recharge requests consumed from Kafka.
type ProcessingService interface {
	ProcessRecharge(ctx context.Context, request *shared.RechargeRequest) error
}

// RechargeValidator validates recharge requests before processing
type RechargeValidator interface {
	Validate(ctx context.Context, request *shared.RechargeRequest) error
	// CheckIdempotency reports true when the transaction id is already
	// recorded for the same recharge, and an ErrTransactionIDCollision when
	// it is recorded for another one.
	CheckIdempotency(ctx context.Context, request *shared.RechargeRequest) (bool, error)
}

// WalletCreditor locks the buyer and adds the recharge to the wallet
type WalletCreditor interface {
	LockAndCredit(ctx context.Context, tx pgx.Tx, request *shared.RechargeRequest) (*buyer.Buyer, error)
}

// OutboxManager queues a committed ledger entry for the audit mirror
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error
}

// FailureRecorder records recharges that were consumed but not applied
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.RechargeRequest, reason shared.FailureReason) error
}

// OutcomeRecorder counts settled recharges by outcome.
type OutcomeRecorder interface {
	RecordRecharge(outcome string)
}
