package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/messaging/producers"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	buyers   buyer.Repository
	ledger   ledger.Repository
	audit    ledger.AuditRepository
	producer producers.MessagePublisher
	newTxnID ledger.TransactionIDFunc
	now      func() time.Time
	logger   *slog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(
	logger *slog.Logger,
	buyers buyer.Repository,
	ledgerRepo ledger.Repository,
	audit ledger.AuditRepository,
	producer producers.MessagePublisher,
) WalletService {
	return &WalletServiceImpl{
		buyers:   buyers,
		ledger:   ledgerRepo,
		audit:    audit,
		producer: producer,
		newTxnID: ledger.NewTransactionID,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// RequestRecharge does not touch the balance. The wallet_processor credits it
// once it consumes the request, so the caller only learns the transaction id.
func (s *WalletServiceImpl) RequestRecharge(ctx context.Context, mobile string, amount int64, paymentMethod string) (*shared.RechargeRequest, error) {
	paymentMethod = strings.TrimSpace(paymentMethod)
	if amount <= 0 {
		return nil, invalidInput(ledger.ErrInvalidAmount)
	}
	if paymentMethod == "" {
		return nil, invalidInput(ledger.ErrPaymentRequired)
	}

	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := &shared.RechargeRequest{
		TransactionID: s.newTxnID(ledger.RechargePrefix, now),
		BuyerID:       b.ID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		CorrelationID: shared.CorrelationIDFrom(ctx),
		Timestamp:     now,
	}

	if err := s.producer.Publish(ctx, b.ID.String(), req); err != nil {
		s.logger.Error("Failed to publish recharge request",
			"buyer_id", b.ID.String(),
			"amount", amount,
			"error", err,
		)
		return nil, shared.Retryable(err, "recharge could not be queued")
	}

	s.logger.Info("Recharge request published",
		"transaction_id", req.TransactionID,
		"buyer_id", b.ID.String(),
		"amount", amount,
		"payment_method", paymentMethod,
	)
	return req, nil
}

// History lists the buyer's recharge entries, newest first.
func (s *WalletServiceImpl) History(ctx context.Context, mobile string, page, perPage int) ([]*ledger.Entry, int64, error) {
	b, err := s.buyers.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, 0, err
	}
	return s.ledger.ListByBuyer(ctx, b.ID, shared.EntryTypeRecharge, perPage, offsetOf(page, perPage))
}

// Logs searches the audit mirror.
func (s *WalletServiceImpl) Logs(ctx context.Context, query ledger.AuditQuery, page, perPage int) ([]*ledger.Entry, int64, error) {
	if query.Type != "" && !query.Type.Valid() {
		return nil, 0, shared.InvalidInput("unknown entry type %q", query.Type)
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, 0, shared.InvalidInput("to must not be before from")
	}
	return s.audit.Search(ctx, query, perPage, offsetOf(page, perPage))
}

// PurchaseReport validates the filter and reads the report from the ledger.
func (s *WalletServiceImpl) PurchaseReport(ctx context.Context, filter ledger.PurchaseFilter, page, perPage int) ([]*ledger.PurchaseRecord, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, shared.InvalidInput("unknown entry status %q", filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, shared.InvalidInput("to must not be before from")
	}
	return s.ledger.ListPurchases(ctx, filter, perPage, offsetOf(page, perPage))
}
