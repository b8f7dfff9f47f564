// Package purchase runs the lead purchase transaction: eligibility, pricing,
// the wallet debit, the capacity reservation and the ledger entry commit or
// fail together.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/outbox"
	"github.com/lead-marketplace/internal/domain/pricing"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
)

// Result is what the buyer gets back from a successful purchase: the new
// balance and the lead with its contact details unlocked.
type Result struct {
	NewBalance int64         `json:"new_balance"`
	Lead       *lead.Lead    `json:"lead"`
	Entry      *ledger.Entry `json:"transaction"`
}

// Purchaser buys one lead for one buyer.
type Purchaser interface {
	Purchase(ctx context.Context, buyerID, leadID uuid.UUID) (*Result, error)
}

// Recorder receives the outcome of every purchase attempt.
type Recorder interface {
	RecordPurchase(duration time.Duration, err error)
}

// Repositories are the stores a purchase touches. Each is bound to the
// purchase transaction with WithTx.
type Repositories struct {
	Buyers  buyer.Repository
	Leads   lead.Repository
	Pricing pricing.Repository
	Ledger  ledger.Repository
	Outbox  outbox.Repository
}

// Orchestrator executes lead purchases as single database transactions.
type Orchestrator struct {
	db       persistence.TxRunner
	repos    Repositories
	timeout  time.Duration
	newTxnID ledger.TransactionIDFunc
	now      func() time.Time
	metrics  Recorder
	logger   *slog.Logger
}

var _ Purchaser = (*Orchestrator)(nil)

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the clock used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTransactionIDs replaces the transaction id generator.
func WithTransactionIDs(fn ledger.TransactionIDFunc) Option {
	return func(o *Orchestrator) { o.newTxnID = fn }
}

// WithRecorder reports every attempt's duration and outcome to r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// NewOrchestrator bounds each purchase by timeout. A non-positive timeout
// leaves the caller's deadline in charge.
func NewOrchestrator(logger *slog.Logger, db persistence.TxRunner, repos Repositories, timeout time.Duration, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		db:       db,
		repos:    repos,
		timeout:  timeout,
		newTxnID: ledger.NewTransactionID,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With("component", "purchase_orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Purchase runs every step inside one transaction bounded by the purchase
// timeout. The buyer row lock serializes purchases of one buyer; the
// conditional reservation serializes buyers of one lead.
func (o *Orchestrator) Purchase(ctx context.Context, buyerID, leadID uuid.UUID) (*Result, error) {
	start := time.Now()
	logger := o.logger.With("buyer_id", buyerID.String(), "lead_id", leadID.String())

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var result *Result
	err := o.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = o.purchaseInTx(ctx, tx, buyerID, leadID)
		return err
	})
	err = classify(ctx, err)

	if o.metrics != nil {
		o.metrics.RecordPurchase(time.Since(start), err)
	}
	if err != nil {
		if shared.KindOf(err) == "" || shared.IsRetryable(err) {
			logger.Error("Lead purchase failed", "error", err)
		} else {
			logger.Info("Lead purchase rejected", "kind", shared.KindOf(err), "reason", err.Error())
		}
		return nil, err
	}

	logger.Info("Lead purchased",
		"transaction_id", result.Entry.TransactionID,
		"amount", result.Entry.Amount,
		"new_balance", result.NewBalance,
	)
	return result, nil
}

func (o *Orchestrator) purchaseInTx(ctx context.Context, tx pgx.Tx, buyerID, leadID uuid.UUID) (*Result, error) {
	buyers := o.repos.Buyers.WithTx(tx)
	leads := o.repos.Leads.WithTx(tx)

	b, err := buyers.LockByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := b.EligibleToBuy(); err != nil {
		return nil, err
	}

	l, err := leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if err := l.CheckPurchasable(buyerID); err != nil {
		return nil, err
	}

	cost, err := o.repos.Pricing.WithTx(tx).PriceFor(ctx, l.Category)
	if err != nil {
		return nil, err
	}
	if b.WalletBalance < cost {
		return nil, shared.InsufficientFunds("balance %d is below the lead price %d", b.WalletBalance, cost)
	}

	reserved, err := leads.ReserveCapacity(ctx, leadID, buyerID)
	if err != nil {
		return nil, err
	}
	balance, err := buyers.ApplyPurchase(ctx, buyerID, leadID, cost)
	if err != nil {
		return nil, err
	}

	now := o.now()
	entry, err := ledger.NewPurchase(o.newTxnID(ledger.PurchasePrefix, now), buyerID, leadID, cost, now)
	if err != nil {
		return nil, err
	}
	entry.SetBuyer(b.Mobile, b.BusinessName, b.OwnerName)
	entry.CorrelationID = shared.CorrelationIDFrom(ctx)
	if err := o.repos.Ledger.WithTx(tx).Record(ctx, entry); err != nil {
		return nil, err
	}

	msg, err := outbox.NewMessage(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox message: %w", err)
	}
	if err := o.repos.Outbox.WithTx(tx).Create(ctx, msg); err != nil {
		return nil, err
	}

	return &Result{NewBalance: balance, Lead: reserved, Entry: entry}, nil
}

// classify turns an exhausted purchase deadline and transient store
// failures into Retryable errors. Domain errors pass through unchanged.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return shared.Retryable(err, "purchase timed out")
	}
	if persistence.IsTransient(err) {
		return shared.Retryable(err, "purchase could not complete")
	}
	return fmt.Errorf("purchase failed: %w", err)
}
