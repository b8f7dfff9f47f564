package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockRechargeValidator struct {
	mock.Mock
}

func (m *MockRechargeValidator) Validate(ctx context.Context, request *shared.RechargeRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockRechargeValidator) CheckIdempotency(ctx context.Context, request *shared.RechargeRequest) (bool, error) {
	args := m.Called(ctx, request)
	return args.Bool(0), args.Error(1)
}

type MockWalletCreditor struct {
	mock.Mock
}

func (m *MockWalletCreditor) LockAndCredit(ctx context.Context, tx pgx.Tx, request *shared.RechargeRequest) (*buyer.Buyer, error) {
	args := m.Called(ctx, tx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	return m.Called(ctx, tx, entry).Error(0)
}

type MockFailureRecorder struct {
	mock.Mock
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, request *shared.RechargeRequest, reason shared.FailureReason) error {
	return m.Called(ctx, request, reason).Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, e *ledger.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockLedgerRepository) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, typ shared.EntryType, limit, offset int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, buyerID, typ, limit, offset)
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) ListPurchases(ctx context.Context, f ledger.PurchaseFilter, limit, offset int) ([]*ledger.PurchaseRecord, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	return args.Get(0).([]*ledger.PurchaseRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) WithTx(_ pgx.Tx) ledger.Repository {
	return m
}

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessRecharge(ctx context.Context, request *shared.RechargeRequest) error {
	return m.Called(ctx, request).Error(0)
}

// fakeTxRunner runs fn without a real transaction and reports its result.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type outcomeCounter struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *outcomeCounter) RecordRecharge(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
