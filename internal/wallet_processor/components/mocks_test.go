package components

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/outbox"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type MockBuyerRepository struct {
	mock.Mock
}

func (m *MockBuyerRepository) Create(ctx context.Context, b *buyer.Buyer) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBuyerRepository) GetByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerRepository) GetByMobile(ctx context.Context, mobile string) (*buyer.Buyer, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerRepository) LockByID(ctx context.Context, id uuid.UUID) (*buyer.Buyer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerRepository) List(ctx context.Context, f buyer.Filter, limit, offset int) ([]*buyer.Buyer, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*buyer.Buyer), args.Get(1).(int64), args.Error(2)
}

func (m *MockBuyerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBuyerRepository) UpdateProfile(ctx context.Context, b *buyer.Buyer) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBuyerRepository) UpdateApproval(ctx context.Context, b *buyer.Buyer) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBuyerRepository) ApplyPurchase(ctx context.Context, buyerID, leadID uuid.UUID, cost int64) (int64, error) {
	args := m.Called(ctx, buyerID, leadID, cost)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBuyerRepository) Credit(ctx context.Context, buyerID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, buyerID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBuyerRepository) AddSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error {
	return m.Called(ctx, buyerID, leadID).Error(0)
}

func (m *MockBuyerRepository) RemoveSavedLead(ctx context.Context, buyerID, leadID uuid.UUID) error {
	return m.Called(ctx, buyerID, leadID).Error(0)
}

func (m *MockBuyerRepository) WithTx(_ pgx.Tx) buyer.Repository {
	return m
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

type MockOutboxRepository struct {
	mock.Mock
	withTxCalls int
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepository) WithTx(_ pgx.Tx) outbox.Repository {
	m.withTxCalls++
	return m
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	return m.Called(ctx, tx, entry).Error(0)
}

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}
