package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/pricing"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/purchase"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
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

func (m *MockBuyerRepository) WithTx(tx pgx.Tx) buyer.Repository {
	return m
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, l *lead.Lead) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*lead.Lead, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, l *lead.Lead) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status lead.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeadRepository) List(ctx context.Context, f lead.Filter, limit, offset int) ([]*lead.Lead, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*lead.Lead), args.Get(1).(int64), args.Error(2)
}

func (m *MockLeadRepository) ListAvailable(ctx context.Context, category, city string) ([]*lead.Lead, error) {
	args := m.Called(ctx, category, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) ReserveCapacity(ctx context.Context, leadID, buyerID uuid.UUID) (*lead.Lead, error) {
	args := m.Called(ctx, leadID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) WithTx(tx pgx.Tx) lead.Repository {
	return m
}

type MockPricingRepository struct {
	mock.Mock
}

func (m *MockPricingRepository) Get(ctx context.Context) (*pricing.Policy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Policy), args.Error(1)
}

func (m *MockPricingRepository) PriceFor(ctx context.Context, category string) (int64, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPricingRepository) SetGlobalPrice(ctx context.Context, price int64) (*pricing.Policy, error) {
	args := m.Called(ctx, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Policy), args.Error(1)
}

func (m *MockPricingRepository) AddCategoryPrice(ctx context.Context, category string, price int64) (*pricing.CategoryPrice, error) {
	args := m.Called(ctx, category, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.CategoryPrice), args.Error(1)
}

func (m *MockPricingRepository) UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*pricing.CategoryPrice, error) {
	args := m.Called(ctx, id, category, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.CategoryPrice), args.Error(1)
}

func (m *MockPricingRepository) DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPricingRepository) WithTx(tx pgx.Tx) pricing.Repository {
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
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) ListPurchases(ctx context.Context, f ledger.PurchaseFilter, limit, offset int) ([]*ledger.PurchaseRecord, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.PurchaseRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Upsert(ctx context.Context, e *ledger.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockAuditRepository) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockAuditRepository) Search(ctx context.Context, q ledger.AuditQuery, limit, offset int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

type MockPurchaser struct {
	mock.Mock
}

func (m *MockPurchaser) Purchase(ctx context.Context, buyerID, leadID uuid.UUID) (*purchase.Result, error) {
	args := m.Called(ctx, buyerID, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase.Result), args.Error(1)
}
