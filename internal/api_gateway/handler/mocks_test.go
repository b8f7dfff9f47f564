package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/api_gateway/service"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/pricing"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/purchase"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBuyerService struct {
	mock.Mock
}

func (m *MockBuyerService) Register(ctx context.Context, mobile, email string) (*buyer.Buyer, error) {
	args := m.Called(ctx, mobile, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerService) GetProfile(ctx context.Context, mobile string) (*buyer.Buyer, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerService) UpdateProfile(ctx context.Context, mobile string, update buyer.ProfileUpdate) (*buyer.Buyer, error) {
	args := m.Called(ctx, mobile, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerService) GetDashboard(ctx context.Context, mobile string) (*service.Dashboard, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}

func (m *MockBuyerService) ListSavedLeads(ctx context.Context, mobile string) ([]lead.Listing, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lead.Listing), args.Error(1)
}

func (m *MockBuyerService) SaveLead(ctx context.Context, mobile string, leadID uuid.UUID) error {
	return m.Called(ctx, mobile, leadID).Error(0)
}

func (m *MockBuyerService) RemoveSavedLead(ctx context.Context, mobile string, leadID uuid.UUID) error {
	return m.Called(ctx, mobile, leadID).Error(0)
}

func (m *MockBuyerService) Approve(ctx context.Context, buyerID uuid.UUID, reviewer, reason string) (*buyer.Buyer, error) {
	args := m.Called(ctx, buyerID, reviewer, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerService) ListBuyers(ctx context.Context, filter buyer.Filter, page, perPage int) ([]*buyer.Buyer, int64, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*buyer.Buyer), args.Get(1).(int64), args.Error(2)
}

func (m *MockBuyerService) ListForApproval(ctx context.Context, page, perPage int) ([]*buyer.Buyer, int64, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*buyer.Buyer), args.Get(1).(int64), args.Error(2)
}

func (m *MockBuyerService) CreateBuyer(ctx context.Context, details buyer.Details, reviewer string) (*buyer.Buyer, error) {
	args := m.Called(ctx, details, reviewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerService) UpdateBuyer(ctx context.Context, buyerID uuid.UUID, update buyer.AdminUpdate) (*buyer.Buyer, error) {
	args := m.Called(ctx, buyerID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

func (m *MockBuyerService) DeleteBuyer(ctx context.Context, buyerID uuid.UUID) error {
	return m.Called(ctx, buyerID).Error(0)
}

func (m *MockBuyerService) Reject(ctx context.Context, buyerID uuid.UUID, reviewer, reason string) (*buyer.Buyer, error) {
	args := m.Called(ctx, buyerID, reviewer, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*buyer.Buyer), args.Error(1)
}

type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) ListAvailable(ctx context.Context, mobile string) ([]lead.Listing, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lead.Listing), args.Error(1)
}

func (m *MockLeadService) Purchase(ctx context.Context, mobile string, leadID uuid.UUID) (*purchase.Result, error) {
	args := m.Called(ctx, mobile, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase.Result), args.Error(1)
}

func (m *MockLeadService) Create(ctx context.Context, details lead.Details, uploadedBy string) (*lead.Lead, error) {
	args := m.Called(ctx, details, uploadedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadService) Get(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadService) Update(ctx context.Context, id uuid.UUID, details lead.Details) (*lead.Lead, error) {
	args := m.Called(ctx, id, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadService) UpdateStatus(ctx context.Context, id uuid.UUID, status lead.Status) (*lead.Lead, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeadService) List(ctx context.Context, filter lead.Filter, page, perPage int) ([]*lead.Lead, int64, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*lead.Lead), args.Get(1).(int64), args.Error(2)
}

type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) Get(ctx context.Context) (*pricing.Policy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Policy), args.Error(1)
}

func (m *MockPricingService) SetGlobalPrice(ctx context.Context, price int64) (*pricing.Policy, error) {
	args := m.Called(ctx, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Policy), args.Error(1)
}

func (m *MockPricingService) AddCategoryPrice(ctx context.Context, category string, price int64) (*pricing.CategoryPrice, error) {
	args := m.Called(ctx, category, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.CategoryPrice), args.Error(1)
}

func (m *MockPricingService) UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*pricing.CategoryPrice, error) {
	args := m.Called(ctx, id, category, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.CategoryPrice), args.Error(1)
}

func (m *MockPricingService) DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) RequestRecharge(ctx context.Context, mobile string, amount int64, paymentMethod string) (*shared.RechargeRequest, error) {
	args := m.Called(ctx, mobile, amount, paymentMethod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.RechargeRequest), args.Error(1)
}

func (m *MockWalletService) History(ctx context.Context, mobile string, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, mobile, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) Logs(ctx context.Context, query ledger.AuditQuery, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, query, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) PurchaseReport(ctx context.Context, filter ledger.PurchaseFilter, page, perPage int) ([]*ledger.PurchaseRecord, int64, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.PurchaseRecord), args.Get(1).(int64), args.Error(2)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the envelope, re-decoding data into out when given
func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) Response {
	t.Helper()
	var envelope struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}
