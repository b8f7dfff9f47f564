package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/pricing"
	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/purchase"
)

// BuyerService defines the buyer self-service and approval operations
type BuyerService interface {
	// Register creates a pending buyer with an empty wallet.
	// Returns a Conflict error if the mobile or email is taken
	Register(ctx context.Context, mobile, email string) (*buyer.Buyer, error)

	GetProfile(ctx context.Context, mobile string) (*buyer.Buyer, error)

	// UpdateProfile applies the non-nil fields and submits a complete profile for approval
	UpdateProfile(ctx context.Context, mobile string, update buyer.ProfileUpdate) (*buyer.Buyer, error)

	GetDashboard(ctx context.Context, mobile string) (*Dashboard, error)

	ListSavedLeads(ctx context.Context, mobile string) ([]lead.Listing, error)
	SaveLead(ctx context.Context, mobile string, leadID uuid.UUID) error
	RemoveSavedLead(ctx context.Context, mobile string, leadID uuid.UUID) error

	Approve(ctx context.Context, buyerID uuid.UUID, reviewer, reason string) (*buyer.Buyer, error)
	Reject(ctx context.Context, buyerID uuid.UUID, reviewer, reason string) (*buyer.Buyer, error)

	// ListBuyers is the administrator buyer list, newest first
	ListBuyers(ctx context.Context, filter buyer.Filter, page, perPage int) ([]*buyer.Buyer, int64, error)

	// ListForApproval returns every buyer with a complete profile whatever its
	// approval status, newest first
	ListForApproval(ctx context.Context, page, perPage int) ([]*buyer.Buyer, int64, error)

	// CreateBuyer onboards an approved buyer with a complete profile
	CreateBuyer(ctx context.Context, details buyer.Details, reviewer string) (*buyer.Buyer, error)
	UpdateBuyer(ctx context.Context, buyerID uuid.UUID, update buyer.AdminUpdate) (*buyer.Buyer, error)

	// DeleteBuyer returns a Conflict error for buyers with wallet history
	DeleteBuyer(ctx context.Context, buyerID uuid.UUID) error
}

// LeadService defines lead browsing, purchasing and inventory management
type LeadService interface {
	// ListAvailable returns the leads matching the buyer's category and city,
	// falling back to the whole category when the city has none
	ListAvailable(ctx context.Context, mobile string) ([]lead.Listing, error)

	// Purchase buys a lead for the buyer identified by mobile
	Purchase(ctx context.Context, mobile string, leadID uuid.UUID) (*purchase.Result, error)

	Create(ctx context.Context, details lead.Details, uploadedBy string) (*lead.Lead, error)
	Get(ctx context.Context, id uuid.UUID) (*lead.Lead, error)
	Update(ctx context.Context, id uuid.UUID, details lead.Details) (*lead.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status lead.Status) (*lead.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter lead.Filter, page, perPage int) ([]*lead.Lead, int64, error)
}

// PricingService defines administration of the pricing policy
type PricingService interface {
	Get(ctx context.Context) (*pricing.Policy, error)
	SetGlobalPrice(ctx context.Context, price int64) (*pricing.Policy, error)
	AddCategoryPrice(ctx context.Context, category string, price int64) (*pricing.CategoryPrice, error)
	UpdateCategoryPrice(ctx context.Context, id uuid.UUID, category string, price int64) (*pricing.CategoryPrice, error)
	DeleteCategoryPrice(ctx context.Context, id uuid.UUID) error
}

// WalletService defines recharge requests and the wallet reports
type WalletService interface {
	// RequestRecharge publishes the recharge for asynchronous settlement and
	// returns the request carrying its transaction id
	RequestRecharge(ctx context.Context, mobile string, amount int64, paymentMethod string) (*shared.RechargeRequest, error)

	// History returns the buyer's recharge entries, newest first
	History(ctx context.Context, mobile string, page, perPage int) ([]*ledger.Entry, int64, error)

	// Logs searches the audit mirror of the ledger
	Logs(ctx context.Context, query ledger.AuditQuery, page, perPage int) ([]*ledger.Entry, int64, error)

	// PurchaseReport lists lead purchases matching the filter with their
	// buyer and lead
	PurchaseReport(ctx context.Context, filter ledger.PurchaseFilter, page, perPage int) ([]*ledger.PurchaseRecord, int64, error)
}

// Dashboard summarises a buyer's account
type Dashboard struct {
	WalletBalance     int64 `json:"wallet_balance"`
	TotalLeadsViewed  int   `json:"total_leads_viewed"`
	PurchasedLeads    int   `json:"purchased_leads"`
	SavedLeads        int   `json:"saved_leads"`
	AvailableLeads    int   `json:"available_leads"`
	IsApproved        bool  `json:"is_approved"`
	IsProfileComplete bool  `json:"is_profile_complete"`
}

func offsetOf(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}
