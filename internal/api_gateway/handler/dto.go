package handler

import (
	"time"

	"github.com/lead-marketplace/internal/domain/buyer"
	"github.com/lead-marketplace/internal/domain/lead"
	"github.com/lead-marketplace/internal/domain/ledger"
)

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// RegisterBuyerRequest represents a buyer sign up
type RegisterBuyerRequest struct {
	Mobile string `json:"mobile" binding:"required,len=10,numeric"`
	Email  string `json:"email" binding:"required,email"`
}

// UpdateProfileRequest carries the profile fields to change; omitted fields stay as they are
type UpdateProfileRequest struct {
	BusinessName *string `json:"business_name"`
	OwnerName    *string `json:"owner_name"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Category     *string `json:"category"`
	City         *string `json:"city"`
}

// ApprovalRequest is the body of the approve and reject endpoints
type ApprovalRequest struct {
	Reason string `json:"reason"`
}

// BuyerListParams are the administrator buyer list filters
type BuyerListParams struct {
	PaginationParams
	ApprovalStatus string `form:"approval_status"`
}

// CreateBuyerRequest onboards a buyer with a complete profile
type CreateBuyerRequest struct {
	Mobile       string `json:"mobile" binding:"required,len=10,numeric"`
	Email        string `json:"email" binding:"required,email"`
	BusinessName string `json:"business_name" binding:"required"`
	OwnerName    string `json:"owner_name" binding:"required"`
	Category     string `json:"category" binding:"required"`
	City         string `json:"city" binding:"required"`
}

// UpdateBuyerRequest is an administrator edit; omitted fields stay as they are.
// The wallet balance is not editable.
type UpdateBuyerRequest struct {
	UpdateProfileRequest
	Mobile *string `json:"mobile" binding:"omitempty,len=10,numeric"`
}

// BuyerResponse represents a buyer profile in API responses
type BuyerResponse struct {
	ID                   string   `json:"id"`
	Mobile               string   `json:"mobile"`
	Email                string   `json:"email"`
	BusinessName         string   `json:"business_name"`
	OwnerName            string   `json:"owner_name"`
	Category             string   `json:"category"`
	City                 string   `json:"city"`
	IsProfileComplete    bool     `json:"is_profile_complete"`
	SubmittedForApproval bool     `json:"submitted_for_approval"`
	ApprovalStatus       string   `json:"approval_status"`
	IsApproved           bool     `json:"is_approved"`
	WalletBalance        int64    `json:"wallet_balance"`
	TotalLeadsViewed     int      `json:"total_leads_viewed"`
	PurchasedLeads       []string `json:"purchased_leads"`
	SavedLeads           []string `json:"saved_leads"`
	ApprovalDate         string   `json:"approval_date,omitempty"`
	ApprovalReason       string   `json:"approval_reason,omitempty"`
	ReviewedBy           string   `json:"reviewed_by,omitempty"`
	VerificationID       string   `json:"verification_id,omitempty"`
	CreatedAt            string   `json:"created_at"`
}

// LeadRequest represents an administrator's lead create or edit
type LeadRequest struct {
	Title           string `json:"title" binding:"required"`
	Location        string `json:"location" binding:"required"`
	Category        string `json:"category" binding:"required"`
	Budget          string `json:"budget" binding:"required"`
	Description     string `json:"description" binding:"required"`
	FullDescription string `json:"full_description"`
	Address         string `json:"address"`
	ContactName     string `json:"contact_name"`
	ContactPhone    string `json:"contact_phone"`
	ContactEmail    string `json:"contact_email" binding:"omitempty,email"`
	Requirements    string `json:"requirements"`
}

func (r LeadRequest) details() lead.Details {
	return lead.Details{
		Title:           r.Title,
		Location:        r.Location,
		Category:        r.Category,
		Budget:          r.Budget,
		Description:     r.Description,
		FullDescription: r.FullDescription,
		Address:         r.Address,
		ContactName:     r.ContactName,
		ContactPhone:    r.ContactPhone,
		ContactEmail:    r.ContactEmail,
		Requirements:    r.Requirements,
	}
}

// LeadStatusRequest is the administrator status edit
type LeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LeadListParams are the administrator lead list filters
type LeadListParams struct {
	PaginationParams
	SearchTerm string `form:"search_term"`
	Category   string `form:"category"`
	Status     string `form:"status"`
	Location   string `form:"location"`
}

// GlobalPriceRequest uses a pointer so a zero price is distinguishable from a missing one
type GlobalPriceRequest struct {
	Price *int64 `json:"price" binding:"required,min=0"`
}

// CategoryPriceRequest creates or replaces a category rule
type CategoryPriceRequest struct {
	Category string `json:"category" binding:"required"`
	Price    *int64 `json:"price" binding:"required,min=0"`
}

// RechargeRequest represents a wallet top-up
type RechargeRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// RechargeResponse acknowledges a queued recharge
type RechargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

// WalletLogParams are the wallet log search filters. Dates use YYYY-MM-DD
type WalletLogParams struct {
	PaginationParams
	SearchTerm    string `form:"search_term"`
	PaymentMethod string `form:"payment_method"`
	Type          string `form:"type"`
	From          string `form:"from"`
	To            string `form:"to"`
}

// PurchaseReportParams are the purchase report filters. Dates use YYYY-MM-DD
type PurchaseReportParams struct {
	PaginationParams
	SearchTerm string `form:"search_term"`
	Status     string `form:"status"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	TransactionID     string `json:"transaction_id"`
	BuyerID           string `json:"buyer_id"`
	BuyerMobile       string `json:"buyer_mobile,omitempty"`
	BuyerBusinessName string `json:"buyer_business_name,omitempty"`
	BuyerOwnerName    string `json:"buyer_owner_name,omitempty"`
	Amount            int64  `json:"amount"`
	Type              string `json:"type"`
	PaymentMethod     string `json:"payment_method"`
	Status            string `json:"status"`
	LeadID            string `json:"lead_id,omitempty"`
	FailureReason     string `json:"failure_reason,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// PurchaseRecordResponse is one row of the administrator purchase report
type PurchaseRecordResponse struct {
	EntryResponse
	BuyerEmail   string `json:"buyer_email,omitempty"`
	LeadTitle    string `json:"lead_title"`
	LeadCategory string `json:"lead_category"`
	LeadLocation string `json:"lead_location"`
}

// PurchaseResponse is returned by a successful purchase
type PurchaseResponse struct {
	NewBalance  int64         `json:"new_balance"`
	Lead        *lead.Lead    `json:"lead"`
	Transaction EntryResponse `json:"transaction"`
}

func mapBuyerToResponse(b *buyer.Buyer) BuyerResponse {
	resp := BuyerResponse{
		ID:                   b.ID.String(),
		Mobile:               b.Mobile,
		Email:                b.Email,
		BusinessName:         b.BusinessName,
		OwnerName:            b.OwnerName,
		Category:             b.Category,
		City:                 b.City,
		IsProfileComplete:    b.IsProfileComplete,
		SubmittedForApproval: b.SubmittedForApproval,
		ApprovalStatus:       string(b.ApprovalStatus),
		IsApproved:           b.IsApproved(),
		WalletBalance:        b.WalletBalance,
		TotalLeadsViewed:     b.TotalLeadsViewed,
		PurchasedLeads:       make([]string, 0, len(b.PurchasedLeads)),
		SavedLeads:           make([]string, 0, len(b.SavedLeads)),
		ApprovalReason:       b.ApprovalReason,
		ReviewedBy:           b.ReviewedBy,
		VerificationID:       b.VerificationID,
		CreatedAt:            b.CreatedAt.Format(time.RFC3339),
	}
	for _, id := range b.PurchasedLeads {
		resp.PurchasedLeads = append(resp.PurchasedLeads, id.String())
	}
	for _, id := range b.SavedLeads {
		resp.SavedLeads = append(resp.SavedLeads, id.String())
	}
	if b.ApprovalDate != nil {
		resp.ApprovalDate = b.ApprovalDate.Format(time.RFC3339)
	}
	return resp
}

func mapBuyersToResponse(buyers []*buyer.Buyer) []BuyerResponse {
	out := make([]BuyerResponse, 0, len(buyers))
	for _, b := range buyers {
		out = append(out, mapBuyerToResponse(b))
	}
	return out
}

func mapEntryToResponse(e *ledger.Entry) EntryResponse {
	resp := EntryResponse{
		TransactionID:     e.TransactionID,
		BuyerID:           e.BuyerID.String(),
		BuyerMobile:       e.BuyerMobile,
		BuyerBusinessName: e.BuyerBusinessName,
		BuyerOwnerName:    e.BuyerOwnerName,
		Amount:            e.Amount,
		Type:              string(e.Type),
		PaymentMethod:     e.PaymentMethod,
		Status:            string(e.Status),
		FailureReason:     e.FailureReason,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
	if e.LeadID != nil {
		resp.LeadID = e.LeadID.String()
	}
	return resp
}

func mapEntriesToResponse(entries []*ledger.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, mapEntryToResponse(e))
	}
	return out
}
