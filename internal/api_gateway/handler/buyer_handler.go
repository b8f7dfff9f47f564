package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/api_gateway/middleware"
	"github.com/lead-marketplace/internal/api_gateway/service"
	"github.com/lead-marketplace/internal/domain/buyer"
)

// BuyerHandler handles buyer self-service and approval requests
type BuyerHandler struct {
	buyerService service.BuyerService
	logger       *slog.Logger
}

func NewBuyerHandler(logger *slog.Logger, buyerService service.BuyerService) *BuyerHandler {
	return &BuyerHandler{
		buyerService: buyerService,
		logger:       logger,
	}
}

// Register creates a pending buyer
func (h *BuyerHandler) Register(c *gin.Context) {
	var req RegisterBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.buyerService.Register(c.Request.Context(), req.Mobile, req.Email)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapBuyerToResponse(b))
}

// GetProfile returns the caller's own buyer record.
func (h *BuyerHandler) GetProfile(c *gin.Context) {
	b, err := h.buyerService.GetProfile(c.Request.Context(), middleware.GetBuyerMobile(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapBuyerToResponse(b))
}

// UpdateProfile applies a partial profile edit. Completing the profile
// submits it for approval.
func (h *BuyerHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.buyerService.UpdateProfile(c.Request.Context(), middleware.GetBuyerMobile(c), buyer.ProfileUpdate{
		BusinessName: req.BusinessName,
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		Category:     req.Category,
		City:         req.City,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapBuyerToResponse(b))
}

// GetDashboard summarises the caller's wallet and leads.
func (h *BuyerHandler) GetDashboard(c *gin.Context) {
	d, err := h.buyerService.GetDashboard(c.Request.Context(), middleware.GetBuyerMobile(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, d)
}

func (h *BuyerHandler) ListSavedLeads(c *gin.Context) {
	listings, err := h.buyerService.ListSavedLeads(c.Request.Context(), middleware.GetBuyerMobile(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, listings)
}

// SaveLead bookmarks a lead for the caller.
func (h *BuyerHandler) SaveLead(c *gin.Context) {
	leadID, ok := uuidParam(c, "leadId", "lead")
	if !ok {
		return
	}
	if err := h.buyerService.SaveLead(c.Request.Context(), middleware.GetBuyerMobile(c), leadID); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, gin.H{"lead_id": leadID.String(), "saved": true})
}

func (h *BuyerHandler) RemoveSavedLead(c *gin.Context) {
	leadID, ok := uuidParam(c, "leadId", "lead")
	if !ok {
		return
	}
	if err := h.buyerService.RemoveSavedLead(c.Request.Context(), middleware.GetBuyerMobile(c), leadID); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// Approve marks the buyer approved and issues a verification id
func (h *BuyerHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id", "buyer")
	if !ok {
		return
	}
	var req ApprovalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	b, err := h.buyerService.Approve(c.Request.Context(), id, reviewer(c), req.Reason)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapBuyerToResponse(b))
}

// Reject requires a reason in the body
func (h *BuyerHandler) Reject(c *gin.Context) {
	id, ok := uuidParam(c, "id", "buyer")
	if !ok {
		return
	}
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.buyerService.Reject(c.Request.Context(), id, reviewer(c), req.Reason)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapBuyerToResponse(b))
}

// ListBuyers is the administrator buyer list, optionally narrowed by approval status
func (h *BuyerHandler) ListBuyers(c *gin.Context) {
	var params BuyerListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := buyer.Filter{ApprovalStatus: buyer.ApprovalStatus(params.ApprovalStatus)}
	buyers, total, err := h.buyerService.ListBuyers(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, mapBuyersToResponse(buyers), params.Page, params.PerPage, total)
}

// ListForApproval is the approval queue: every completed profile, newest first
func (h *BuyerHandler) ListForApproval(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	buyers, total, err := h.buyerService.ListForApproval(c.Request.Context(), params.Page, params.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, mapBuyersToResponse(buyers), params.Page, params.PerPage, total)
}

// CreateBuyer onboards an approved buyer on behalf of the administrator.
func (h *BuyerHandler) CreateBuyer(c *gin.Context) {
	var req CreateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.buyerService.CreateBuyer(c.Request.Context(), buyer.Details{
		Mobile:       req.Mobile,
		Email:        req.Email,
		BusinessName: req.BusinessName,
		OwnerName:    req.OwnerName,
		Category:     req.Category,
		City:         req.City,
	}, reviewer(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapBuyerToResponse(b))
}

// UpdateBuyer edits any buyer's profile and mobile. The wallet balance is
// not editable here.
func (h *BuyerHandler) UpdateBuyer(c *gin.Context) {
	id, ok := uuidParam(c, "id", "buyer")
	if !ok {
		return
	}
	var req UpdateBuyerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.buyerService.UpdateBuyer(c.Request.Context(), id, buyer.AdminUpdate{
		Mobile: req.Mobile,
		ProfileUpdate: buyer.ProfileUpdate{
			BusinessName: req.BusinessName,
			OwnerName:    req.OwnerName,
			Email:        req.Email,
			Category:     req.Category,
			City:         req.City,
		},
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapBuyerToResponse(b))
}

// DeleteBuyer responds 409 once the buyer has wallet history.
func (h *BuyerHandler) DeleteBuyer(c *gin.Context) {
	id, ok := uuidParam(c, "id", "buyer")
	if !ok {
		return
	}
	if err := h.buyerService.DeleteBuyer(c.Request.Context(), id); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}
