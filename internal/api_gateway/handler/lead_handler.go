package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/api_gateway/middleware"
	"github.com/lead-marketplace/internal/api_gateway/service"
	"github.com/lead-marketplace/internal/domain/lead"
)

// LeadHandler handles lead browsing, purchases and inventory management
type LeadHandler struct {
	leadService service.LeadService
	logger      *slog.Logger
}

func NewLeadHandler(logger *slog.Logger, leadService service.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// ListAvailable returns the restricted listings a buyer may purchase
func (h *LeadHandler) ListAvailable(c *gin.Context) {
	listings, err := h.leadService.ListAvailable(c.Request.Context(), middleware.GetBuyerMobile(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, listings)
}

// Purchase buys the lead and returns it with the contact details unlocked
func (h *LeadHandler) Purchase(c *gin.Context) {
	leadID, ok := uuidParam(c, "id", "lead")
	if !ok {
		return
	}

	res, err := h.leadService.Purchase(c.Request.Context(), middleware.GetBuyerMobile(c), leadID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, PurchaseResponse{
		NewBalance:  res.NewBalance,
		Lead:        res.Lead,
		Transaction: mapEntryToResponse(res.Entry),
	})
}

// Create stores a lead uploaded by the calling administrator.
func (h *LeadHandler) Create(c *gin.Context) {
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	l, err := h.leadService.Create(c.Request.Context(), req.details(), reviewer(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, l)
}

// Get returns the full lead, contact details included.
func (h *LeadHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "lead")
	if !ok {
		return
	}
	l, err := h.leadService.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, l)
}

func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "lead")
	if !ok {
		return
	}
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	l, err := h.leadService.Update(c.Request.Context(), id, req.details())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, l)
}

// UpdateStatus rejects moves into or out of Sold Out.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id", "lead")
	if !ok {
		return
	}
	var req LeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	l, err := h.leadService.UpdateStatus(c.Request.Context(), id, lead.Status(req.Status))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, l)
}

// Delete responds 204 once the lead is gone.
func (h *LeadHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id", "lead")
	if !ok {
		return
	}
	if err := h.leadService.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// List is the paginated administrator view with filters
func (h *LeadHandler) List(c *gin.Context) {
	var params LeadListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := lead.Filter{
		SearchTerm: params.SearchTerm,
		Category:   params.Category,
		Status:     lead.Status(params.Status),
		Location:   params.Location,
	}
	leads, total, err := h.leadService.List(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, leads, params.Page, params.PerPage, total)
}
