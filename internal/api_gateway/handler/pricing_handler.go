package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/api_gateway/service"
)

// PricingHandler handles the administrator pricing endpoints
type PricingHandler struct {
	pricingService service.PricingService
	logger         *slog.Logger
}

func NewPricingHandler(logger *slog.Logger, pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// Get returns the global price and every category rule.
func (h *PricingHandler) Get(c *gin.Context) {
	p, err := h.pricingService.Get(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, p)
}

// SetGlobalPrice replaces the default lead price.
func (h *PricingHandler) SetGlobalPrice(c *gin.Context) {
	var req GlobalPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.pricingService.SetGlobalPrice(c.Request.Context(), *req.Price)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, p)
}

// AddCategoryPrice creates a category rule and responds 201.
func (h *PricingHandler) AddCategoryPrice(c *gin.Context) {
	var req CategoryPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule, err := h.pricingService.AddCategoryPrice(c.Request.Context(), req.Category, *req.Price)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, rule)
}

func (h *PricingHandler) UpdateCategoryPrice(c *gin.Context) {
	id, ok := uuidParam(c, "id", "category price")
	if !ok {
		return
	}
	var req CategoryPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rule, err := h.pricingService.UpdateCategoryPrice(c.Request.Context(), id, req.Category, *req.Price)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, rule)
}

// DeleteCategoryPrice responds 204 once the rule is gone.
func (h *PricingHandler) DeleteCategoryPrice(c *gin.Context) {
	id, ok := uuidParam(c, "id", "category price")
	if !ok {
		return
	}
	if err := h.pricingService.DeleteCategoryPrice(c.Request.Context(), id); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}
