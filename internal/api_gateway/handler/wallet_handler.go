package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/api_gateway/middleware"
	"github.com/lead-marketplace/internal/api_gateway/service"
	"github.com/lead-marketplace/internal/domain/ledger"
	"github.com/lead-marketplace/internal/domain/shared"
)

const dateLayout = "2006-01-02"

// WalletHandler handles recharges and the wallet reports
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// Recharge queues a wallet top-up. The balance changes once the
// wallet processor settles it, hence 202.
func (h *WalletHandler) Recharge(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	queued, err := h.walletService.RequestRecharge(c.Request.Context(), middleware.GetBuyerMobile(c), req.Amount, req.PaymentMethod)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondAccepted(c, RechargeResponse{
		TransactionID: queued.TransactionID,
		Status:        string(shared.EntryStatusPending),
		Amount:        queued.Amount,
		PaymentMethod: queued.PaymentMethod,
	})
}

// History lists the caller's recharges, newest first.
func (h *WalletHandler) History(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	entries, total, err := h.walletService.History(c.Request.Context(), middleware.GetBuyerMobile(c), params.Page, params.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, mapEntriesToResponse(entries), params.Page, params.PerPage, total)
}

// Logs searches every wallet movement. The to date is inclusive.
func (h *WalletHandler) Logs(c *gin.Context) {
	var params WalletLogParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	query := ledger.AuditQuery{
		SearchTerm:    params.SearchTerm,
		PaymentMethod: params.PaymentMethod,
		Type:          shared.EntryType(params.Type),
	}
	var ok bool
	if query.From, query.To, ok = bindDateRange(c, params.From, params.To); !ok {
		return
	}

	entries, total, err := h.walletService.Logs(c.Request.Context(), query, params.Page, params.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, mapEntriesToResponse(entries), params.Page, params.PerPage, total)
}

// PurchaseReport lists lead purchases for administrators. The to date is
// inclusive.
func (h *WalletHandler) PurchaseReport(c *gin.Context) {
	var params PurchaseReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := ledger.PurchaseFilter{
		SearchTerm: params.SearchTerm,
		Status:     shared.EntryStatus(params.Status),
	}
	var ok bool
	if filter.From, filter.To, ok = bindDateRange(c, params.From, params.To); !ok {
		return
	}

	records, total, err := h.walletService.PurchaseReport(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	out := make([]PurchaseRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, PurchaseRecordResponse{
			EntryResponse: mapEntryToResponse(&r.Entry),
			BuyerEmail:    r.BuyerEmail,
			LeadTitle:     r.LeadTitle,
			LeadCategory:  r.LeadCategory,
			LeadLocation:  r.LeadLocation,
		})
	}
	RespondWithPaginatedData(c, out, params.Page, params.PerPage, total)
}

// bindDateRange parses optional YYYY-MM-DD bounds. The upper bound is moved
// to the last instant of its day. It responds 400 and reports false when a
// date does not parse.
func bindDateRange(c *gin.Context, fromParam, toParam string) (from, to *time.Time, ok bool) {
	if fromParam != "" {
		t, err := time.Parse(dateLayout, fromParam)
		if err != nil {
			RespondBadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return nil, nil, false
		}
		from = &t
	}
	if toParam != "" {
		t, err := time.Parse(dateLayout, toParam)
		if err != nil {
			RespondBadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return nil, nil, false
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		to = &t
	}
	return from, to, true
}
