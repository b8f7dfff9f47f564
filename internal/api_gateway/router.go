package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/api_gateway/handler"
	"github.com/lead-marketplace/internal/api_gateway/middleware"
	"github.com/lead-marketplace/internal/platform/metrics"
	"github.com/lead-marketplace/internal/platform/ratelimit"
)

const purchaseScope = "purchase"

type handlers struct {
	buyers  *handler.BuyerHandler
	leads   *handler.LeadHandler
	pricing *handler.PricingHandler
	wallet  *handler.WalletHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	h handlers,
	limiter ratelimit.Limiter,
	collector *metrics.MetricsCollector,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))

	identity := middleware.BuyerIdentity()

	v1 := r.Group("/api/v1")
	{
		v1.POST("/buyers", h.buyers.Register)

		buyers := v1.Group("/buyers/:mobile", identity)
		{
			buyers.GET("/profile", h.buyers.GetProfile)
			buyers.PUT("/profile", h.buyers.UpdateProfile)
			buyers.GET("/dashboard", h.buyers.GetDashboard)
			buyers.GET("/saved-leads", h.buyers.ListSavedLeads)
			buyers.POST("/saved-leads/:leadId", h.buyers.SaveLead)
			buyers.DELETE("/saved-leads/:leadId", h.buyers.RemoveSavedLead)
		}

		leads := v1.Group("/leads")
		{
			leads.GET("/available/:mobile", identity, h.leads.ListAvailable)
			leads.POST("/:id/purchase/:mobile", identity, middleware.RateLimit(logger, limiter, purchaseScope), h.leads.Purchase)

			// Administration
			leads.GET("/purchases", h.wallet.PurchaseReport)
			leads.POST("", h.leads.Create)
			leads.GET("", h.leads.List)
			leads.GET("/:id", h.leads.Get)
			leads.PUT("/:id", h.leads.Update)
			leads.PATCH("/:id/status", h.leads.UpdateStatus)
			leads.DELETE("/:id", h.leads.Delete)
		}

		wallet := v1.Group("/wallet")
		{
			wallet.POST("/recharge/:mobile", identity, h.wallet.Recharge)
			wallet.GET("/history/:mobile", identity, h.wallet.History)
			wallet.GET("/logs", h.wallet.Logs)
		}

		pricing := v1.Group("/pricing")
		{
			pricing.GET("", h.pricing.Get)
			pricing.PUT("/global", h.pricing.SetGlobalPrice)
			pricing.POST("/category", h.pricing.AddCategoryPrice)
			pricing.PUT("/category/:id", h.pricing.UpdateCategoryPrice)
			pricing.DELETE("/category/:id", h.pricing.DeleteCategoryPrice)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/buyers", h.buyers.ListBuyers)
			admin.POST("/buyers", h.buyers.CreateBuyer)
			admin.GET("/buyers-for-approval", h.buyers.ListForApproval)
			admin.PUT("/buyers/:id", h.buyers.UpdateBuyer)
			admin.DELETE("/buyers/:id", h.buyers.DeleteBuyer)
			admin.POST("/buyers/:id/approve", h.buyers.Approve)
			admin.POST("/buyers/:id/reject", h.buyers.Reject)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if collector != nil {
		r.GET("/metrics", gin.WrapH(collector.GetHandler()))
	}
}
