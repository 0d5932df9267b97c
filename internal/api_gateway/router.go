package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mealvoucher-platform/internal/api_gateway/handler"
	"github.com/mealvoucher-platform/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	contractHandler *handler.ContractHandler,
	voucherHandler *handler.VoucherHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Contract administration
		contracts := v1.Group("/contracts")
		{
			contracts.POST("", contractHandler.Create)
			contracts.GET("", contractHandler.List)
			contracts.GET("/:id", contractHandler.GetByID)
			contracts.PATCH("/:id/fees", contractHandler.UpdateFees)
			contracts.PATCH("/:id/price", contractHandler.UpdatePrice)
			contracts.GET("/:id/onchain", contractHandler.OnChain)
			contracts.GET("/:id/transfers", contractHandler.Transfers)
		}

		// Donations and redemptions
		vouchers := v1.Group("/vouchers")
		{
			vouchers.POST("", voucherHandler.Donate)
			vouchers.GET("", voucherHandler.ListByOwner)
			vouchers.GET("/:id", voucherHandler.GetByID)
			vouchers.POST("/:id/redeem", voucherHandler.Redeem)
		}

		// Settlement intent queries
		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.PATCH("/:id/requeue", transactionHandler.Requeue)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
