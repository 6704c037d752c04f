package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cypherd/walletBackend/internal/service"
)

// NewRouter wires every route. Wallet and transaction routes sit behind the
// access-token middleware; price and balance lookups stay public.
func NewRouter(
	auth service.AuthService,
	authHandler *AuthHandler,
	walletHandler *WalletHandler,
	transactionHandler *TransactionHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "wallet-backend", "status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/signin", authHandler.Signin)
		authGroup.POST("/refresh", authHandler.Refresh)

		protected := authGroup.Group("", RequireAuth(auth))
		protected.GET("/profile", authHandler.GetProfile)
		protected.PUT("/profile", authHandler.UpdateProfile)
		protected.POST("/change-password", authHandler.ChangePassword)
	}

	wallet := router.Group("/api/wallet")
	{
		wallet.GET("/balance/:address", walletHandler.Balance)
		wallet.GET("/price/eth", walletHandler.CurrentPrice)
		wallet.POST("/price/convert", walletHandler.ConvertPrice)

		protected := wallet.Group("", RequireAuth(auth))
		protected.POST("/create", walletHandler.Create)
		protected.POST("/import", walletHandler.Import)
		protected.GET("/list", walletHandler.List)
		protected.POST("/transfer/prepare", walletHandler.PrepareTransfer)
		protected.POST("/transfer/execute", walletHandler.ExecuteTransfer)
		protected.POST("/sign-message", walletHandler.SignMessage)
	}

	transactions := router.Group("/api/transactions", RequireAuth(auth))
	{
		transactions.GET("/history/:address", transactionHandler.History)
		transactions.GET("/stats/:address", transactionHandler.Stats)
		transactions.GET("/recent", transactionHandler.Recent)
		transactions.GET("/:id", transactionHandler.Get)
	}

	return router
}
