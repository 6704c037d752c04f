package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/email"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/service"
)

type WalletHandler struct {
	wallets   service.WalletService
	transfers service.TransferService
	prices    service.PriceService
	auth      service.AuthService
	notifier  *email.Notifier
	logger    *zap.Logger
}

func NewWalletHandler(
	wallets service.WalletService,
	transfers service.TransferService,
	prices service.PriceService,
	auth service.AuthService,
	notifier *email.Notifier,
	logger *zap.Logger,
) *WalletHandler {
	return &WalletHandler{
		wallets:   wallets,
		transfers: transfers,
		prices:    prices,
		auth:      auth,
		notifier:  notifier,
		logger:    logger,
	}
}

func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}

	var req model.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.wallets.CreateWallet(c.Request.Context(), userID, req.WalletName, req.IsPrimary)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if profile, err := h.auth.GetProfile(c.Request.Context(), userID); err == nil {
		go h.notifier.WalletCreated(profile.Email, created.Wallet.Address, created.StartingBalance)
	}

	c.JSON(http.StatusCreated, created)
}

func (h *WalletHandler) Import(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}

	var req model.ImportWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "mnemonic is required")
		return
	}

	wallet, err := h.wallets.ImportWallet(c.Request.Context(), userID, req.Mnemonic, req.WalletName, req.IsPrimary)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, wallet)
}

func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}

	includeMnemonics := c.Query("include_mnemonics") == "true"

	wallets, err := h.wallets.ListWallets(c.Request.Context(), userID, includeMnemonics)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

func (h *WalletHandler) Balance(c *gin.Context) {
	address := c.Param("address")

	balance, err := h.wallets.GetBalance(c.Request.Context(), address)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *WalletHandler) PrepareTransfer(c *gin.Context) {
	var req model.PrepareTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "from_address and to_address are required")
		return
	}

	prepared, err := h.wallets.PrepareTransfer(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, prepared)
}

func (h *WalletHandler) ExecuteTransfer(c *gin.Context) {
	var req model.ExecuteTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "message, signature and from_address are required")
		return
	}

	result, err := h.transfers.ExecuteTransfer(c.Request.Context(), req.Message, req.Signature, req.FromAddress)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if userID, ok := currentUserID(c); ok {
		if profile, err := h.auth.GetProfile(c.Request.Context(), userID); err == nil {
			go h.notifier.TransactionCompleted(
				profile.Email,
				result.Transaction.FromAddress,
				result.Transaction.ToAddress,
				result.Transaction.Amount,
				result.SenderBalance,
			)
		}
	}

	c.JSON(http.StatusOK, result)
}

func (h *WalletHandler) SignMessage(c *gin.Context) {
	var req model.SignMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "message, wallet_address and mnemonic are required")
		return
	}

	signed, err := h.wallets.SignMessage(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, signed)
}

func (h *WalletHandler) CurrentPrice(c *gin.Context) {
	quote, err := h.prices.GetCurrentPrice(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *WalletHandler) ConvertPrice(c *gin.Context) {
	var req model.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "usd_amount is required")
		return
	}

	conversion, err := h.prices.ConvertUSDToETH(c.Request.Context(), req.USDAmount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conversion)
}
