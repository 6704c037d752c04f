package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/service"
)

type TransactionHandler struct {
	transactions service.TransactionService
	logger       *zap.Logger
}

func NewTransactionHandler(transactions service.TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, logger: logger}
}

func (h *TransactionHandler) History(c *gin.Context) {
	address := c.Param("address")
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	history, err := h.transactions.History(c.Request.Context(), address, status, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *TransactionHandler) Stats(c *gin.Context) {
	address := c.Param("address")

	stats, err := h.transactions.Stats(c.Request.Context(), address)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *TransactionHandler) Recent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondBadRequest(c, "missing user context")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	transactions, err := h.transactions.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid transaction id")
		return
	}

	transaction, err := h.transactions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}
