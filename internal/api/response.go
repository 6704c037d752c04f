package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/errors"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func statusForType(t errors.ErrorType) int {
	switch t {
	case errors.InvalidRequest, errors.InvalidSignature, errors.InvalidTransferMessage, errors.InsufficientFund:
		return http.StatusBadRequest
	case errors.NotFound:
		return http.StatusNotFound
	case errors.Unauthorized:
		return http.StatusUnauthorized
	case errors.Conflict:
		return http.StatusConflict
	case errors.PriceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	t := errors.TypeOf(err)
	status := statusForType(t)

	msg := "internal server error"
	if e, ok := err.(*errors.Error); ok && t != errors.Internal {
		msg = e.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}

	c.JSON(status, errorBody{Error: errorDetail{
		Type:    string(t),
		Message: msg,
	}})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: errorDetail{
		Type:    string(errors.InvalidRequest),
		Message: msg,
	}})
}
