package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/service"
)

const contextUserID = "userID"

// RequireAuth validates the Bearer access token and stores the subject user
// id in the request context.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: errorDetail{
				Type:    string(errors.Unauthorized),
				Message: "missing or malformed Authorization header",
			}})
			return
		}

		userID, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: errorDetail{
				Type:    string(errors.Unauthorized),
				Message: "invalid or expired token",
			}})
			return
		}

		c.Set(contextUserID, userID)
		c.Next()
	}
}

// currentUserID reads the id RequireAuth stored; routes outside the
// authenticated group get uuid.Nil and false.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
