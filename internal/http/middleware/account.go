package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pipelines-backend/internal/http/response"
	"github.com/yungbote/pipelines-backend/internal/platform/ctxutil"
)

const accountIDKey = "account_id"

// AccountScope parses :account_id and puts it on the request context.
func AccountScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.Param("account_id"))
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusNotFound, "not_found", errors.New("account not found"))
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithAccountID(c.Request.Context(), id))
		c.Set(accountIDKey, id)
		c.Next()
	}
}

// AccountID returns the account set by AccountScope.
func AccountID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(accountIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	id, _ := ctxutil.AccountID(c.Request.Context())
	return id
}
