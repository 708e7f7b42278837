package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "inventra/internal/core/context"
)

// Headers set by the authenticating gateway in front of the engine.
const (
	HeaderUserID   = "X-User-ID"
	HeaderBranchID = "X-Branch-ID"
)

// Actor copies the identity forwarded by the gateway into the request
// context, where the audit trail and the logger pick it up. Requests without
// the headers run anonymously.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{
				UserID:   userID,
				BranchID: c.GetHeader(HeaderBranchID),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
