package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hygieia/backend/internal/apierror"
	"github.com/hygieia/backend/internal/logger"
)

// UserID requires the X-User-ID header and places it on the gin context and
// the request context. All data in the store is partitioned by this value.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			problem := apierror.NewBadRequestError(
				apierror.GetRequestID(c),
				"Missing X-User-ID header",
				"A user identifier is required",
			)
			apierror.WriteProblem(c, problem)
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		ctx := logger.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
