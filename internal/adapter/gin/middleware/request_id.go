package middleware

import (
	"github.com/gin-gonic/gin"

	"account-ledger-service/pkg/logger"
)

// RequestID propagates the caller's X-Request-ID, or a new one, through the
// request context and the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" {
			id = logger.NewRequestID()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(logger.RequestIDHeader, id)
		c.Next()
	}
}
