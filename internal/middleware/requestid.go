package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags every request with a correlation ID. A caller-supplied
// X-Request-ID is kept so IDs survive proxy hops; otherwise one is minted.
// The ID is echoed on the response and threaded through the request logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom returns the request's correlation ID, empty when untagged.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
