package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the per-request identifier in responses.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// RequestIDMiddleware tags every request with a UUID4 so server log lines
// and the opaque "internal server error" responses can be correlated. An
// incoming X-Request-ID from a trusted proxy is kept as-is.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the identifier assigned by RequestIDMiddleware, or ""
// when the middleware is not installed.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
