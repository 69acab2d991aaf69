package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "flowmetrics/internal/core/context"
)

// Correlation headers accepted from and returned to clients.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace attaches correlation IDs to the request context so log entries
// for one request can be tied together. Incoming header values are
// honored, missing ones are generated.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.Trace{
			TraceID:   headerOrNew(c, HeaderTraceID),
			RequestID: headerOrNew(c, HeaderRequestID),
		}

		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), trace))
		c.Set("request_id", trace.RequestID)

		c.Header(HeaderTraceID, trace.TraceID)
		c.Header(HeaderRequestID, trace.RequestID)

		c.Next()
	}
}

func headerOrNew(c *gin.Context, name string) string {
	if v := c.GetHeader(name); v != "" {
		return v
	}
	return uuid.New().String()
}
