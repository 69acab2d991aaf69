// Package middleware provides the HTTP middleware chain.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"flowmetrics/internal/core/apperror"
	"flowmetrics/pkg/logger"
)

// Recovery converts a handler panic into a 500 response. The stack
// goes to the log, the client only sees the request ID.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error(c.Request.Context(), "handler panic",
				"panic", r,
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", r)).
				WithDetail("request_id", c.GetString("request_id"))
			_ = c.Error(appErr)
			c.Abort()
		}()
		c.Next()
	}
}
