// Package middleware provides gin middleware for the billing API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/pkg/logger"
)

// Recovery turns a panic into an INTERNAL_ERROR response and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
						WithDetail("request_id", c.GetString(ContextRequestID)),
				)
				c.Abort()
			}
		}()
		c.Next()
	}
}
