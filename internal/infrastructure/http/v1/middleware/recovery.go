// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1/dto"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client.
//
// A panic unwinds past ErrorHandler before it is recovered here, so
// this middleware renders the JSON error body itself instead of
// registering a gin error that nothing downstream would ever see.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"request_id", c.GetString("request_id"),
					"stack", string(debug.Stack()),
				)

				body := dto.ErrorResponse{
					Status:  "error",
					Message: "Internal server error",
				}
				failIdempotency(c, http.StatusInternalServerError, body)

				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, body)
				} else {
					c.Abort()
				}
			}
		}()
		c.Next()
	}
}
