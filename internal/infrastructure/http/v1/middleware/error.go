package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1/dto"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/storage/postgres"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
// Nothing escapes this middleware: a handler error never crashes the process.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		body := dto.ErrorResponse{
			Status:  "error",
			Message: "Internal server error",
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			body.Message = appErr.Message
		} else {
			logger.Error(c.Request.Context(), "unhandled error",
				"error", err,
			)
		}

		// Mark idempotency as failed with the exact response we return (best-effort).
		failIdempotency(c, status, body)

		c.JSON(status, body)
	}
}

func failIdempotency(c *gin.Context, status int, body dto.ErrorResponse) {
	key, exists := c.Get("idempotency_key")
	if !exists {
		return
	}
	store, ok := c.Get("idempotency_store")
	if !ok {
		return
	}
	if s, ok := store.(*postgres.IdempotencyStore); ok && s != nil {
		_ = s.FailKey(c.Request.Context(), key.(string), status, "application/json", body)
	}
}
