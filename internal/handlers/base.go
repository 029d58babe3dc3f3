package handlers

import (
	"context"
	"errors"
	"net/http"

	"agora/internal/logger"
	"agora/internal/reaction"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reaction.ErrInvalidReactionKind), errors.Is(err, reaction.ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, reaction.ErrUnknownUser):
		return http.StatusUnauthorized
	case errors.Is(err, reaction.ErrReactionForbidden):
		return http.StatusForbidden
	case errors.Is(err, reaction.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, reaction.ErrConcurrencyExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Server errors are logged and
// their text is not sent to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		_ = c.Error(err)
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = http.StatusText(status)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
