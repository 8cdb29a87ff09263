package handlers

import (
	"errors"
	"log/slog"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"squad-service/internal/apperr"
)

// respondError writes err as {"error", "reason"} with the status mapped from
// its kind. Untyped errors are reported as internal without detail.
func respondError(c *gin.Context, err error) {
	var typed *apperr.Error
	if !errors.As(err, &typed) {
		slog.Error("unhandled error", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(nethttp.StatusInternalServerError, gin.H{"error": "internal error", "reason": "internal"})
		return
	}
	if typed.Kind == apperr.KindUnavailable {
		slog.Error("dependency failure", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": typed.Message, "reason": typed.Reason})
}

func badRequest(c *gin.Context, reason, message string) {
	respondError(c, apperr.InvalidArgument(reason, message))
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": "unauthenticated"})
}
