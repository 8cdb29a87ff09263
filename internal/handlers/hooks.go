package handlers

import (
	"context"
	"crypto/subtle"
	"io"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"squad-service/internal/feed"
)

// HookSecretHeader carries the shared secret on change-feed webhooks.
const HookSecretHeader = "X-Hook-Secret"

const maxHookBody = 1 << 20

type ChangeRouter interface {
	Handle(ctx context.Context, c feed.Change) error
}

type HookHandler struct {
	router ChangeRouter
	secret string
}

func NewHookHandler(router ChangeRouter, secret string) *HookHandler {
	return &HookHandler{router: router, secret: secret}
}

func (h *HookHandler) Changes(c *gin.Context) {
	if h.secret == "" {
		c.AbortWithStatusJSON(nethttp.StatusServiceUnavailable, gin.H{"error": "webhook disabled", "reason": "hook-disabled"})
		return
	}
	provided := c.GetHeader(HookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		c.AbortWithStatusJSON(nethttp.StatusUnauthorized, gin.H{"error": "invalid hook secret", "reason": "unauthenticated"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxHookBody))
	if err != nil {
		badRequest(c, "invalid-body", "failed to read body")
		return
	}
	change, err := feed.Decode(raw)
	if err != nil {
		badRequest(c, "invalid-body", err.Error())
		return
	}

	if err := h.router.Handle(c.Request.Context(), change); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusAccepted)
}
