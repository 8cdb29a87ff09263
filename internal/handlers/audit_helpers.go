package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"squad-service/internal/middleware"
)

// requestID prefers the id assigned by middleware.RequestID and falls back
// to the raw header for handlers mounted without it.
func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(middleware.RequestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

// actorID returns the authenticated caller, or nil when the JWT middleware
// did not run or stored something unexpected.
func actorID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return &id
}
