package handlers

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"squad-service/internal/models"
	"squad-service/internal/services"
)

type ProfileService interface {
	LookupByPhone(ctx context.Context, rawPhone string) (*services.PhoneLookup, error)
	GetProfile(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.RedactedProfile, error)
}

type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Lookup(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		badRequest(c, "invalid-phone", "phone query parameter is required")
		return
	}
	res, err := h.profiles.LookupByPhone(c.Request.Context(), phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, res)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID := actorID(c)
	if userID == nil {
		unauthorized(c)
		return
	}
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid-id", "invalid profile id")
		return
	}

	p, err := h.profiles.GetProfile(c.Request.Context(), *userID, subjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, p)
}
