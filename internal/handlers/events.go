package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/models"
	"squad-service/internal/telemetry"
)

type RSVPService interface {
	SetStatus(ctx context.Context, actorID, eventID uuid.UUID, status *models.RSVPStatus) (*models.Membership, error)
	InviteMembers(ctx context.Context, actorID, eventID uuid.UUID, memberIDs []uuid.UUID) ([]models.Membership, error)
	SetChatLastSeen(ctx context.Context, actorID, eventID uuid.UUID, seenAt time.Time) error
}

type EventHandler struct {
	rsvp  RSVPService
	audit *telemetry.AuditEmitter
}

func NewEventHandler(rsvp RSVPService, audit *telemetry.AuditEmitter) *EventHandler {
	return &EventHandler{rsvp: rsvp, audit: audit}
}

// RSVP sets the caller's status. The status key is required; an explicit
// null withdraws the RSVP.
func (h *EventHandler) RSVP(c *gin.Context) {
	userID, eventID, ok := h.parseCall(c)
	if !ok {
		return
	}
	status, err := decodeRSVPStatus(c)
	if err != nil {
		badRequest(c, "invalid-body", "status must be a string or null")
		return
	}

	reqID := requestID(c)
	ctx := c.Request.Context()
	m, err := h.rsvp.SetStatus(ctx, *userID, eventID, status)
	if err != nil {
		h.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelError, Action: telemetry.ActionRSVP, Text: "RSVP failed", Reason: apperr.ReasonOf(err), RequestID: reqID, ActorID: userID, Subject: eventID.String()})
		respondError(c, err)
		return
	}

	h.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionRSVP, Text: "RSVP set to " + string(models.StatusOrInvited(status)), RequestID: reqID, ActorID: userID, Subject: eventID.String()})
	c.JSON(nethttp.StatusOK, gin.H{"membership": m})
}

var errStatusMissing = errors.New("status is required")

// decodeRSVPStatus tells a missing status key apart from an explicit null,
// which a plain struct binding cannot.
func decodeRSVPStatus(c *gin.Context) (*models.RSVPStatus, error) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		return nil, err
	}
	raw, ok := fields["status"]
	if !ok {
		return nil, errStatusMissing
	}
	var status *models.RSVPStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, err
	}
	return status, nil
}

type inviteBody struct {
	Users []uuid.UUID `json:"users" binding:"required,min=1"`
}

func (h *EventHandler) Invite(c *gin.Context) {
	userID, eventID, ok := h.parseCall(c)
	if !ok {
		return
	}
	var body inviteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid-body", "users must be a non-empty list of profile ids")
		return
	}

	reqID := requestID(c)
	ctx := c.Request.Context()
	invitations, err := h.rsvp.InviteMembers(ctx, *userID, eventID, body.Users)
	if err != nil {
		h.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelError, Action: telemetry.ActionEventInvite, Text: "event invitation failed", Reason: apperr.ReasonOf(err), RequestID: reqID, ActorID: userID, Subject: eventID.String()})
		respondError(c, err)
		return
	}

	h.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionEventInvite, Text: fmt.Sprintf("invited %d friends", len(invitations)), RequestID: reqID, ActorID: userID, Subject: eventID.String()})
	c.JSON(nethttp.StatusCreated, gin.H{"invitations": invitations})
}

type chatSeenBody struct {
	Timestamp time.Time `json:"timestamp" binding:"required"`
}

func (h *EventHandler) ChatSeen(c *gin.Context) {
	userID, eventID, ok := h.parseCall(c)
	if !ok {
		return
	}
	var body chatSeenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid-body", "timestamp must be an RFC 3339 time")
		return
	}

	if err := h.rsvp.SetChatLastSeen(c.Request.Context(), *userID, eventID, body.Timestamp); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *EventHandler) parseCall(c *gin.Context) (*uuid.UUID, uuid.UUID, bool) {
	userID := actorID(c)
	if userID == nil {
		unauthorized(c)
		return nil, uuid.Nil, false
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid-id", "invalid event id")
		return nil, uuid.Nil, false
	}
	return userID, eventID, true
}
