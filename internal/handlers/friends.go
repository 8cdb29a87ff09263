package handlers

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/metrics"
	"squad-service/internal/models"
	"squad-service/internal/services"
	"squad-service/internal/telemetry"
)

type FriendService interface {
	RequestFriendship(ctx context.Context, requesterID uuid.UUID, phone string, invite bool) (*services.FriendRequestResult, error)
	ActionFriendship(ctx context.Context, actorID, friendshipID uuid.UUID, decision models.FriendStatus) (*models.Friendship, error)
}

type GraphBuilder interface {
	Build(ctx context.Context, viewerID uuid.UUID) ([]services.GraphEntry, error)
}

type FriendHandler struct {
	friends FriendService
	graph   GraphBuilder
	audit   *telemetry.AuditEmitter
}

func NewFriendHandler(friends FriendService, graph GraphBuilder, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, graph: graph, audit: audit}
}

type sendRequestBody struct {
	Phone  string `json:"phone" binding:"required"`
	Invite bool   `json:"invite"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	reqID := requestID(c)
	userID := actorID(c)
	if userID == nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		unauthorized(c)
		return
	}

	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.audit.Emit(c.Request.Context(), telemetry.Record{Level: telemetry.LevelError, Action: telemetry.ActionFriendRequest, Text: "invalid request payload", Reason: "invalid-body", RequestID: reqID, ActorID: userID})
		metrics.IncFriendRequest(metrics.StatusFailed)
		badRequest(c, "invalid-body", "phone is required")
		return
	}

	ctx := c.Request.Context()
	result, err := h.friends.RequestFriendship(ctx, *userID, body.Phone, body.Invite)
	if err != nil {
		h.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelError, Action: telemetry.ActionFriendRequest, Text: "friend request failed", Reason: apperr.ReasonOf(err), RequestID: reqID, ActorID: userID})
		respondError(c, err)
		return
	}

	rec := telemetry.Record{Action: telemetry.ActionFriendRequest, Text: "friend request sent", RequestID: reqID, ActorID: userID}
	switch {
	case result.Invite != nil:
		rec.Action, rec.Text, rec.Subject = telemetry.ActionFriendInvite, "friend invite sent by SMS", result.Invite.ID.String()
	case result.Friendship != nil:
		rec.Subject = result.Friendship.ID.String()
	}
	h.audit.Emit(ctx, rec)
	c.JSON(nethttp.StatusCreated, result)
}

type actionBody struct {
	Action string `json:"action" binding:"required"`
}

func (h *FriendHandler) Action(c *gin.Context) {
	reqID := requestID(c)
	userID := actorID(c)
	if userID == nil {
		unauthorized(c)
		return
	}

	friendshipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		metrics.IncFriendAction("unknown", metrics.StatusFailed)
		badRequest(c, "invalid-id", "invalid friend request id")
		return
	}
	var body actionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncFriendAction("unknown", metrics.StatusFailed)
		badRequest(c, "invalid-body", "action is required")
		return
	}

	ctx := c.Request.Context()
	f, err := h.friends.ActionFriendship(ctx, *userID, friendshipID, models.FriendStatus(body.Action))
	if err != nil {
		h.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelError, Action: telemetry.ActionFriendRespond, Text: "friend request action failed", Reason: apperr.ReasonOf(err), RequestID: reqID, ActorID: userID, Subject: friendshipID.String()})
		respondError(c, err)
		return
	}

	h.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionFriendRespond, Text: "friend request " + string(f.Status), RequestID: reqID, ActorID: userID, Subject: f.ID.String()})
	c.JSON(nethttp.StatusOK, f)
}

func (h *FriendHandler) Network(c *gin.Context) {
	userID := actorID(c)
	if userID == nil {
		unauthorized(c)
		return
	}

	entries, err := h.graph.Build(c.Request.Context(), *userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, entries)
}
