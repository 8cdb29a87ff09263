package services

import (
	"context"

	"github.com/google/uuid"

	"squad-service/internal/models"
)

// FriendNotifier receives friendship lifecycle transitions. Implementations
// must not block on or report delivery failures.
type FriendNotifier interface {
	FriendRequestSent(ctx context.Context, f models.Friendship)
	FriendRequestAccepted(ctx context.Context, f models.Friendship)
	InviteSent(ctx context.Context, invite models.FriendInvite)
}

// EventNotifier receives membership transitions.
type EventNotifier interface {
	MembersInvited(ctx context.Context, event models.Event, invitations []models.Membership, inviterID uuid.UUID)
	RSVPChanged(ctx context.Context, event models.Event, m models.Membership, previous *models.RSVPStatus, actorID uuid.UUID)
}
