package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/metrics"
	"squad-service/internal/models"
	"squad-service/internal/repositories"
)

const (
	transitionNoop    = "noop"
	transitionCreated = "created"
	transitionUpdated = "updated"
	transitionRemoved = "removed"
	transitionInvited = "invited"
	transitionDenied  = "denied"
)

type RSVPService struct {
	events   repositories.EventRepository
	members  repositories.MembershipRepository
	friends  repositories.FriendRepository
	notifier EventNotifier
}

func NewRSVPService(events repositories.EventRepository, members repositories.MembershipRepository, friends repositories.FriendRepository, notifier EventNotifier) *RSVPService {
	return &RSVPService{events: events, members: members, friends: friends, notifier: notifier}
}

// SetStatus creates, updates or removes the actor's membership of an event.
// A nil status removes a self-created membership, or resets an invitation
// created by someone else back to invited. The returned membership has a nil
// status when it was deleted; a nil membership means nothing existed.
func (s *RSVPService) SetStatus(ctx context.Context, actorID, eventID uuid.UUID, status *models.RSVPStatus) (*models.Membership, error) {
	if status != nil && !status.Valid() {
		return nil, apperr.InvalidArgument("invalid-status", "unknown RSVP status")
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	existing, err := s.members.Get(ctx, eventID, actorID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if err := s.authorize(ctx, actorID, event, existing); err != nil {
		metrics.IncRSVPTransition(transitionDenied)
		return nil, err
	}

	if existing != nil && models.StatusOrInvited(existing.Status) == models.StatusOrInvited(status) {
		metrics.IncRSVPTransition(transitionNoop)
		return existing, nil
	}

	switch {
	case status == nil && existing != nil && existing.CreatedBy == actorID:
		deleted, err := s.members.Delete(ctx, existing.ID)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		if deleted == nil {
			deleted = existing
		}
		tombstone := *deleted
		tombstone.Status = nil
		metrics.IncRSVPTransition(transitionRemoved)
		s.notifier.RSVPChanged(ctx, *event, tombstone, existing.Status, actorID)
		return &tombstone, nil

	case existing != nil:
		updated, err := s.members.UpdateStatus(ctx, existing.ID, models.StatusOrInvited(status))
		if err != nil {
			return nil, apperr.Storage(err)
		}
		if updated == nil {
			return nil, apperr.NotFound("membership-not-found", "membership was removed concurrently")
		}
		metrics.IncRSVPTransition(transitionUpdated)
		s.notifier.RSVPChanged(ctx, *event, *updated, existing.Status, actorID)
		return updated, nil

	case status == nil:
		metrics.IncRSVPTransition(transitionNoop)
		return nil, nil
	}

	created, err := s.members.Create(ctx, models.Membership{
		EventID:   eventID,
		MemberID:  actorID,
		CreatedBy: actorID,
		Status:    status,
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperr.Conflict("rsvp-exists", "a membership for this event already exists")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	metrics.IncRSVPTransition(transitionCreated)
	s.notifier.RSVPChanged(ctx, *event, *created, nil, actorID)
	return created, nil
}

// InviteMembers invites the actor's friends to an event. Users who already
// have a membership are skipped. Either every remaining invitation is
// written or none is.
func (s *RSVPService) InviteMembers(ctx context.Context, actorID, eventID uuid.UUID, memberIDs []uuid.UUID) ([]models.Membership, error) {
	ids := make([]uuid.UUID, 0, len(memberIDs))
	seen := make(map[uuid.UUID]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup || id == actorID {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apperr.InvalidArgument("no-invitees", "at least one user other than yourself is required")
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	own, err := s.members.Get(ctx, eventID, actorID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if err := s.authorize(ctx, actorID, event, own); err != nil {
		return nil, err
	}

	already, err := s.members.ListByMembers(ctx, eventID, ids)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	skip := make(map[uuid.UUID]struct{}, len(already))
	for _, m := range already {
		skip[m.MemberID] = struct{}{}
	}

	accepted, err := s.friends.ListAccepted(ctx, actorID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	friendIDs := make(map[uuid.UUID]struct{}, len(accepted))
	for _, f := range accepted {
		friendIDs[f.OtherEnd(actorID)] = struct{}{}
	}

	invited := models.RSVPInvited
	pending := make([]models.Membership, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; ok {
			continue
		}
		if _, ok := friendIDs[id]; !ok {
			return nil, apperr.PermissionDenied("invitee-not-friend", "you can only invite your friends")
		}
		pending = append(pending, models.Membership{
			EventID:   eventID,
			MemberID:  id,
			CreatedBy: actorID,
			Status:    &invited,
		})
	}
	if len(pending) == 0 {
		return []models.Membership{}, nil
	}

	created, err := s.members.CreateMany(ctx, pending)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperr.Conflict("rsvp-exists", "a membership for this event already exists")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	for range created {
		metrics.IncRSVPTransition(transitionInvited)
	}
	s.notifier.MembersInvited(ctx, *event, created, actorID)
	return created, nil
}

// SetChatLastSeen records when the actor last read the event chat.
func (s *RSVPService) SetChatLastSeen(ctx context.Context, actorID, eventID uuid.UUID, seenAt time.Time) error {
	ok, err := s.members.SetChatLastSeen(ctx, eventID, actorID, seenAt.UTC())
	if err != nil {
		return apperr.Storage(err)
	}
	if !ok {
		return apperr.NotFound("membership-not-found", "you are not a member of this event")
	}
	return nil
}

func (s *RSVPService) loadEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if event == nil {
		return nil, apperr.NotFound("event-not-found", "event not found")
	}
	return event, nil
}

// authorize gates participation by event visibility. existing is the
// actor's current membership, if any.
func (s *RSVPService) authorize(ctx context.Context, actorID uuid.UUID, event *models.Event, existing *models.Membership) error {
	if event.Visibility == models.VisibilityPublic || event.CreatedBy == actorID || existing != nil {
		return nil
	}
	if event.Visibility != models.VisibilityFriends {
		return apperr.PermissionDenied("not-invited", "you have not been invited to this event")
	}

	f, err := s.friends.FindBetween(ctx, actorID, event.CreatedBy)
	if err != nil {
		return apperr.Storage(err)
	}
	if f == nil || f.Status != models.FriendStatusAccepted {
		return apperr.PermissionDenied("not-friend-of-creator", "only friends of the creator may join this event")
	}
	return nil
}
