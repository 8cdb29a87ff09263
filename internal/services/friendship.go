package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/metrics"
	"squad-service/internal/models"
	"squad-service/internal/phone"
	"squad-service/internal/repositories"
)

// FriendRequestResult carries either the created friendship or, for a phone
// number without a profile, the deferred invite.
type FriendRequestResult struct {
	Friendship *models.Friendship   `json:"friendship,omitempty"`
	Invite     *models.FriendInvite `json:"invite,omitempty"`
}

type FriendService struct {
	profiles repositories.ProfileRepository
	friends  repositories.FriendRepository
	invites  repositories.InviteRepository
	notifier FriendNotifier
	now      func() time.Time
}

func NewFriendService(profiles repositories.ProfileRepository, friends repositories.FriendRepository, invites repositories.InviteRepository, notifier FriendNotifier) *FriendService {
	return &FriendService{
		profiles: profiles,
		friends:  friends,
		invites:  invites,
		notifier: notifier,
		now:      time.Now,
	}
}

// RequestFriendship sends a friend request from requesterID to the profile
// registered under rawPhone. When no profile exists and invite is set, a
// deferred invite is recorded and texted instead.
func (s *FriendService) RequestFriendship(ctx context.Context, requesterID uuid.UUID, rawPhone string, invite bool) (result *FriendRequestResult, err error) {
	defer func() {
		if err != nil {
			metrics.IncFriendRequest(metrics.StatusFailed)
		} else {
			metrics.IncFriendRequest(metrics.StatusSuccess)
		}
	}()

	normalized := phone.Normalize(rawPhone)
	if normalized == "" {
		return nil, apperr.InvalidArgument("invalid-phone", "phone number has no digits")
	}

	requestee, err := s.profiles.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if requestee == nil {
		if !invite {
			return nil, apperr.NotFound("requestee-not-found", "no profile matches that phone number")
		}
		return s.deferInvite(ctx, requesterID, normalized)
	}

	if requestee.ID == requesterID {
		return nil, apperr.InvalidArgument("self-friending", "cannot send a friend request to yourself")
	}

	existing, err := s.friends.CountBetween(ctx, requesterID, requestee.ID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if existing > 0 {
		return nil, apperr.Conflict("friend-exists", "a friendship already links these users")
	}

	f, err := s.friends.Create(ctx, requesterID, requestee.ID)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperr.Conflict("friend-exists", "a friendship already links these users")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}

	s.notifier.FriendRequestSent(ctx, *f)
	return &FriendRequestResult{Friendship: f}, nil
}

func (s *FriendService) deferInvite(ctx context.Context, requesterID uuid.UUID, normalized string) (*FriendRequestResult, error) {
	inv, err := s.invites.Upsert(ctx, normalized, requesterID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	s.notifier.InviteSent(ctx, *inv)
	return &FriendRequestResult{Invite: inv}, nil
}

// ActionFriendship lets the requestee accept or decline a pending request.
func (s *FriendService) ActionFriendship(ctx context.Context, actorID, friendshipID uuid.UUID, decision models.FriendStatus) (f *models.Friendship, err error) {
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFailed
		}
		metrics.IncFriendAction(actionLabel(decision), status)
	}()

	if decision != models.FriendStatusAccepted && decision != models.FriendStatusDeclined {
		return nil, apperr.InvalidArgument("invalid-action", "action must be accepted or declined")
	}

	current, err := s.friends.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if current == nil {
		return nil, apperr.NotFound("friend-not-found", "friend request not found")
	}
	if current.RequesteeID != actorID {
		return nil, apperr.PermissionDenied("not-requestee", "only the requestee may act on a friend request")
	}
	if current.Status != models.FriendStatusRequested {
		return nil, apperr.FailedPrecondition("not-requested-status", "friend request was already actioned")
	}

	updated, err := s.friends.UpdateStatus(ctx, friendshipID, decision, s.now().UTC())
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if updated == nil {
		// Another action won the race between the read and the guarded update.
		return nil, apperr.FailedPrecondition("not-requested-status", "friend request was already actioned")
	}

	if decision == models.FriendStatusAccepted {
		s.notifier.FriendRequestAccepted(ctx, *updated)
	}
	return updated, nil
}

// actionLabel keeps caller input out of metric labels.
func actionLabel(decision models.FriendStatus) string {
	switch decision {
	case models.FriendStatusAccepted, models.FriendStatusDeclined:
		return string(decision)
	}
	return metrics.ActionInvalid
}

// MaterializeInvites turns the deferred invites for a newly created
// profile's phone into pending friend requests, then clears them.
func (s *FriendService) MaterializeInvites(ctx context.Context, profile models.Profile) ([]models.Friendship, error) {
	normalized := phone.Normalize(profile.Phone)
	if normalized == "" {
		return nil, nil
	}
	invites, err := s.invites.ListByPhone(ctx, normalized)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if len(invites) == 0 {
		return nil, nil
	}

	created := make([]models.Friendship, 0, len(invites))
	for _, inv := range invites {
		if inv.RequesterID == profile.ID {
			continue
		}
		n, err := s.friends.CountBetween(ctx, inv.RequesterID, profile.ID)
		if err != nil {
			return created, apperr.Storage(err)
		}
		if n > 0 {
			continue
		}
		f, err := s.friends.Create(ctx, inv.RequesterID, profile.ID)
		if errors.Is(err, repositories.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, apperr.Storage(err)
		}
		metrics.IncFriendRequest(metrics.StatusSuccess)
		s.notifier.FriendRequestSent(ctx, *f)
		created = append(created, *f)
	}

	if err := s.invites.DeleteByPhone(ctx, normalized); err != nil {
		return created, apperr.Storage(err)
	}
	slog.Info("materialized friend invites", "profile", profile.ID, "invites", len(invites), "created", len(created))
	return created, nil
}
