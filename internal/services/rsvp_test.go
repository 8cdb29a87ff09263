package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"squad-service/internal/apperr"
	"squad-service/internal/mocks"
	"squad-service/internal/models"
	"squad-service/internal/repositories"
)

type rsvpFixture struct {
	events   *mocks.MockEventRepository
	members  *mocks.MockMembershipRepository
	friends  *mocks.MockFriendRepository
	notifier *mocks.MockEventNotifier
	svc      *RSVPService
}

func newRSVPFixture(t *testing.T) *rsvpFixture {
	t.Helper()
	f := &rsvpFixture{
		events:   new(mocks.MockEventRepository),
		members:  new(mocks.MockMembershipRepository),
		friends:  new(mocks.MockFriendRepository),
		notifier: new(mocks.MockEventNotifier),
	}
	f.svc = NewRSVPService(f.events, f.members, f.friends, f.notifier)
	t.Cleanup(func() {
		f.events.AssertExpectations(t)
		f.members.AssertExpectations(t)
		f.friends.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})
	return f
}

func status(s models.RSVPStatus) *models.RSVPStatus { return &s }

func newEvent(visibility models.Visibility) *models.Event {
	return &models.Event{ID: uuid.New(), CreatedBy: uuid.New(), Title: "Trivia", Status: models.EventStatusLive, Visibility: visibility}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	fx := newRSVPFixture(t)

	_, err := fx.svc.SetStatus(context.Background(), uuid.New(), uuid.New(), status("perhaps"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Equal(t, "invalid-status", apperr.ReasonOf(err))
}

func TestSetStatusMissingEvent(t *testing.T) {
	fx := newRSVPFixture(t)
	eventID := uuid.New()
	fx.events.On("GetByID", mock.Anything, eventID).Return(nil, nil)

	_, err := fx.svc.SetStatus(context.Background(), uuid.New(), eventID, status(models.RSVPYes))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "event-not-found", apperr.ReasonOf(err))
}

func TestSetStatusPrivateEventRequiresInvitation(t *testing.T) {
	fx := newRSVPFixture(t)
	event := newEvent(models.VisibilityPrivate)
	actor := uuid.New()
	fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(nil, nil).Once()

	_, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPYes))
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
	assert.Equal(t, "not-invited", apperr.ReasonOf(err))

	invite := &models.Membership{ID: uuid.New(), EventID: event.ID, MemberID: actor, CreatedBy: event.CreatedBy, Status: status(models.RSVPInvited)}
	updated := *invite
	updated.Status = status(models.RSVPYes)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(invite, nil).Once()
	fx.members.On("UpdateStatus", mock.Anything, invite.ID, models.RSVPYes).Return(&updated, nil)
	fx.notifier.On("RSVPChanged", mock.Anything, *event, updated, invite.Status, actor).Once()

	got, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPYes))
	require.NoError(t, err)
	assert.Equal(t, models.RSVPYes, *got.Status)
	assert.Equal(t, event.CreatedBy, got.CreatedBy)
}

func TestSetStatusFriendsEventGate(t *testing.T) {
	actor := uuid.New()

	t.Run("stranger denied", func(t *testing.T) {
		fx := newRSVPFixture(t)
		event := newEvent(models.VisibilityFriends)
		fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
		fx.members.On("Get", mock.Anything, event.ID, actor).Return(nil, nil)
		fx.friends.On("FindBetween", mock.Anything, actor, event.CreatedBy).Return(
			&models.Friendship{RequesterID: actor, RequesteeID: event.CreatedBy, Status: models.FriendStatusRequested}, nil)

		_, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPMaybe))
		assert.Equal(t, "not-friend-of-creator", apperr.ReasonOf(err))
	})

	t.Run("friend allowed", func(t *testing.T) {
		fx := newRSVPFixture(t)
		event := newEvent(models.VisibilityFriends)
		created := &models.Membership{ID: uuid.New(), EventID: event.ID, MemberID: actor, CreatedBy: actor, Status: status(models.RSVPMaybe)}
		fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
		fx.members.On("Get", mock.Anything, event.ID, actor).Return(nil, nil)
		fx.friends.On("FindBetween", mock.Anything, actor, event.CreatedBy).Return(
			&models.Friendship{RequesterID: event.CreatedBy, RequesteeID: actor, Status: models.FriendStatusAccepted}, nil)
		fx.members.On("Create", mock.Anything, models.Membership{EventID: event.ID, MemberID: actor, CreatedBy: actor, Status: status(models.RSVPMaybe)}).Return(created, nil)
		fx.notifier.On("RSVPChanged", mock.Anything, *event, *created, (*models.RSVPStatus)(nil), actor).Once()

		got, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPMaybe))
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})
}

func TestSetStatusIsIdempotent(t *testing.T) {
	fx := newRSVPFixture(t)
	event := newEvent(models.VisibilityPublic)
	actor := uuid.New()
	existing := &models.Membership{ID: uuid.New(), EventID: event.ID, MemberID: actor, CreatedBy: actor, Status: status(models.RSVPYes)}
	fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(existing, nil)

	first, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPYes))
	require.NoError(t, err)
	second, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPYes))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	fx.members.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	fx.members.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	fx.notifier.AssertNotCalled(t, "RSVPChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetStatusNilOnSelfCreatedMembershipDeletes(t *testing.T) {
	fx := newRSVPFixture(t)
	event := newEvent(models.VisibilityPublic)
	actor := uuid.New()
	existing := &models.Membership{ID: uuid.New(), EventID: event.ID, MemberID: actor, CreatedBy: actor, Status: status(models.RSVPMaybe)}
	tombstone := *existing
	tombstone.Status = nil

	fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(existing, nil)
	fx.members.On("Delete", mock.Anything, existing.ID).Return(existing, nil)
	fx.notifier.On("RSVPChanged", mock.Anything, *event, tombstone, existing.Status, actor).Once()

	got, err := fx.svc.SetStatus(context.Background(), actor, event.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Status)
	assert.Equal(t, existing.ID, got.ID)
}

func TestSetStatusNilOnForeignInvitationResetsToInvited(t *testing.T) {
	fx := newRSVPFixture(t)
	event := newEvent(models.VisibilityPrivate)
	actor := uuid.New()
	existing := &models.Membership{ID: uuid.New(), EventID: event.ID, MemberID: actor, CreatedBy: event.CreatedBy, Status: status(models.RSVPNo)}
	reset := *existing
	reset.Status = status(models.RSVPInvited)

	fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(existing, nil)
	fx.members.On("UpdateStatus", mock.Anything, existing.ID, models.RSVPInvited).Return(&reset, nil)
	fx.notifier.On("RSVPChanged", mock.Anything, *event, reset, existing.Status, actor).Once()

	got, err := fx.svc.SetStatus(context.Background(), actor, event.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPInvited, *got.Status)
	fx.members.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSetStatusNilWithoutMembership(t *testing.T) {
	fx := newRSVPFixture(t)
	event := newEvent(models.VisibilityPublic)
	actor := uuid.New()
	fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(nil, nil)

	got, err := fx.svc.SetStatus(context.Background(), actor, event.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetStatusConflictOnConcurrentInsert(t *testing.T) {
	fx := newRSVPFixture(t)
	event := newEvent(models.VisibilityPublic)
	actor := uuid.New()
	fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
	fx.members.On("Get", mock.Anything, event.ID, actor).Return(nil, nil)
	fx.members.On("Create", mock.Anything, mock.Anything).Return(nil, repositories.ErrDuplicate)

	_, err := fx.svc.SetStatus(context.Background(), actor, event.ID, status(models.RSVPOMW))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "rsvp-exists", apperr.ReasonOf(err))
}

func TestInviteMembers(t *testing.T) {
	event := newEvent(models.VisibilityPrivate)
	inviter := event.CreatedBy
	friendA, friendB, member, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	accepted := []models.Friendship{
		{RequesterID: inviter, RequesteeID: friendA, Status: models.FriendStatusAccepted},
		{RequesterID: friendB, RequesteeID: inviter, Status: models.FriendStatusAccepted},
		{RequesterID: inviter, RequesteeID: member, Status: models.FriendStatusAccepted},
	}

	t.Run("invites friends and skips members", func(t *testing.T) {
		fx := newRSVPFixture(t)
		ids := []uuid.UUID{friendA, friendB, member}
		fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
		fx.members.On("Get", mock.Anything, event.ID, inviter).Return(nil, nil)
		fx.members.On("ListByMembers", mock.Anything, event.ID, ids).Return([]models.Membership{{MemberID: member}}, nil)
		fx.friends.On("ListAccepted", mock.Anything, inviter).Return(accepted, nil)

		invited := models.RSVPInvited
		pending := []models.Membership{
			{EventID: event.ID, MemberID: friendA, CreatedBy: inviter, Status: &invited},
			{EventID: event.ID, MemberID: friendB, CreatedBy: inviter, Status: &invited},
		}
		created := []models.Membership{pending[0], pending[1]}
		created[0].ID, created[1].ID = uuid.New(), uuid.New()
		fx.members.On("CreateMany", mock.Anything, pending).Return(created, nil)
		fx.notifier.On("MembersInvited", mock.Anything, *event, created, inviter).Once()

		got, err := fx.svc.InviteMembers(context.Background(), inviter, event.ID, []uuid.UUID{friendA, friendB, friendA, member, inviter})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("non-friend aborts everything", func(t *testing.T) {
		fx := newRSVPFixture(t)
		ids := []uuid.UUID{friendA, stranger}
		fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
		fx.members.On("Get", mock.Anything, event.ID, inviter).Return(nil, nil)
		fx.members.On("ListByMembers", mock.Anything, event.ID, ids).Return([]models.Membership{}, nil)
		fx.friends.On("ListAccepted", mock.Anything, inviter).Return(accepted, nil)

		_, err := fx.svc.InviteMembers(context.Background(), inviter, event.ID, ids)
		assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
		assert.Equal(t, "invitee-not-friend", apperr.ReasonOf(err))
		fx.members.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
	})

	t.Run("outsider cannot invite to private event", func(t *testing.T) {
		fx := newRSVPFixture(t)
		outsider := uuid.New()
		fx.events.On("GetByID", mock.Anything, event.ID).Return(event, nil)
		fx.members.On("Get", mock.Anything, event.ID, outsider).Return(nil, nil)

		_, err := fx.svc.InviteMembers(context.Background(), outsider, event.ID, []uuid.UUID{friendA})
		assert.Equal(t, "not-invited", apperr.ReasonOf(err))
	})

	t.Run("empty list", func(t *testing.T) {
		fx := newRSVPFixture(t)
		_, err := fx.svc.InviteMembers(context.Background(), inviter, event.ID, []uuid.UUID{inviter})
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})
}

func TestSetChatLastSeen(t *testing.T) {
	fx := newRSVPFixture(t)
	actor, eventID := uuid.New(), uuid.New()
	seen := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	fx.members.On("SetChatLastSeen", mock.Anything, eventID, actor, seen).Return(true, nil).Once()
	fx.members.On("SetChatLastSeen", mock.Anything, eventID, actor, seen).Return(false, nil).Once()

	require.NoError(t, fx.svc.SetChatLastSeen(context.Background(), actor, eventID, seen))

	err := fx.svc.SetChatLastSeen(context.Background(), actor, eventID, seen)
	assert.Equal(t, "membership-not-found", apperr.ReasonOf(err))
}
