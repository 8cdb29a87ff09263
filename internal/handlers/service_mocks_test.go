package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"squad-service/internal/feed"
	"squad-service/internal/models"
	"squad-service/internal/services"
)

type mockFriendService struct {
	mock.Mock
}

func (m *mockFriendService) RequestFriendship(ctx context.Context, requesterID uuid.UUID, phone string, invite bool) (*services.FriendRequestResult, error) {
	args := m.Called(ctx, requesterID, phone, invite)
	var res *services.FriendRequestResult
	if val := args.Get(0); val != nil {
		res = val.(*services.FriendRequestResult)
	}
	return res, args.Error(1)
}

func (m *mockFriendService) ActionFriendship(ctx context.Context, actorID, friendshipID uuid.UUID, decision models.FriendStatus) (*models.Friendship, error) {
	args := m.Called(ctx, actorID, friendshipID, decision)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

type mockGraph struct {
	mock.Mock
}

func (m *mockGraph) Build(ctx context.Context, viewerID uuid.UUID) ([]services.GraphEntry, error) {
	args := m.Called(ctx, viewerID)
	var out []services.GraphEntry
	if val := args.Get(0); val != nil {
		out = val.([]services.GraphEntry)
	}
	return out, args.Error(1)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) LookupByPhone(ctx context.Context, rawPhone string) (*services.PhoneLookup, error) {
	args := m.Called(ctx, rawPhone)
	var res *services.PhoneLookup
	if val := args.Get(0); val != nil {
		res = val.(*services.PhoneLookup)
	}
	return res, args.Error(1)
}

func (m *mockProfileService) GetProfile(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.RedactedProfile, error) {
	args := m.Called(ctx, viewerID, subjectID)
	var p *models.RedactedProfile
	if val := args.Get(0); val != nil {
		p = val.(*models.RedactedProfile)
	}
	return p, args.Error(1)
}

type mockRSVPService struct {
	mock.Mock
}

func (m *mockRSVPService) SetStatus(ctx context.Context, actorID, eventID uuid.UUID, status *models.RSVPStatus) (*models.Membership, error) {
	args := m.Called(ctx, actorID, eventID, status)
	var ms *models.Membership
	if val := args.Get(0); val != nil {
		ms = val.(*models.Membership)
	}
	return ms, args.Error(1)
}

func (m *mockRSVPService) InviteMembers(ctx context.Context, actorID, eventID uuid.UUID, memberIDs []uuid.UUID) ([]models.Membership, error) {
	args := m.Called(ctx, actorID, eventID, memberIDs)
	var out []models.Membership
	if val := args.Get(0); val != nil {
		out = val.([]models.Membership)
	}
	return out, args.Error(1)
}

func (m *mockRSVPService) SetChatLastSeen(ctx context.Context, actorID, eventID uuid.UUID, seenAt time.Time) error {
	return m.Called(ctx, actorID, eventID, seenAt).Error(0)
}

type mockChangeRouter struct {
	mock.Mock
}

func (m *mockChangeRouter) Handle(ctx context.Context, c feed.Change) error {
	return m.Called(ctx, c).Error(0)
}

var (
	_ FriendService  = (*mockFriendService)(nil)
	_ GraphBuilder   = (*mockGraph)(nil)
	_ ProfileService = (*mockProfileService)(nil)
	_ RSVPService    = (*mockRSVPService)(nil)
	_ ChangeRouter   = (*mockChangeRouter)(nil)
)
