package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"squad-service/internal/models"
	"squad-service/internal/rabbitmq"
	"squad-service/internal/repositories"
)

// MockProfileRepository mocks ProfileRepository behavior for services and the targeter.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	var p *models.Profile
	if val := args.Get(0); val != nil {
		p = val.(*models.Profile)
	}
	return p, args.Error(1)
}

func (m *MockProfileRepository) GetByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	args := m.Called(ctx, phone)
	var p *models.Profile
	if val := args.Get(0); val != nil {
		p = val.(*models.Profile)
	}
	return p, args.Error(1)
}

func (m *MockProfileRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var ps []models.Profile
	if val := args.Get(0); val != nil {
		ps = val.([]models.Profile)
	}
	return ps, args.Error(1)
}

// MockFriendRepository mocks FriendRepository behavior for services and the targeter.
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	args := m.Called(ctx, id)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) FindBetween(ctx context.Context, userID, otherID uuid.UUID) (*models.Friendship, error) {
	args := m.Called(ctx, userID, otherID)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) CountBetween(ctx context.Context, userID, otherID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Int(0), args.Error(1)
}

func (m *MockFriendRepository) Create(ctx context.Context, requesterID, requesteeID uuid.UUID) (*models.Friendship, error) {
	args := m.Called(ctx, requesterID, requesteeID)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FriendStatus, actionedAt time.Time) (*models.Friendship, error) {
	args := m.Called(ctx, id, status, actionedAt)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]models.Friendship, error) {
	args := m.Called(ctx, viewerID)
	return friendships(args.Get(0)), args.Error(1)
}

func (m *MockFriendRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	return friendships(args.Get(0)), args.Error(1)
}

func (m *MockFriendRepository) ListAcceptedTouching(ctx context.Context, userIDs []uuid.UUID) ([]models.Friendship, error) {
	args := m.Called(ctx, userIDs)
	return friendships(args.Get(0)), args.Error(1)
}

func friendships(val any) []models.Friendship {
	if val == nil {
		return nil
	}
	return val.([]models.Friendship)
}

// MockInviteRepository mocks the deferred invite store.
type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Upsert(ctx context.Context, phone string, requesterID uuid.UUID) (*models.FriendInvite, error) {
	args := m.Called(ctx, phone, requesterID)
	var inv *models.FriendInvite
	if val := args.Get(0); val != nil {
		inv = val.(*models.FriendInvite)
	}
	return inv, args.Error(1)
}

func (m *MockInviteRepository) ListByPhone(ctx context.Context, phone string) ([]models.FriendInvite, error) {
	args := m.Called(ctx, phone)
	var invs []models.FriendInvite
	if val := args.Get(0); val != nil {
		invs = val.([]models.FriendInvite)
	}
	return invs, args.Error(1)
}

func (m *MockInviteRepository) CountByPhone(ctx context.Context, phone string) (int, error) {
	args := m.Called(ctx, phone)
	return args.Int(0), args.Error(1)
}

func (m *MockInviteRepository) DeleteByPhone(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	var e *models.Event
	if val := args.Get(0); val != nil {
		e = val.(*models.Event)
	}
	return e, args.Error(1)
}

type MockTopicRepository struct {
	mock.Mock
}

func (m *MockTopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	args := m.Called(ctx, id)
	var t *models.Topic
	if val := args.Get(0); val != nil {
		t = val.(*models.Topic)
	}
	return t, args.Error(1)
}

func (m *MockTopicRepository) ListSubscribers(ctx context.Context, topicID uuid.UUID, exclude []uuid.UUID) ([]models.Profile, error) {
	args := m.Called(ctx, topicID, exclude)
	var ps []models.Profile
	if val := args.Get(0); val != nil {
		ps = val.([]models.Profile)
	}
	return ps, args.Error(1)
}

// MockMembershipRepository mocks event membership storage.
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Get(ctx context.Context, eventID, memberID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, eventID, memberID)
	return membership(args.Get(0)), args.Error(1)
}

func (m *MockMembershipRepository) ListByMembers(ctx context.Context, eventID uuid.UUID, memberIDs []uuid.UUID) ([]models.Membership, error) {
	args := m.Called(ctx, eventID, memberIDs)
	return memberships(args.Get(0)), args.Error(1)
}

func (m *MockMembershipRepository) ListMemberIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, eventID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *MockMembershipRepository) ListMemberProfiles(ctx context.Context, eventID uuid.UUID, statuses []models.RSVPStatus, exclude []uuid.UUID) ([]models.Profile, error) {
	args := m.Called(ctx, eventID, statuses, exclude)
	var ps []models.Profile
	if val := args.Get(0); val != nil {
		ps = val.([]models.Profile)
	}
	return ps, args.Error(1)
}

func (m *MockMembershipRepository) Create(ctx context.Context, ms models.Membership) (*models.Membership, error) {
	args := m.Called(ctx, ms)
	return membership(args.Get(0)), args.Error(1)
}

func (m *MockMembershipRepository) CreateMany(ctx context.Context, ms []models.Membership) ([]models.Membership, error) {
	args := m.Called(ctx, ms)
	return memberships(args.Get(0)), args.Error(1)
}

func (m *MockMembershipRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RSVPStatus) (*models.Membership, error) {
	args := m.Called(ctx, id, status)
	return membership(args.Get(0)), args.Error(1)
}

func (m *MockMembershipRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, id)
	return membership(args.Get(0)), args.Error(1)
}

func (m *MockMembershipRepository) SetChatLastSeen(ctx context.Context, eventID, memberID uuid.UUID, seenAt time.Time) (bool, error) {
	args := m.Called(ctx, eventID, memberID, seenAt)
	return args.Bool(0), args.Error(1)
}

func membership(val any) *models.Membership {
	if val == nil {
		return nil
	}
	return val.(*models.Membership)
}

func memberships(val any) []models.Membership {
	if val == nil {
		return nil
	}
	return val.([]models.Membership)
}

// MockPublisher mocks RabbitMQ publisher behavior for telemetry and repositories.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockFriendNotifier records friendship notifications.
type MockFriendNotifier struct {
	mock.Mock
}

func (m *MockFriendNotifier) FriendRequestSent(ctx context.Context, f models.Friendship) {
	m.Called(ctx, f)
}

func (m *MockFriendNotifier) FriendRequestAccepted(ctx context.Context, f models.Friendship) {
	m.Called(ctx, f)
}

func (m *MockFriendNotifier) InviteSent(ctx context.Context, invite models.FriendInvite) {
	m.Called(ctx, invite)
}

// MockEventNotifier records membership notifications.
type MockEventNotifier struct {
	mock.Mock
}

func (m *MockEventNotifier) MembersInvited(ctx context.Context, event models.Event, invitations []models.Membership, inviterID uuid.UUID) {
	m.Called(ctx, event, invitations, inviterID)
}

func (m *MockEventNotifier) RSVPChanged(ctx context.Context, event models.Event, ms models.Membership, previous *models.RSVPStatus, actorID uuid.UUID) {
	m.Called(ctx, event, ms, previous, actorID)
}

// Compile-time assertions
var (
	_ repositories.ProfileRepository    = (*MockProfileRepository)(nil)
	_ repositories.FriendRepository     = (*MockFriendRepository)(nil)
	_ repositories.InviteRepository     = (*MockInviteRepository)(nil)
	_ repositories.EventRepository      = (*MockEventRepository)(nil)
	_ repositories.TopicRepository      = (*MockTopicRepository)(nil)
	_ repositories.MembershipRepository = (*MockMembershipRepository)(nil)
	_ rabbitmq.Publisher                = (*MockPublisher)(nil)
)
