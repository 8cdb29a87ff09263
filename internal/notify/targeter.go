package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/models"
	"squad-service/internal/redact"
	"squad-service/internal/repositories"
)

const maxMessagePreview = 140

const (
	WorkflowFriendRequest   = "friend-request-received"
	WorkflowFriendAccepted  = "friend-request-accepted"
	WorkflowFriendInviteSMS = "friend-invite-sms"
	WorkflowEventInvitation = "event-invitation"
	WorkflowRSVPChange      = "rsvp-changed"
	WorkflowFriendOMW       = "friend-on-the-way"
	WorkflowEventMessage    = "event-message"
	WorkflowEventPosted     = "event-posted"
	WorkflowRallyPoint      = "rally-point-updated"
	WorkflowEventEnded      = "event-ended"
	WorkflowEventCanceled   = "event-canceled"
	WorkflowEventUncanceled = "event-uncanceled"
)

// Targeter computes the recipient set of each notification workflow and
// hands it to the Dispatcher.
type Targeter struct {
	profiles repositories.ProfileRepository
	friends  repositories.FriendRepository
	events   repositories.EventRepository
	members  repositories.MembershipRepository
	topics   repositories.TopicRepository
	dispatch *Dispatcher
	appURL   string
	logger   *slog.Logger
}

func NewTargeter(
	profiles repositories.ProfileRepository,
	friends repositories.FriendRepository,
	events repositories.EventRepository,
	members repositories.MembershipRepository,
	topics repositories.TopicRepository,
	dispatch *Dispatcher,
	appURL string,
	logger *slog.Logger,
) *Targeter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Targeter{
		profiles: profiles,
		friends:  friends,
		events:   events,
		members:  members,
		topics:   topics,
		dispatch: dispatch,
		appURL:   strings.TrimSuffix(appURL, "/"),
		logger:   logger.With("component", "targeter"),
	}
}

// FriendRequestSent notifies the requestee of a new request.
func (t *Targeter) FriendRequestSent(ctx context.Context, f models.Friendship) {
	requester, requestee, err := t.pair(ctx, f.RequesterID, f.RequesteeID)
	if err != nil || requester == nil || requestee == nil {
		t.skip(WorkflowFriendRequest, err)
		return
	}
	name := redact.Profile(*requester, redact.TierFriend).DisplayName()
	t.dispatch.Notify(ctx, WorkflowFriendRequest, models.NotifyFriendRequest, []models.Profile{*requestee}, func(models.Profile) Message {
		return Message{
			Type:        WorkflowFriendRequest,
			Title:       "New friend request!",
			Body:        name + " wants to be your friend",
			URL:         t.appURL + "/#/friends",
			CollapseKey: WorkflowFriendRequest,
			Payload:     map[string]any{"friendship": f},
		}
	})
}

// FriendRequestAccepted notifies the requester that the requestee accepted.
func (t *Targeter) FriendRequestAccepted(ctx context.Context, f models.Friendship) {
	requester, requestee, err := t.pair(ctx, f.RequesterID, f.RequesteeID)
	if err != nil || requester == nil || requestee == nil {
		t.skip(WorkflowFriendAccepted, err)
		return
	}
	name := redact.Profile(*requestee, redact.TierFriend).DisplayName()
	t.dispatch.Notify(ctx, WorkflowFriendAccepted, models.NotifyFriendRequestAccepted, []models.Profile{*requester}, func(models.Profile) Message {
		return Message{
			Type:        WorkflowFriendAccepted,
			Title:       "Friend request accepted",
			Body:        name + " accepted your friend request",
			URL:         t.appURL + "/#/friends",
			CollapseKey: WorkflowFriendAccepted,
			Payload:     map[string]any{"friendship": f},
		}
	})
}

// InviteSent texts a phone number that has no profile yet.
func (t *Targeter) InviteSent(ctx context.Context, invite models.FriendInvite) {
	requester, err := t.profiles.GetByID(ctx, invite.RequesterID)
	if err != nil || requester == nil {
		t.skip(WorkflowFriendInviteSMS, err)
		return
	}
	name := redact.Profile(*requester, redact.TierFriend).DisplayName()
	body := fmt.Sprintf("%s wants to be your friend on Squad. Sign up to connect: %s", name, t.appURL)
	t.dispatch.SendSMS(ctx, WorkflowFriendInviteSMS, invite.Phone, body)
}

// MembersInvited notifies each new invitee. Invitees are friends of the
// inviter, so the inviter is shown at friend tier.
func (t *Targeter) MembersInvited(ctx context.Context, event models.Event, invitations []models.Membership, inviterID uuid.UUID) {
	if len(invitations) == 0 {
		return
	}
	inviter, err := t.profiles.GetByID(ctx, inviterID)
	if err != nil || inviter == nil {
		t.skip(WorkflowEventInvitation, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(invitations))
	for _, m := range invitations {
		ids = append(ids, m.MemberID)
	}
	invitees, err := t.profiles.ListByIDs(ctx, ids)
	if err != nil {
		t.skip(WorkflowEventInvitation, err)
		return
	}
	name := redact.Profile(*inviter, redact.TierFriend).DisplayName()
	t.dispatch.Notify(ctx, WorkflowEventInvitation, models.NotifyEventInvitation, invitees, func(models.Profile) Message {
		return Message{
			Type:        WorkflowEventInvitation,
			Title:       event.Title,
			Body:        name + " invited you to an event",
			URL:         t.eventURL(event.ID),
			CollapseKey: WorkflowEventInvitation,
			Payload:     map[string]any{"event": event},
		}
	})
}

// RSVPChanged notifies the creator of any change by someone else and, when
// the new status is omw, the other attending members.
func (t *Targeter) RSVPChanged(ctx context.Context, event models.Event, m models.Membership, previous *models.RSVPStatus, actorID uuid.UUID) {
	actor, err := t.profiles.GetByID(ctx, actorID)
	if err != nil || actor == nil {
		t.skip(WorkflowRSVPChange, err)
		return
	}
	linked, err := t.linkedIDs(ctx, actorID)
	if err != nil {
		t.skip(WorkflowRSVPChange, err)
		return
	}
	build := func(workflow string, body func(name string) string) func(models.Profile) Message {
		return func(p models.Profile) Message {
			name := redact.Profile(*actor, tierFrom(linked, p.ID)).DisplayName()
			return Message{
				Type:        workflow,
				Title:       event.Title,
				Body:        body(name),
				URL:         t.eventURL(event.ID),
				CollapseKey: workflow + "-" + event.ID.String(),
				Payload:     map[string]any{"membership": m},
			}
		}
	}

	if event.CreatedBy != actorID {
		creator, err := t.profiles.GetByID(ctx, event.CreatedBy)
		if err != nil {
			t.skip(WorkflowRSVPChange, err)
		} else if creator != nil {
			t.dispatch.Notify(ctx, WorkflowRSVPChange, models.NotifyRSVPChange, []models.Profile{*creator},
				build(WorkflowRSVPChange, func(name string) string { return rsvpBody(name, previous, m.Status) }))
		}
	}

	if m.Status == nil || *m.Status != models.RSVPOMW {
		return
	}
	others, err := t.members.ListMemberProfiles(ctx, event.ID, models.AttendingStatuses, []uuid.UUID{event.CreatedBy, actorID})
	if err != nil {
		t.skip(WorkflowFriendOMW, err)
		return
	}
	t.dispatch.Notify(ctx, WorkflowFriendOMW, models.NotifyFriendOnTheWay, others,
		build(WorkflowFriendOMW, func(name string) string { return name + " is on their way" }))
}

// EventMessagePosted notifies attending members other than the sender.
func (t *Targeter) EventMessagePosted(ctx context.Context, msg models.EventMessage) error {
	event, err := t.events.GetByID(ctx, msg.EventID)
	if err != nil {
		return apperr.Storage(err)
	}
	sender, err := t.profiles.GetByID(ctx, msg.CreatedBy)
	if err != nil {
		return apperr.Storage(err)
	}
	if event == nil || sender == nil {
		t.logger.Warn("skipping message notification; event or sender missing", "message", msg.ID)
		return nil
	}
	linked, err := t.linkedIDs(ctx, sender.ID)
	if err != nil {
		return apperr.Storage(err)
	}
	recipients, err := t.members.ListMemberProfiles(ctx, event.ID, models.AttendingStatuses, []uuid.UUID{sender.ID})
	if err != nil {
		return apperr.Storage(err)
	}

	preview := truncate(msg.Content, maxMessagePreview)
	t.dispatch.Notify(ctx, WorkflowEventMessage, models.NotifyEventMessage, recipients, func(p models.Profile) Message {
		name := redact.Profile(*sender, tierFrom(linked, p.ID)).DisplayName()
		return Message{
			Type:        WorkflowEventMessage,
			Title:       event.Title,
			Body:        name + ": " + preview,
			URL:         t.eventURL(event.ID),
			CollapseKey: WorkflowEventMessage + "-" + event.ID.String(),
			Payload:     map[string]any{"eventMessage": msg},
		}
	})
	return nil
}

// EventPosted announces a live, non-private event to its topic's
// subscribers when it is created or moved to a different topic.
func (t *Targeter) EventPosted(ctx context.Context, old *models.Event, event models.Event) error {
	if old != nil && uuidPtrEqual(old.TopicID, event.TopicID) {
		return nil
	}
	if event.TopicID == nil || event.Visibility == models.VisibilityPrivate || event.Status != models.EventStatusLive {
		return nil
	}

	topic, err := t.topics.GetByID(ctx, *event.TopicID)
	if err != nil {
		return apperr.Storage(err)
	}
	if topic == nil {
		return nil
	}

	exclude, err := t.members.ListMemberIDs(ctx, event.ID)
	if err != nil {
		return apperr.Storage(err)
	}
	exclude = append(exclude, event.CreatedBy)
	subscribers, err := t.topics.ListSubscribers(ctx, topic.ID, exclude)
	if err != nil {
		return apperr.Storage(err)
	}

	category, label := models.NotifyPublicEventPosted, "Public"
	if event.Visibility == models.VisibilityFriends {
		category, label = models.NotifyFriendsEventPosted, "Friends-only"
		accepted, err := t.friends.ListAccepted(ctx, event.CreatedBy)
		if err != nil {
			return apperr.Storage(err)
		}
		friendIDs := make(map[uuid.UUID]struct{}, len(accepted))
		for _, f := range accepted {
			friendIDs[f.OtherEnd(event.CreatedBy)] = struct{}{}
		}
		filtered := subscribers[:0]
		for _, p := range subscribers {
			if _, ok := friendIDs[p.ID]; ok {
				filtered = append(filtered, p)
			}
		}
		subscribers = filtered
	}

	t.logger.Info("announcing event to topic", "event", event.ID, "topic", topic.Name, "candidates", len(subscribers))
	body := fmt.Sprintf("%s event posted to %s", label, topic.Name)
	t.dispatch.Notify(ctx, WorkflowEventPosted, category, subscribers, func(models.Profile) Message {
		return Message{
			Type:        WorkflowEventPosted,
			Title:       event.Title,
			Body:        body,
			URL:         t.eventURL(event.ID),
			CollapseKey: WorkflowEventPosted,
			Payload:     map[string]any{"event": event},
		}
	})
	return nil
}

type fieldChange struct {
	workflow string
	body     string
}

// EventChanged notifies attending members, except the creator, about rally
// point, end time and cancel/uncancel transitions between two snapshots.
func (t *Targeter) EventChanged(ctx context.Context, old *models.Event, event models.Event) error {
	if old == nil {
		return nil
	}

	var changes []fieldChange
	if !stringPtrEqual(old.RallyPoint, event.RallyPoint) {
		body := "Rally point updated"
		if event.RallyPoint == nil || *event.RallyPoint == "" {
			body = "Rally point cleared"
		}
		changes = append(changes, fieldChange{WorkflowRallyPoint, body})
	}
	if event.EndTime != nil && !timePtrEqual(old.EndTime, event.EndTime) {
		changes = append(changes, fieldChange{WorkflowEventEnded, "Event ended"})
	}
	if old.Status != event.Status {
		switch {
		case event.Status == models.EventStatusCanceled:
			changes = append(changes, fieldChange{WorkflowEventCanceled, "Event canceled"})
		case old.Status == models.EventStatusCanceled:
			changes = append(changes, fieldChange{WorkflowEventUncanceled, "Event uncanceled"})
		}
	}
	if len(changes) == 0 {
		return nil
	}

	recipients, err := t.members.ListMemberProfiles(ctx, event.ID, models.AttendingStatuses, []uuid.UUID{event.CreatedBy})
	if err != nil {
		return apperr.Storage(err)
	}
	for _, change := range changes {
		t.dispatch.Notify(ctx, change.workflow, models.NotifyEventChange, recipients, func(models.Profile) Message {
			return Message{
				Type:        change.workflow,
				Title:       event.Title,
				Body:        change.body,
				URL:         t.eventURL(event.ID),
				CollapseKey: change.workflow,
				Payload:     map[string]any{"event": event},
			}
		})
	}
	return nil
}

func (t *Targeter) pair(ctx context.Context, a, b uuid.UUID) (*models.Profile, *models.Profile, error) {
	profiles, err := t.profiles.ListByIDs(ctx, []uuid.UUID{a, b})
	if err != nil {
		return nil, nil, err
	}
	var pa, pb *models.Profile
	for i := range profiles {
		switch profiles[i].ID {
		case a:
			pa = &profiles[i]
		case b:
			pb = &profiles[i]
		}
	}
	return pa, pb, nil
}

// linkedIDs returns everyone with an accepted friendship with userID or a
// request pending on userID.
func (t *Targeter) linkedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := t.friends.ListForViewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]struct{}, len(rows))
	for _, f := range rows {
		ids[f.OtherEnd(userID)] = struct{}{}
	}
	return ids, nil
}

func (t *Targeter) skip(workflow string, err error) {
	if err != nil {
		t.logger.Warn("skipping notification", "workflow", workflow, "error", err)
		return
	}
	t.logger.Warn("skipping notification; profile missing", "workflow", workflow)
}

func (t *Targeter) eventURL(id uuid.UUID) string {
	return t.appURL + "/events/" + id.String()
}

func tierFrom(linked map[uuid.UUID]struct{}, id uuid.UUID) redact.Tier {
	if _, ok := linked[id]; ok {
		return redact.TierFriend
	}
	return redact.TierStranger
}

func rsvpBody(name string, previous, next *models.RSVPStatus) string {
	switch {
	case next == nil:
		return name + " removed their RSVP"
	case previous == nil:
		return fmt.Sprintf("%s RSVPed %s", name, *next)
	default:
		return fmt.Sprintf("%s changed status %s from %s", name, *next, *previous)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
