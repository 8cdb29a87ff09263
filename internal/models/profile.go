package models

import (
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type NotificationCategory string

const (
	NotifyFriendRequest         NotificationCategory = "friendRequest"
	NotifyFriendRequestAccepted NotificationCategory = "friendRequestAccepted"
	NotifyEventInvitation       NotificationCategory = "eventInvitation"
	NotifyRSVPChange            NotificationCategory = "rsvpChange"
	NotifyFriendOnTheWay        NotificationCategory = "friendOnTheWay"
	NotifyEventMessage          NotificationCategory = "eventMessage"
	NotifyEventChange           NotificationCategory = "eventChange"
	NotifyPublicEventPosted     NotificationCategory = "publicEventPosted"
	NotifyFriendsEventPosted    NotificationCategory = "friendsEventPosted"
)

type Profile struct {
	ID                   uuid.UUID      `db:"id" json:"id"`
	Phone                string         `db:"phone" json:"phone"`
	FirstName            string         `db:"first_name" json:"first_name"`
	LastName             string         `db:"last_name" json:"last_name"`
	Photo                *string        `db:"photo" json:"photo"`
	FCMToken             *string        `db:"fcm_token" json:"fcm_token"`
	EnabledNotifications pq.StringArray `db:"enabled_notifications" json:"enabled_notifications"`
	TrailColor           *string        `db:"trail_color" json:"trail_color"`
}

// PushToken returns the delivery token, or "" when the profile has none.
func (p Profile) PushToken() string {
	if p.FCMToken == nil {
		return ""
	}
	return *p.FCMToken
}

func (p Profile) NotificationEnabled(category NotificationCategory) bool {
	return slices.Contains(p.EnabledNotifications, string(category))
}

// RedactedProfile is the part of a profile another user is allowed to see.
// Fields beyond ID and FirstName are only set at friend tier.
type RedactedProfile struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   *string   `json:"last_name,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Photo      *string   `json:"photo,omitempty"`
	TrailColor *string   `json:"trail_color,omitempty"`
}

func (r RedactedProfile) DisplayName() string {
	if r.LastName == nil || *r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + *r.LastName
}
