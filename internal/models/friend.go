package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendStatus string

const (
	FriendStatusRequested FriendStatus = "requested"
	FriendStatusAccepted  FriendStatus = "accepted"
	FriendStatusDeclined  FriendStatus = "declined"
)

// Friendship links two profiles. At most one row exists per unordered pair.
type Friendship struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	RequesterID uuid.UUID    `db:"requester" json:"requester"`
	RequesteeID uuid.UUID    `db:"requestee" json:"requestee"`
	Status      FriendStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	ActionedAt  *time.Time   `db:"actioned_at" json:"actioned_at,omitempty"`
}

// OtherEnd returns the endpoint that is not id.
func (f Friendship) OtherEnd(id uuid.UUID) uuid.UUID {
	if f.RequesterID == id {
		return f.RequesteeID
	}
	return f.RequesterID
}

// Active reports whether the friendship is accepted or still pending.
func (f Friendship) Active() bool {
	return f.Status == FriendStatusAccepted || f.Status == FriendStatusRequested
}

// FriendInvite is a friend request recorded against a phone number that has
// no profile yet.
type FriendInvite struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Phone       string    `db:"phone" json:"phone"`
	RequesterID uuid.UUID `db:"requester" json:"requester"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
