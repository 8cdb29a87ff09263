package models

import (
	"time"

	"github.com/google/uuid"
)

type RSVPStatus string

const (
	RSVPInvited RSVPStatus = "invited"
	RSVPMaybe   RSVPStatus = "maybe"
	RSVPYes     RSVPStatus = "yes"
	RSVPOMW     RSVPStatus = "omw"
	RSVPNo      RSVPStatus = "no"
)

// AttendingStatuses are the statuses whose members follow event activity.
var AttendingStatuses = []RSVPStatus{RSVPMaybe, RSVPYes, RSVPOMW}

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPInvited, RSVPMaybe, RSVPYes, RSVPOMW, RSVPNo:
		return true
	}
	return false
}

// Membership is a member's RSVP to an event. A nil Status marks a deleted
// membership returned to the caller as a tombstone.
type Membership struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	EventID      uuid.UUID   `db:"event" json:"event"`
	MemberID     uuid.UUID   `db:"member" json:"member"`
	CreatedBy    uuid.UUID   `db:"created_by" json:"created_by"`
	Status       *RSVPStatus `db:"status" json:"status"`
	ChatLastSeen *time.Time  `db:"chat_last_seen" json:"chat_last_seen,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// EffectiveStatus treats a missing status as invited.
func (m Membership) EffectiveStatus() RSVPStatus {
	return StatusOrInvited(m.Status)
}

func StatusOrInvited(s *RSVPStatus) RSVPStatus {
	if s == nil {
		return RSVPInvited
	}
	return *s
}
