// Package redact projects profiles down to what a viewer may see.
package redact

import "squad-service/internal/models"

type Tier int

const (
	TierStranger Tier = iota
	TierFriend
)

func (t Tier) String() string {
	if t == TierFriend {
		return "friend"
	}
	return "stranger"
}

// TierFor derives the tier from the friendship between viewer and subject.
// A nil or declined friendship yields stranger tier.
func TierFor(f *models.Friendship) Tier {
	if f != nil && f.Active() {
		return TierFriend
	}
	return TierStranger
}

// Profile projects p to tier. Stranger tier exposes only id and first name.
func Profile(p models.Profile, tier Tier) models.RedactedProfile {
	out := models.RedactedProfile{
		ID:        p.ID,
		FirstName: p.FirstName,
	}
	if tier != TierFriend {
		return out
	}
	lastName, phone := p.LastName, p.Phone
	out.LastName = &lastName
	out.Phone = &phone
	out.Photo = p.Photo
	out.TrailColor = p.TrailColor
	return out
}
