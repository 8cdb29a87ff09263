package services

import (
	"context"

	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/models"
	"squad-service/internal/phone"
	"squad-service/internal/redact"
	"squad-service/internal/repositories"
)

// PhoneLookup is the result of looking a phone number up. Profile is nil
// when nobody has registered the number; Invitable then tells whether a
// deferred invite can be sent.
type PhoneLookup struct {
	Phone       string                  `json:"phone"`
	Profile     *models.RedactedProfile `json:"profile,omitempty"`
	Invitable   bool                    `json:"invitable"`
	InviteCount int                     `json:"invite_count"`
}

type ProfileService struct {
	profiles repositories.ProfileRepository
	friends  repositories.FriendRepository
	invites  repositories.InviteRepository
}

func NewProfileService(profiles repositories.ProfileRepository, friends repositories.FriendRepository, invites repositories.InviteRepository) *ProfileService {
	return &ProfileService{profiles: profiles, friends: friends, invites: invites}
}

// LookupByPhone finds a profile by phone number and returns it at stranger
// tier.
func (s *ProfileService) LookupByPhone(ctx context.Context, rawPhone string) (*PhoneLookup, error) {
	normalized := phone.Normalize(rawPhone)
	if normalized == "" {
		return nil, apperr.InvalidArgument("invalid-phone", "phone number has no digits")
	}
	p, err := s.profiles.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if p != nil {
		redacted := redact.Profile(*p, redact.TierStranger)
		return &PhoneLookup{Phone: normalized, Profile: &redacted}, nil
	}

	count, err := s.invites.CountByPhone(ctx, normalized)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &PhoneLookup{Phone: normalized, Invitable: true, InviteCount: count}, nil
}

// GetProfile returns subjectID's profile redacted for viewerID. A viewer
// always sees their own profile in full.
func (s *ProfileService) GetProfile(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.RedactedProfile, error) {
	p, err := s.profiles.GetByID(ctx, subjectID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if p == nil {
		return nil, apperr.NotFound("profile-not-found", "profile not found")
	}

	tier := redact.TierFriend
	if viewerID != subjectID {
		f, err := s.friends.FindBetween(ctx, viewerID, subjectID)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		tier = redact.TierFor(f)
	}
	redacted := redact.Profile(*p, tier)
	return &redacted, nil
}
