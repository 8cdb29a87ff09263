package services

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"

	"squad-service/internal/apperr"
	"squad-service/internal/models"
	"squad-service/internal/redact"
	"squad-service/internal/repositories"
)

// GraphEntry is one counterpart in a viewer's two-hop network.
type GraphEntry struct {
	ID      uuid.UUID              `json:"id"`
	Profile models.RedactedProfile `json:"profile"`
	Mutuals []uuid.UUID            `json:"mutuals"`
}

type GraphService struct {
	profiles repositories.ProfileRepository
	friends  repositories.FriendRepository
}

func NewGraphService(profiles repositories.ProfileRepository, friends repositories.FriendRepository) *GraphService {
	return &GraphService{profiles: profiles, friends: friends}
}

// Build returns the viewer's direct friends (including incoming requests) at
// friend tier and their friends at stranger tier, each annotated with the
// direct friends they share with the viewer.
func (s *GraphService) Build(ctx context.Context, viewerID uuid.UUID) ([]GraphEntry, error) {
	direct, err := s.friends.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	friendIDs := make([]uuid.UUID, 0, len(direct))
	isFriend := make(map[uuid.UUID]bool, len(direct))
	for _, f := range direct {
		id := f.OtherEnd(viewerID)
		if id == viewerID || isFriend[id] {
			continue
		}
		isFriend[id] = true
		friendIDs = append(friendIDs, id)
	}
	if len(friendIDs) == 0 {
		return []GraphEntry{}, nil
	}

	entries := make(map[uuid.UUID]*GraphEntry, len(friendIDs))
	mutuals := make(map[uuid.UUID]map[uuid.UUID]struct{})

	friendProfiles, err := s.profiles.ListByIDs(ctx, friendIDs)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	for _, p := range friendProfiles {
		entries[p.ID] = &GraphEntry{ID: p.ID, Profile: redact.Profile(p, redact.TierFriend)}
		mutuals[p.ID] = map[uuid.UUID]struct{}{}
	}

	edges, err := s.friends.ListAcceptedTouching(ctx, friendIDs)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	var candidates []uuid.UUID
	// Only edges leaving a direct friend count; anything else is two hops
	// or more from the viewer.
	visit := func(near, far uuid.UUID) {
		if far == viewerID || !isFriend[near] {
			return
		}
		if _, ok := mutuals[far]; !ok && !isFriend[far] {
			mutuals[far] = map[uuid.UUID]struct{}{}
			candidates = append(candidates, far)
		}
		if set, ok := mutuals[far]; ok {
			set[near] = struct{}{}
		}
	}
	for _, e := range edges {
		visit(e.RequesterID, e.RequesteeID)
		visit(e.RequesteeID, e.RequesterID)
	}

	if len(candidates) > 0 {
		strangers, err := s.profiles.ListByIDs(ctx, candidates)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		for _, p := range strangers {
			entries[p.ID] = &GraphEntry{ID: p.ID, Profile: redact.Profile(p, redact.TierStranger)}
		}
	}

	out := make([]GraphEntry, 0, len(entries))
	for id, entry := range entries {
		list := make([]uuid.UUID, 0, len(mutuals[id]))
		for m := range mutuals[id] {
			list = append(list, m)
		}
		sortIDs(list)
		entry.Mutuals = list
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
}
