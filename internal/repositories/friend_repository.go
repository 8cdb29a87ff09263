package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"squad-service/internal/models"
	"squad-service/internal/rabbitmq"
)

const (
	friendID        Column = "id"
	friendRequester Column = "requester"
	friendRequestee Column = "requestee"
	friendStatus    Column = "status"
)

const selectFriends = `SELECT id, requester, requestee, status, created_at, actioned_at FROM friends`

type FriendRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	FindBetween(ctx context.Context, userID, otherID uuid.UUID) (*models.Friendship, error)
	CountBetween(ctx context.Context, userID, otherID uuid.UUID) (int, error)
	Create(ctx context.Context, requesterID, requesteeID uuid.UUID) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.FriendStatus, actionedAt time.Time) (*models.Friendship, error)
	ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]models.Friendship, error)
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error)
	ListAcceptedTouching(ctx context.Context, userIDs []uuid.UUID) ([]models.Friendship, error)
}

type friendRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewFriendRepository(db *sqlx.DB, publisher rabbitmq.Publisher) FriendRepository {
	return &friendRepository{db: db, publisher: publisher}
}

func (r *friendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.GetContext(ctx, &f, selectFriends+` WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindBetween returns the friendship linking the pair in either direction.
func (r *friendRepository) FindBetween(ctx context.Context, userID, otherID uuid.UUID) (*models.Friendship, error) {
	var rows []models.Friendship
	if err := selectWhere(ctx, r.db, &rows, selectFriends, pairPredicate(userID, otherID), "LIMIT 1"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *friendRepository) CountBetween(ctx context.Context, userID, otherID uuid.UUID) (int, error) {
	return countWhere(ctx, r.db, "friends", pairPredicate(userID, otherID))
}

// Create inserts a requested friendship. The unique pair index turns a
// concurrent duplicate into ErrDuplicate.
func (r *friendRepository) Create(ctx context.Context, requesterID, requesteeID uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO friends (requester, requestee, status)
VALUES ($1, $2, 'requested')
RETURNING id, requester, requestee, status, created_at, actioned_at
`, requesterID, requesteeID).StructScan(&f)
	if err != nil {
		return nil, mapInsertErr(err)
	}

	r.logPublish(ctx, "friend.request.created", map[string]any{
		"friendship_id": f.ID,
		"requester":     f.RequesterID,
		"requestee":     f.RequesteeID,
		"created_at":    f.CreatedAt,
	})

	return &f, nil
}

// UpdateStatus moves a requested friendship to status. It returns nil, nil
// when the row is missing or no longer requested.
func (r *friendRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FriendStatus, actionedAt time.Time) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.QueryRowxContext(ctx, `
UPDATE friends SET status=$2, actioned_at=$3
WHERE id=$1 AND status='requested'
RETURNING id, requester, requestee, status, created_at, actioned_at
`, id, status, actionedAt).StructScan(&f)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.logPublish(ctx, "friend.request.actioned", map[string]any{
		"friendship_id": f.ID,
		"requester":     f.RequesterID,
		"requestee":     f.RequesteeID,
		"status":        f.Status,
		"actioned_at":   actionedAt,
	})

	return &f, nil
}

// ListForViewer returns accepted friendships of viewerID plus requests
// waiting on viewerID.
func (r *friendRepository) ListForViewer(ctx context.Context, viewerID uuid.UUID) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := selectWhere(ctx, r.db, &rows, selectFriends, Or(
		And(Eq(friendStatus, models.FriendStatusAccepted), Or(Eq(friendRequester, viewerID), Eq(friendRequestee, viewerID))),
		And(Eq(friendStatus, models.FriendStatusRequested), Eq(friendRequestee, viewerID)),
	), "ORDER BY created_at")
	return rows, err
}

func (r *friendRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := selectWhere(ctx, r.db, &rows, selectFriends, And(
		Eq(friendStatus, models.FriendStatusAccepted),
		Or(Eq(friendRequester, userID), Eq(friendRequestee, userID)),
	), "ORDER BY created_at")
	return rows, err
}

// ListAcceptedTouching returns accepted friendships with either endpoint in
// userIDs.
func (r *friendRepository) ListAcceptedTouching(ctx context.Context, userIDs []uuid.UUID) ([]models.Friendship, error) {
	var rows []models.Friendship
	if len(userIDs) == 0 {
		return rows, nil
	}
	err := selectWhere(ctx, r.db, &rows, selectFriends, And(
		Eq(friendStatus, models.FriendStatusAccepted),
		Or(In(friendRequester, userIDs), In(friendRequestee, userIDs)),
	), "")
	return rows, err
}

func pairPredicate(userID, otherID uuid.UUID) Predicate {
	pair := []uuid.UUID{userID, otherID}
	return And(In(friendRequester, pair), In(friendRequestee, pair))
}

func (r *friendRepository) logPublish(ctx context.Context, eventType string, payload any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, eventType, payload); err != nil {
		slog.Warn("failed to publish domain event", "event", eventType, "error", err)
	}
}
