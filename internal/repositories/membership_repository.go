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
	memberEvent  Column = "em.event"
	memberMember Column = "em.member"
	memberStatus Column = "em.status"
)

const selectMembers = `SELECT em.id, em.event, em.member, em.created_by, em.status, em.chat_last_seen, em.created_at FROM event_members em`

const memberReturning = `RETURNING id, event, member, created_by, status, chat_last_seen, created_at`

type MembershipRepository interface {
	Get(ctx context.Context, eventID, memberID uuid.UUID) (*models.Membership, error)
	ListByMembers(ctx context.Context, eventID uuid.UUID, memberIDs []uuid.UUID) ([]models.Membership, error)
	ListMemberIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	ListMemberProfiles(ctx context.Context, eventID uuid.UUID, statuses []models.RSVPStatus, exclude []uuid.UUID) ([]models.Profile, error)
	Create(ctx context.Context, m models.Membership) (*models.Membership, error)
	CreateMany(ctx context.Context, ms []models.Membership) ([]models.Membership, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RSVPStatus) (*models.Membership, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	SetChatLastSeen(ctx context.Context, eventID, memberID uuid.UUID, seenAt time.Time) (bool, error)
}

type membershipRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewMembershipRepository(db *sqlx.DB, publisher rabbitmq.Publisher) MembershipRepository {
	return &membershipRepository{db: db, publisher: publisher}
}

func (r *membershipRepository) Get(ctx context.Context, eventID, memberID uuid.UUID) (*models.Membership, error) {
	var rows []models.Membership
	err := selectWhere(ctx, r.db, &rows, selectMembers,
		And(Eq(memberEvent, eventID), Eq(memberMember, memberID)), "LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *membershipRepository) ListByMembers(ctx context.Context, eventID uuid.UUID, memberIDs []uuid.UUID) ([]models.Membership, error) {
	var rows []models.Membership
	err := selectWhere(ctx, r.db, &rows, selectMembers,
		And(Eq(memberEvent, eventID), In(memberMember, memberIDs)), "")
	return rows, err
}

func (r *membershipRepository) ListMemberIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `SELECT member FROM event_members WHERE event=$1`, eventID)
	return ids, err
}

// ListMemberProfiles returns profiles of members whose status is one of
// statuses, minus exclude. A nil statuses slice matches every status.
func (r *membershipRepository) ListMemberProfiles(ctx context.Context, eventID uuid.UUID, statuses []models.RSVPStatus, exclude []uuid.UUID) ([]models.Profile, error) {
	preds := []Predicate{Eq(memberEvent, eventID), NotIn(memberMember, exclude)}
	if statuses != nil {
		preds = append(preds, In(memberStatus, statuses))
	}
	var profiles []models.Profile
	err := selectWhere(ctx, r.db, &profiles, `
SELECT p.id, p.phone, p.first_name, p.last_name, p.photo, p.fcm_token, p.enabled_notifications, p.trail_color
FROM event_members em JOIN profiles p ON p.id = em.member`,
		And(preds...), "ORDER BY p.id")
	return profiles, err
}

func (r *membershipRepository) Create(ctx context.Context, m models.Membership) (*models.Membership, error) {
	var created models.Membership
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO event_members (event, member, created_by, status)
VALUES ($1, $2, $3, $4)
`+memberReturning, m.EventID, m.MemberID, m.CreatedBy, models.StatusOrInvited(m.Status)).StructScan(&created)
	if err != nil {
		return nil, mapInsertErr(err)
	}
	r.publishChange(ctx, "rsvp.created", &created)
	return &created, nil
}

// CreateMany inserts all memberships in one transaction.
func (r *membershipRepository) CreateMany(ctx context.Context, ms []models.Membership) ([]models.Membership, error) {
	created := make([]models.Membership, 0, len(ms))
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, m := range ms {
			var row models.Membership
			if err := tx.QueryRowxContext(ctx, `
INSERT INTO event_members (event, member, created_by, status)
VALUES ($1, $2, $3, $4)
`+memberReturning, m.EventID, m.MemberID, m.CreatedBy, models.StatusOrInvited(m.Status)).StructScan(&row); err != nil {
				return mapInsertErr(err)
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range created {
		r.publishChange(ctx, "rsvp.created", &created[i])
	}
	return created, nil
}

func (r *membershipRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RSVPStatus) (*models.Membership, error) {
	var m models.Membership
	err := r.db.QueryRowxContext(ctx, `UPDATE event_members SET status=$2 WHERE id=$1 `+memberReturning, id, status).StructScan(&m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.publishChange(ctx, "rsvp.updated", &m)
	return &m, nil
}

// Delete removes the membership and returns the deleted row, or nil, nil
// when it was already gone.
func (r *membershipRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.db.QueryRowxContext(ctx, `DELETE FROM event_members WHERE id=$1 `+memberReturning, id).StructScan(&m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.publishChange(ctx, "rsvp.deleted", &m)
	return &m, nil
}

func (r *membershipRepository) SetChatLastSeen(ctx context.Context, eventID, memberID uuid.UUID, seenAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE event_members SET chat_last_seen=$3
WHERE event=$1 AND member=$2
`, eventID, memberID, seenAt)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *membershipRepository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *membershipRepository) publishChange(ctx context.Context, eventType string, m *models.Membership) {
	if r.publisher == nil {
		return
	}
	payload := map[string]any{
		"membership_id": m.ID,
		"event":         m.EventID,
		"member":        m.MemberID,
		"created_by":    m.CreatedBy,
		"status":        m.Status,
	}
	if err := r.publisher.Publish(ctx, eventType, payload); err != nil {
		slog.Warn("failed to publish domain event", "event", eventType, "error", err)
	}
}
