package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"squad-service/internal/models"
)

const invitePhone Column = "phone"

type InviteRepository interface {
	Upsert(ctx context.Context, phone string, requesterID uuid.UUID) (*models.FriendInvite, error)
	ListByPhone(ctx context.Context, phone string) ([]models.FriendInvite, error)
	CountByPhone(ctx context.Context, phone string) (int, error)
	DeleteByPhone(ctx context.Context, phone string) error
}

type inviteRepository struct {
	db *sqlx.DB
}

func NewInviteRepository(db *sqlx.DB) InviteRepository {
	return &inviteRepository{db: db}
}

// Upsert records a deferred invite. Repeating it for the same requester and
// phone returns the existing row.
func (r *inviteRepository) Upsert(ctx context.Context, phone string, requesterID uuid.UUID) (*models.FriendInvite, error) {
	var inv models.FriendInvite
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO friend_invites (phone, requester)
VALUES ($1, $2)
ON CONFLICT (phone, requester) DO UPDATE SET phone=EXCLUDED.phone
RETURNING id, phone, requester, created_at
`, phone, requesterID).StructScan(&inv)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inviteRepository) ListByPhone(ctx context.Context, phone string) ([]models.FriendInvite, error) {
	var invites []models.FriendInvite
	err := selectWhere(ctx, r.db, &invites,
		`SELECT id, phone, requester, created_at FROM friend_invites`,
		Eq(invitePhone, phone), "ORDER BY created_at")
	return invites, err
}

func (r *inviteRepository) CountByPhone(ctx context.Context, phone string) (int, error) {
	return countWhere(ctx, r.db, "friend_invites", Eq(invitePhone, phone))
}

func (r *inviteRepository) DeleteByPhone(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM friend_invites WHERE phone=$1`, phone)
	return err
}
