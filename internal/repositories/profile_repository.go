package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"squad-service/internal/models"
)

const (
	profileID    Column = "id"
	profilePhone Column = "phone"
)

const selectProfiles = `SELECT id, phone, first_name, last_name, photo, fcm_token, enabled_notifications, trail_color FROM profiles`

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByPhone(ctx context.Context, phone string) (*models.Profile, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error)
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetByID returns nil, nil when no profile exists.
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.getOne(ctx, Eq(profileID, id))
}

func (r *profileRepository) GetByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	return r.getOne(ctx, Eq(profilePhone, phone))
}

func (r *profileRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	err := selectWhere(ctx, r.db, &profiles, selectProfiles, In(profileID, ids), "ORDER BY id")
	return profiles, err
}

func (r *profileRepository) getOne(ctx context.Context, p Predicate) (*models.Profile, error) {
	where, args, err := p.Build()
	if err != nil {
		return nil, err
	}
	var profile models.Profile
	err = r.db.GetContext(ctx, &profile, r.db.Rebind(selectProfiles+" WHERE "+where+" LIMIT 1"), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
