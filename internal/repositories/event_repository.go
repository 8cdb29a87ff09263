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
	topicMemberTopic  Column = "tm.topic"
	topicMemberMember Column = "tm.member"
)

type EventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

type TopicRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	ListSubscribers(ctx context.Context, topicID uuid.UUID, exclude []uuid.UUID) ([]models.Profile, error)
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.GetContext(ctx, &event, `
SELECT id, created_by, title, status, visibility, start_time_min, start_time_max,
       end_time, topic, rally_point, created_at
FROM events WHERE id=$1
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

type topicRepository struct {
	db *sqlx.DB
}

func NewTopicRepository(db *sqlx.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	var topic models.Topic
	err := r.db.GetContext(ctx, &topic, `SELECT id, name FROM topics WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// ListSubscribers returns the profiles subscribed to topicID, minus exclude.
func (r *topicRepository) ListSubscribers(ctx context.Context, topicID uuid.UUID, exclude []uuid.UUID) ([]models.Profile, error) {
	var profiles []models.Profile
	err := selectWhere(ctx, r.db, &profiles, `
SELECT p.id, p.phone, p.first_name, p.last_name, p.photo, p.fcm_token, p.enabled_notifications, p.trail_color
FROM topic_members tm JOIN profiles p ON p.id = tm.member`,
		And(Eq(topicMemberTopic, topicID), NotIn(topicMemberMember, exclude)),
		"ORDER BY p.id")
	return profiles, err
}
