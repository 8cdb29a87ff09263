package models

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusDraft    EventStatus = "draft"
	EventStatusLive     EventStatus = "live"
	EventStatusCanceled EventStatus = "canceled"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityFriends Visibility = "friends"
	VisibilityPublic  Visibility = "public"
)

type Event struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	CreatedBy    uuid.UUID   `db:"created_by" json:"created_by"`
	Title        string      `db:"title" json:"title"`
	Status       EventStatus `db:"status" json:"status"`
	Visibility   Visibility  `db:"visibility" json:"visibility"`
	StartTimeMin *time.Time  `db:"start_time_min" json:"start_time_min"`
	StartTimeMax *time.Time  `db:"start_time_max" json:"start_time_max"`
	EndTime      *time.Time  `db:"end_time" json:"end_time"`
	TopicID      *uuid.UUID  `db:"topic" json:"topic"`
	RallyPoint   *string     `db:"rally_point" json:"rally_point"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

type Topic struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

type EventMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventID   uuid.UUID `db:"event" json:"event"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
