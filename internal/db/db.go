package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// migrations are idempotent and run in order on every start.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		phone TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		photo TEXT,
		fcm_token TEXT,
		enabled_notifications TEXT[] NOT NULL DEFAULT '{}',
		trail_color TEXT
		)`,
	`CREATE TABLE IF NOT EXISTS friends (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		requester UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		requestee UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		status TEXT NOT NULL CHECK (status IN ('requested','accepted','declined')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		actioned_at TIMESTAMPTZ,
		CHECK (requester <> requestee)
		)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS friends_pair_idx
		ON friends (LEAST(requester, requestee), GREATEST(requester, requestee))`,
	`CREATE TABLE IF NOT EXISTS friend_invites (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		phone TEXT NOT NULL,
		requester UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (phone, requester)
		)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL UNIQUE
		)`,
	`CREATE TABLE IF NOT EXISTS topic_members (
		topic UUID NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		member UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		PRIMARY KEY (topic, member)
		)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		created_by UUID NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'live' CHECK (status IN ('draft','live','canceled')),
		visibility TEXT NOT NULL CHECK (visibility IN ('private','friends','public')),
		start_time_min TIMESTAMPTZ,
		start_time_max TIMESTAMPTZ,
		end_time TIMESTAMPTZ,
		topic UUID REFERENCES topics(id),
		rally_point TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	`CREATE TABLE IF NOT EXISTS event_members (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		member UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		created_by UUID NOT NULL REFERENCES profiles(id),
		status TEXT NOT NULL CHECK (status IN ('invited','maybe','yes','omw','no')),
		chat_last_seen TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (event, member)
		)`,
	`CREATE TABLE IF NOT EXISTS event_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		created_by UUID NOT NULL REFERENCES profiles(id),
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, q := range migrations {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
