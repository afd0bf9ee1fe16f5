package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id          UUID PRIMARY KEY,
	customer_id TEXT NOT NULL UNIQUE,
	status      TEXT NOT NULL DEFAULT 'Pending'
	            CHECK (status IN ('Pending', 'Confirmed', 'Completed')),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ,
	deleted_by  TEXT
);
CREATE INDEX IF NOT EXISTS chat_sessions_updated_idx ON chat_sessions (updated_at DESC)
	WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS chat_messages (
	seq        BIGSERIAL,
	id         UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES chat_sessions (id),
	sender     TEXT NOT NULL CHECK (sender IN ('customer', 'admin')),
	content    TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS chat_messages_session_idx ON chat_messages (session_id, sent_at, seq)
	WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS reviews (
	id         UUID PRIMARY KEY,
	rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	text       TEXT CHECK (char_length(text) <= 1000),
	approved   BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reviews_created_idx ON reviews (created_at DESC);

CREATE TABLE IF NOT EXISTS global_settings (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	theme      TEXT NOT NULL DEFAULT 'light' CHECK (theme IN ('light', 'dark', 'auto')),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// OpenPostgres opens the pool, pings it and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, 30*time.Second)
	defer cancelMigrate()
	if _, err := db.ExecContext(migrateCtx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// Pinger reports store reachability for health checks.
type Pinger interface {
	PingContext(ctx context.Context) error
}
