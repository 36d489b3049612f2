package database

import (
	"context"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS analysis_history (
	id uuid PRIMARY KEY,
	url text NOT NULL,
	make text NOT NULL,
	model text NOT NULL,
	year int NOT NULL,
	price int NOT NULL,
	mileage int NOT NULL,
	deal_score int NOT NULL,
	recommendation text NOT NULL,
	listing_source text,
	analysis jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS analysis_history_created_idx
	ON analysis_history (created_at DESC);

CREATE INDEX IF NOT EXISTS analysis_history_vehicle_idx
	ON analysis_history (lower(make), lower(model));

CREATE TABLE IF NOT EXISTS outbox_event (
	id uuid PRIMARY KEY,
	aggregate_type text NOT NULL,
	aggregate_id text NOT NULL,
	event_type text NOT NULL,
	payload jsonb NOT NULL,
	target_stream text NOT NULL,
	status text NOT NULL DEFAULT 'pending',
	retry_count int NOT NULL DEFAULT 0,
	error_message text,
	created_at timestamptz NOT NULL DEFAULT now(),
	processed_at timestamptz,
	next_retry_at timestamptz
);

CREATE INDEX IF NOT EXISTS outbox_event_pending_idx
	ON outbox_event (status, next_retry_at);
`

// EnsureSchema creates the history and outbox tables when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
