package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full DDL for the registration engine. The CHECK
// constraints are a database-level backstop for the counter invariants;
// application code must never rely on them firing.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_types (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id),
	name TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL DEFAULT 0,
	current_quantity INTEGER NOT NULL DEFAULT 0 CHECK (current_quantity >= 0),
	max_quantity INTEGER,
	requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	CHECK (max_quantity IS NULL OR current_quantity <= max_quantity)
);

CREATE TABLE IF NOT EXISTS registrations (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id),
	user_id TEXT NOT NULL,
	ticket_type_id UUID REFERENCES ticket_types(id),
	status TEXT NOT NULL,
	order_id TEXT,
	reviewed_by TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (event_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations (event_id);
CREATE INDEX IF NOT EXISTS idx_ticket_types_event ON ticket_types (event_id);
`

// Migrate applies the schema. Idempotent; safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
