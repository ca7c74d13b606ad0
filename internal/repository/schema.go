package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent. reservations_no_overlap backs up the row lock taken
// in WithResourceLock: live ranges on one resource can never intersect even
// if a writer bypasses the ledger.
const schema = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS resources (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL,
	description     TEXT,
	location        TEXT NOT NULL,
	floor           TEXT,
	capacity        INTEGER NOT NULL CHECK (capacity > 0),
	price_per_hour  NUMERIC(10, 2) NOT NULL,
	price_per_day   NUMERIC(10, 2),
	price_per_month NUMERIC(10, 2),
	amenities       TEXT[] NOT NULL DEFAULT '{}',
	is_active       BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS reservations (
	id          TEXT PRIMARY KEY,
	resource_id BIGINT NOT NULL REFERENCES resources (id),
	actor_id    BIGINT NOT NULL,
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	status      TEXT NOT NULL,
	total_price NUMERIC(10, 2) NOT NULL,
	notes       TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS reservations_actor_start_idx ON reservations (actor_id, start_time);

DO $$
BEGIN
	ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
		EXCLUDE USING gist (resource_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
		WHERE (status IN ('pending', 'confirmed'));
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;
`

// EnsureSchema creates the tables the Postgres repositories need.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
