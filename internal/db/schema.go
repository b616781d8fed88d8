package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the repositories expect. It is idempotent
// and safe to run on every boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS slots (
			provider   TEXT        NOT NULL,
			title      TEXT        NOT NULL,
			specialty  TEXT        NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time   TIMESTAMPTZ NOT NULL,
			held_by    TEXT,
			held_until TIMESTAMPTZ,
			PRIMARY KEY (provider, start_time)
		);

		CREATE INDEX IF NOT EXISTS idx_slots_specialty_start
			ON slots (specialty, start_time);

		CREATE TABLE IF NOT EXISTS citas (
			id           UUID PRIMARY KEY,
			nombre       TEXT NOT NULL,
			dni          TEXT NOT NULL,
			edad         INT  NOT NULL,
			consultorio  TEXT NOT NULL,
			profesional  TEXT NOT NULL,
			fecha        TEXT NOT NULL,
			hora         TEXT NOT NULL,
			chat_id      TEXT NOT NULL,
			status       TEXT NOT NULL,
			start_utc    TIMESTAMPTZ,
			confirmed_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_citas_dni_status
			ON citas (dni, status);
	`

	_, err := pool.Exec(ctx, ddl)
	return err
}
