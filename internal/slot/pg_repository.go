package slot

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository uses; pgxmock
// implements it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool Querier
}

func NewPgRepository(pool Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanStoredSlot(row pgx.Row) (*StoredSlot, error) {
	var s StoredSlot
	var heldBy *string
	var heldUntil *time.Time

	err := row.Scan(
		&s.Provider,
		&s.Title,
		&s.Specialty,
		&s.Start,
		&s.End,
		&heldBy,
		&heldUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.HeldBy = heldBy
	s.HeldUntil = heldUntil
	return &s, nil
}

func (r *PgRepository) ListAvailable(ctx context.Context, specialty Specialty, now time.Time) ([]StoredSlot, error) {
	// Lazy hold expiry: clear stale holds before reading availability.
	_, err := r.pool.Exec(ctx, `
		UPDATE slots
		SET held_by = NULL,
		    held_until = NULL
		WHERE held_until IS NOT NULL
		  AND held_until < $1
	`, now)
	if err != nil {
		return nil, err
	}

	cutoff := TodayUTC(now)

	var rows pgx.Rows
	if specialty != "" {
		rows, err = r.pool.Query(ctx, `
			SELECT provider, title, specialty, start_time, end_time, held_by, held_until
			FROM slots
			WHERE start_time >= $1
			  AND specialty = $2
			  AND held_by IS NULL
			ORDER BY start_time
		`, cutoff, specialty)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT provider, title, specialty, start_time, end_time, held_by, held_until
			FROM slots
			WHERE start_time >= $1
			  AND held_by IS NULL
			ORDER BY start_time
		`, cutoff)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StoredSlot
	for rows.Next() {
		s, err := scanStoredSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteAvailable(ctx context.Context, provider string, start, now time.Time) (*StoredSlot, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM slots
		WHERE provider = $1
		  AND start_time = $2
		  AND (held_by IS NULL OR held_until < $3)
		RETURNING provider, title, specialty, start_time, end_time, held_by, held_until
	`, provider, start, now)

	return scanStoredSlot(row)
}

func (r *PgRepository) Insert(ctx context.Context, s StoredSlot) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO slots (provider, title, specialty, start_time, end_time, held_by, held_until)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL)
		ON CONFLICT (provider, start_time) DO NOTHING
	`, s.Provider, s.Title, s.Specialty, s.Start, s.End)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotExists
	}
	return nil
}

func (r *PgRepository) SetHold(ctx context.Context, provider string, start time.Time, holder string, until, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE slots
		SET held_by = $3,
		    held_until = $4
		WHERE provider = $1
		  AND start_time = $2
		  AND (held_by IS NULL OR held_by = $3 OR held_until < $5)
	`, provider, start, holder, until, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish "missing" from "held by someone else".
	var exists bool
	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM slots WHERE provider = $1 AND start_time = $2)
	`, provider, start).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrSlotHeld
}

func (r *PgRepository) ClearHold(ctx context.Context, provider string, start time.Time, holder string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE slots
		SET held_by = NULL,
		    held_until = NULL
		WHERE provider = $1
		  AND start_time = $2
		  AND held_by = $3
	`, provider, start, holder)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHoldNotFound
	}
	return nil
}
