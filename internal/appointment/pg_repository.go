package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository uses; pgxmock
// implements it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool Querier
}

func NewPgRepository(pool Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var startUTC *time.Time
	var cancelledAt *time.Time

	err := row.Scan(
		&r.ID,
		&r.Nombre,
		&r.DNI,
		&r.Edad,
		&r.Consultorio,
		&r.Profesional,
		&r.Fecha,
		&r.Hora,
		&r.ChatID,
		&r.Status,
		&startUTC,
		&r.ConfirmedAt,
		&cancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	r.StartUTC = startUTC
	r.CancelledAt = cancelledAt
	return &r, nil
}

func (r *PgRepository) Create(ctx context.Context, rec Record) (*Record, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO citas (id, nombre, dni, edad, consultorio, profesional, fecha, hora, chat_id, status, start_utc, confirmed_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), NULL)
		RETURNING id, nombre, dni, edad, consultorio, profesional, fecha, hora, chat_id, status, start_utc, confirmed_at, cancelled_at
	`, id, rec.Nombre, rec.DNI, rec.Edad, rec.Consultorio, rec.Profesional, rec.Fecha, rec.Hora, rec.ChatID, rec.Status, rec.StartUTC)

	return scanRecord(row)
}

func (r *PgRepository) FindActiveByDNI(ctx context.Context, dni string) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, nombre, dni, edad, consultorio, profesional, fecha, hora, chat_id, status, start_utc, confirmed_at, cancelled_at
		FROM citas
		WHERE dni = $1
		  AND status = 'confirmada'
		ORDER BY confirmed_at DESC
		LIMIT 1
	`, dni)
	return scanRecord(row)
}

func (r *PgRepository) Cancel(ctx context.Context, dni string) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE citas
		SET status = 'cancelada',
		    cancelled_at = now()
		WHERE dni = $1
		  AND status = 'confirmada'
		RETURNING id, nombre, dni, edad, consultorio, profesional, fecha, hora, chat_id, status, start_utc, confirmed_at, cancelled_at
	`, dni)
	return scanRecord(row)
}
