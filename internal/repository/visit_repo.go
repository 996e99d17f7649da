package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"visitorax/internal/domain"
)

// VisitRepository define el contrato de persistencia para reservas de visita.
type VisitRepository interface {
	Create(ctx context.Context, visit domain.VisitLog) error
	GetByID(ctx context.Context, id string) (domain.VisitLog, error)
	SetCheckIn(ctx context.Context, id string, at time.Time) error
	SetCheckOut(ctx context.Context, id string, at time.Time) error
	// GetOpenByIdentity devuelve la reserva abierta mas reciente
	// (check_out IS NULL) de una identidad.
	GetOpenByIdentity(ctx context.Context, identity string) (domain.VisitLog, error)
	ListAll(ctx context.Context) ([]domain.VisitLog, error)
}

// PgVisitRepository implementa VisitRepository usando pgxpool.
type PgVisitRepository struct {
	pool *pgxpool.Pool
}

func NewPgVisitRepository(pool *pgxpool.Pool) *PgVisitRepository {
	return &PgVisitRepository{pool: pool}
}

const visitColumns = `id, identity, name, company, host_name, host_email, purpose, created_at, check_in, check_out`

func (r *PgVisitRepository) Create(ctx context.Context, visit domain.VisitLog) error {
	const query = `
		INSERT INTO visitlogs (id, identity, name, company, host_name, host_email, purpose, created_at, check_in, check_out)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		visit.ID,
		visit.Identity,
		visit.Name,
		visit.Company,
		visit.HostName,
		visit.HostEmail,
		visit.Purpose,
		visit.CreatedAt,
		visit.CheckIn,
		visit.CheckOut,
	)
	return err
}

func (r *PgVisitRepository) GetByID(ctx context.Context, id string) (domain.VisitLog, error) {
	query := `SELECT ` + visitColumns + ` FROM visitlogs WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *PgVisitRepository) SetCheckIn(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE visitlogs SET check_in = $2 WHERE id = $1 AND check_in IS NULL`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *PgVisitRepository) SetCheckOut(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE visitlogs SET check_out = $2 WHERE id = $1 AND check_out IS NULL`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *PgVisitRepository) GetOpenByIdentity(ctx context.Context, identity string) (domain.VisitLog, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visitlogs
		WHERE identity = $1 AND check_out IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(ctx, query, identity)
}

func (r *PgVisitRepository) ListAll(ctx context.Context) ([]domain.VisitLog, error) {
	query := `SELECT ` + visitColumns + ` FROM visitlogs ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []domain.VisitLog
	for rows.Next() {
		var v domain.VisitLog
		if err := rows.Scan(
			&v.ID, &v.Identity, &v.Name, &v.Company,
			&v.HostName, &v.HostEmail, &v.Purpose,
			&v.CreatedAt, &v.CheckIn, &v.CheckOut,
		); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *PgVisitRepository) scanOne(ctx context.Context, query string, arg any) (domain.VisitLog, error) {
	var v domain.VisitLog
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&v.ID, &v.Identity, &v.Name, &v.Company,
		&v.HostName, &v.HostEmail, &v.Purpose,
		&v.CreatedAt, &v.CheckIn, &v.CheckOut,
	)
	if err != nil {
		return domain.VisitLog{}, err
	}
	return v, nil
}
