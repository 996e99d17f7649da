package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"visitorax/internal/domain"
)

// AdminRepository define el contrato de persistencia para administradores.
type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.Admin, error)
}

// PgAdminRepository implementa AdminRepository usando pgxpool.
type PgAdminRepository struct {
	pool *pgxpool.Pool
}

func NewPgAdminRepository(pool *pgxpool.Pool) *PgAdminRepository {
	return &PgAdminRepository{pool: pool}
}

func (r *PgAdminRepository) GetByEmail(ctx context.Context, email string) (domain.Admin, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at
		FROM admins
		WHERE email = $1
	`
	var a domain.Admin
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&a.PasswordHash,
		&a.CreatedAt,
	)
	if err != nil {
		return domain.Admin{}, err
	}
	return a, nil
}
