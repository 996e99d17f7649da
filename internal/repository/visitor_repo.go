package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"visitorax/internal/domain"
)

// VisitorRepository define el contrato de persistencia para visitantes.
// El flujo central nunca toca la forma de las consultas directamente.
type VisitorRepository interface {
	GetByIdentity(ctx context.Context, identity string) (domain.Visitor, error)
	// UpsertOTP crea el registro si no existe y sobreescribe el codigo
	// vigente: gana la ultima escritura, hay exactamente un codigo vivo
	// por identidad.
	UpsertOTP(ctx context.Context, identity, code string, expiresAt time.Time) error
	// UpdateEnrollment persiste perfil, embedding y foto en una sola
	// escritura y deja el registro facial en pending.
	UpdateEnrollment(ctx context.Context, identity string, profile domain.Visitor, embedding pgvector.Vector, imageURL string) error
	UpdateFaceStatus(ctx context.Context, identity, status, reason string) error
	ListPendingFaces(ctx context.Context) ([]domain.PendingApproval, error)
}

// PgVisitorRepository implementa VisitorRepository usando pgxpool.
type PgVisitorRepository struct {
	pool *pgxpool.Pool
}

func NewPgVisitorRepository(pool *pgxpool.Pool) *PgVisitorRepository {
	return &PgVisitorRepository{pool: pool}
}

func (r *PgVisitorRepository) GetByIdentity(ctx context.Context, identity string) (domain.Visitor, error) {
	const query = `
		SELECT identity, name, company, address, dob,
		       otp_code, otp_expires_at,
		       face_status, face_image_url, face_embedding, face_reject_reason,
		       created_at
		FROM visitors
		WHERE identity = $1
	`
	var v domain.Visitor
	err := r.pool.QueryRow(ctx, query, identity).Scan(
		&v.Identity,
		&v.Name,
		&v.Company,
		&v.Address,
		&v.DOB,
		&v.OTPCode,
		&v.OTPExpiresAt,
		&v.FaceStatus,
		&v.FaceImageURL,
		&v.FaceEmbedding,
		&v.FaceRejectReason,
		&v.CreatedAt,
	)
	if err != nil {
		return domain.Visitor{}, err
	}
	return v, nil
}

func (r *PgVisitorRepository) UpsertOTP(ctx context.Context, identity, code string, expiresAt time.Time) error {
	const query = `
		INSERT INTO visitors (identity, otp_code, otp_expires_at, face_status, created_at)
		VALUES ($1, $2, $3, 'none', $4)
		ON CONFLICT (identity)
		DO UPDATE SET otp_code = EXCLUDED.otp_code, otp_expires_at = EXCLUDED.otp_expires_at
	`
	_, err := r.pool.Exec(ctx, query, identity, code, expiresAt, time.Now().UTC())
	return err
}

func (r *PgVisitorRepository) UpdateEnrollment(ctx context.Context, identity string, profile domain.Visitor, embedding pgvector.Vector, imageURL string) error {
	const query = `
		UPDATE visitors
		SET name = $2, company = $3, address = $4, dob = $5,
		    face_embedding = $6, face_image_url = $7,
		    face_status = 'pending', face_reject_reason = ''
		WHERE identity = $1
	`
	_, err := r.pool.Exec(ctx, query, identity,
		profile.Name,
		profile.Company,
		profile.Address,
		profile.DOB,
		embedding,
		imageURL,
	)
	return err
}

func (r *PgVisitorRepository) UpdateFaceStatus(ctx context.Context, identity, status, reason string) error {
	const query = `
		UPDATE visitors
		SET face_status = $2, face_reject_reason = $3
		WHERE identity = $1
	`
	_, err := r.pool.Exec(ctx, query, identity, status, reason)
	return err
}

func (r *PgVisitorRepository) ListPendingFaces(ctx context.Context) ([]domain.PendingApproval, error) {
	const query = `
		SELECT identity, name, face_image_url
		FROM visitors
		WHERE face_status = 'pending'
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []domain.PendingApproval
	for rows.Next() {
		var p domain.PendingApproval
		if err := rows.Scan(&p.Identity, &p.Name, &p.FaceImageURL); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
