package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"visitorax/internal/domain"
	"visitorax/internal/face"
	"visitorax/internal/media"
	"visitorax/internal/repository"
)

var (
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrPhotoRequired     = errors.New("face photo required")
	ErrBadEmbedding      = errors.New("bad face embedding")
	ErrUploadFailure     = errors.New("face photo upload failed")
	ErrPersistFailure    = errors.New("enrollment persist failed")
)

// EnrollmentService finaliza el registro: perfil completo, foto subida y
// embedding persistido dejan el registro facial en pending.
type EnrollmentService struct {
	logger   *zap.Logger
	visitors repository.VisitorRepository
	uploader media.Uploader
}

func NewEnrollmentService(logger *zap.Logger, visitors repository.VisitorRepository, uploader media.Uploader) *EnrollmentService {
	return &EnrollmentService{
		logger:   logger,
		visitors: visitors,
		uploader: uploader,
	}
}

// EnrollmentInput es la captura confirmada mas el perfil del visitante.
type EnrollmentInput struct {
	Name    string
	Company string
	Address string
	DOB     string
	// Embedding es el vector congelado en el commit de captura.
	Embedding []float32
	// Photo es la imagen fija del frame capturado.
	Photo []byte
}

// Finalize valida las compuertas de perfil y captura, sube la foto y
// persiste todo en una sola escritura. El estado no avanza a pending si
// la subida falla; si la persistencia falla el estado tampoco cambia.
func (s *EnrollmentService) Finalize(ctx context.Context, rawIdentity string, input EnrollmentInput) (domain.Visitor, error) {
	if s.visitors == nil || s.uploader == nil {
		return domain.Visitor{}, errors.New("enrollment service not configured")
	}

	identity, kind := domain.NormalizeIdentity(rawIdentity)
	if kind == domain.IdentityUnknown {
		return domain.Visitor{}, ErrInvalidIdentity
	}

	profile := domain.Visitor{
		Identity: identity,
		Name:     input.Name,
		Company:  input.Company,
		Address:  input.Address,
		DOB:      input.DOB,
	}
	if !profile.ProfileComplete() {
		return domain.Visitor{}, ErrProfileIncomplete
	}
	if len(input.Photo) == 0 {
		return domain.Visitor{}, ErrPhotoRequired
	}
	embedding, err := face.NewEmbedding(input.Embedding)
	if err != nil {
		return domain.Visitor{}, fmt.Errorf("%w: %v", ErrBadEmbedding, err)
	}

	// El registro debe existir: un ciclo de OTP ya lo creo.
	if _, err := s.visitors.GetByIdentity(ctx, identity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visitor{}, ErrVisitorNotFound
		}
		return domain.Visitor{}, err
	}

	imageURL, err := s.uploader.UploadFacePhoto(ctx, identity, input.Photo)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("face photo upload failed", zap.Error(err), zap.String("identity", identity))
		}
		return domain.Visitor{}, fmt.Errorf("%w: %v", ErrUploadFailure, err)
	}

	if err := s.visitors.UpdateEnrollment(ctx, identity, profile, embedding.Vector(), imageURL); err != nil {
		if s.logger != nil {
			s.logger.Error("enrollment persist failed", zap.Error(err), zap.String("identity", identity))
		}
		return domain.Visitor{}, fmt.Errorf("%w: %v", ErrPersistFailure, err)
	}

	visitor, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil {
		return domain.Visitor{}, err
	}
	return visitor, nil
}
