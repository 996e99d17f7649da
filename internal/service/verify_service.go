package service

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"visitorax/internal/domain"
	"visitorax/internal/face"
	"visitorax/internal/repository"
)

var (
	ErrFaceNotApproved = errors.New("face record not approved")
	ErrNoReference     = errors.New("no reference embedding stored")
)

// FaceVerifyService mantiene una sesion de verificacion por identidad: el
// matcher queda fijado tras la primera coincidencia y no se reevalua hasta
// que un nuevo ciclo de login la reinicia.
type FaceVerifyService struct {
	logger   *zap.Logger
	visitors repository.VisitorRepository

	mu       sync.Mutex
	sessions map[string]*face.Matcher
}

func NewFaceVerifyService(logger *zap.Logger, visitors repository.VisitorRepository) *FaceVerifyService {
	return &FaceVerifyService{
		logger:   logger,
		visitors: visitors,
		sessions: make(map[string]*face.Matcher),
	}
}

// Verify evalua un embedding en vivo contra la referencia aprobada.
func (s *FaceVerifyService) Verify(ctx context.Context, rawIdentity string, values []float32) (bool, float64, error) {
	if s.visitors == nil {
		return false, 0, errors.New("verify service not configured")
	}

	identity, kind := domain.NormalizeIdentity(rawIdentity)
	if kind == domain.IdentityUnknown {
		return false, 0, ErrInvalidIdentity
	}

	live, err := face.NewEmbedding(values)
	if err != nil {
		return false, 0, err
	}

	matcher, err := s.sessionFor(ctx, identity)
	if err != nil {
		return false, 0, err
	}

	matched, dist, err := matcher.Observe(live)
	if err != nil {
		return false, 0, err
	}
	return matched, dist, nil
}

// Reset descarta la sesion de verificacion de una identidad. Se invoca al
// comenzar un nuevo ciclo de login para que el exito anterior no se herede.
func (s *FaceVerifyService) Reset(rawIdentity string) {
	identity, kind := domain.NormalizeIdentity(rawIdentity)
	if kind == domain.IdentityUnknown {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, identity)
}

func (s *FaceVerifyService) sessionFor(ctx context.Context, identity string) (*face.Matcher, error) {
	s.mu.Lock()
	if m, ok := s.sessions[identity]; ok {
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	visitor, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisitorNotFound
		}
		return nil, err
	}
	if visitor.FaceStatus != domain.FaceStatusApproved {
		return nil, ErrFaceNotApproved
	}
	if visitor.FaceEmbedding == nil {
		return nil, ErrNoReference
	}
	reference, err := face.FromVector(*visitor.FaceEmbedding)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("stored reference has wrong dimension", zap.String("identity", identity))
		}
		return nil, err
	}

	matcher := face.NewMatcher(reference, face.MatchThreshold)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[identity]; ok {
		return existing, nil
	}
	s.sessions[identity] = matcher
	return matcher, nil
}
