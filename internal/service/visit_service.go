package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"visitorax/internal/domain"
	"visitorax/internal/repository"
)

var (
	ErrVisitNotFound      = errors.New("visit not found")
	ErrInvalidPurpose     = errors.New("invalid visit purpose")
	ErrVisitAlreadyOpen   = errors.New("an open visit already exists")
	ErrAlreadyCheckedIn   = errors.New("visit already checked in")
	ErrNotCheckedIn       = errors.New("visit not checked in")
	ErrAlreadyCheckedOut  = errors.New("visit already checked out")
	ErrVisitInputRequired = errors.New("host name and purpose are required")
)

// VisitService coordina reservas de visita y sus sellos de entrada/salida.
type VisitService struct {
	logger   *zap.Logger
	visits   repository.VisitRepository
	visitors repository.VisitorRepository
}

func NewVisitService(logger *zap.Logger, visits repository.VisitRepository, visitors repository.VisitorRepository) *VisitService {
	return &VisitService{
		logger:   logger,
		visits:   visits,
		visitors: visitors,
	}
}

// VisitInput describe una reserva nueva.
type VisitInput struct {
	HostName  string
	HostEmail string
	Purpose   string
}

// Create registra una reserva con check-in y check-out vacios. Una
// identidad mantiene a lo sumo una reserva abierta.
func (s *VisitService) Create(ctx context.Context, identity string, input VisitInput) (domain.VisitLog, error) {
	if s.visits == nil || s.visitors == nil {
		return domain.VisitLog{}, errors.New("visit service not configured")
	}

	hostName := strings.TrimSpace(input.HostName)
	purpose := strings.ToLower(strings.TrimSpace(input.Purpose))
	if hostName == "" || purpose == "" {
		return domain.VisitLog{}, ErrVisitInputRequired
	}
	if !domain.ValidPurpose(purpose) {
		return domain.VisitLog{}, ErrInvalidPurpose
	}

	if _, err := s.visits.GetOpenByIdentity(ctx, identity); err == nil {
		return domain.VisitLog{}, ErrVisitAlreadyOpen
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.VisitLog{}, err
	}

	visitor, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VisitLog{}, ErrVisitorNotFound
		}
		return domain.VisitLog{}, err
	}

	visit := domain.VisitLog{
		ID:        uuid.NewString(),
		Identity:  identity,
		Name:      visitor.Name,
		Company:   visitor.Company,
		HostName:  hostName,
		HostEmail: strings.TrimSpace(input.HostEmail),
		Purpose:   purpose,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return domain.VisitLog{}, err
	}
	return visit, nil
}

// Profile devuelve el visitante detras de la identidad autenticada.
func (s *VisitService) Profile(ctx context.Context, identity string) (domain.Visitor, error) {
	if s.visitors == nil {
		return domain.Visitor{}, errors.New("visit service not configured")
	}
	visitor, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visitor{}, ErrVisitorNotFound
		}
		return domain.Visitor{}, err
	}
	return visitor, nil
}

// CheckIn sella la entrada una sola vez.
func (s *VisitService) CheckIn(ctx context.Context, identity, visitID string) (domain.VisitLog, error) {
	visit, err := s.ownedVisit(ctx, identity, visitID)
	if err != nil {
		return domain.VisitLog{}, err
	}
	if visit.CheckIn != nil {
		return domain.VisitLog{}, ErrAlreadyCheckedIn
	}
	now := time.Now().UTC()
	if err := s.visits.SetCheckIn(ctx, visitID, now); err != nil {
		return domain.VisitLog{}, err
	}
	visit.CheckIn = &now
	return visit, nil
}

// CheckOut sella la salida; requiere una entrada previa.
func (s *VisitService) CheckOut(ctx context.Context, identity, visitID string) (domain.VisitLog, error) {
	visit, err := s.ownedVisit(ctx, identity, visitID)
	if err != nil {
		return domain.VisitLog{}, err
	}
	if visit.CheckIn == nil {
		return domain.VisitLog{}, ErrNotCheckedIn
	}
	if visit.CheckOut != nil {
		return domain.VisitLog{}, ErrAlreadyCheckedOut
	}
	now := time.Now().UTC()
	if err := s.visits.SetCheckOut(ctx, visitID, now); err != nil {
		return domain.VisitLog{}, err
	}
	visit.CheckOut = &now
	return visit, nil
}

// Current devuelve la reserva abierta de la identidad.
func (s *VisitService) Current(ctx context.Context, identity string) (domain.VisitLog, error) {
	if s.visits == nil {
		return domain.VisitLog{}, errors.New("visit service not configured")
	}
	visit, err := s.visits.GetOpenByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VisitLog{}, ErrVisitNotFound
		}
		return domain.VisitLog{}, err
	}
	return visit, nil
}

// ListAll devuelve todas las visitas, mas recientes primero.
func (s *VisitService) ListAll(ctx context.Context) ([]domain.VisitLog, error) {
	if s.visits == nil {
		return nil, errors.New("visit service not configured")
	}
	return s.visits.ListAll(ctx)
}

func (s *VisitService) ownedVisit(ctx context.Context, identity, visitID string) (domain.VisitLog, error) {
	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VisitLog{}, ErrVisitNotFound
		}
		return domain.VisitLog{}, err
	}
	if visit.Identity != identity {
		return domain.VisitLog{}, ErrVisitNotFound
	}
	return visit, nil
}
