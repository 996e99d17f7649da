package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"visitorax/internal/domain"
	"visitorax/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotPending         = errors.New("face record is not pending")
)

// AdminService es la compuerta de aprobacion: autentica administradores y
// mueve registros faciales de pending hacia approved o rejected.
type AdminService struct {
	logger   *zap.Logger
	admins   repository.AdminRepository
	visitors repository.VisitorRepository
}

func NewAdminService(logger *zap.Logger, admins repository.AdminRepository, visitors repository.VisitorRepository) *AdminService {
	return &AdminService{
		logger:   logger,
		admins:   admins,
		visitors: visitors,
	}
}

// Authenticate valida email y clave del administrador.
func (s *AdminService) Authenticate(ctx context.Context, emailAddr, password string) (domain.Admin, error) {
	if s.admins == nil {
		return domain.Admin{}, errors.New("admin service not configured")
	}

	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.Admin{}, ErrInvalidCredentials
	}

	admin, err := s.admins.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Admin{}, ErrInvalidCredentials
		}
		return domain.Admin{}, err
	}
	if admin.PasswordHash == "" {
		return domain.Admin{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return domain.Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

// ListPending devuelve los registros faciales a la espera de revision.
func (s *AdminService) ListPending(ctx context.Context) ([]domain.PendingApproval, error) {
	if s.visitors == nil {
		return nil, errors.New("admin service not configured")
	}
	return s.visitors.ListPendingFaces(ctx)
}

// Approve mueve un registro pending a approved; su embedding pasa a ser
// la referencia para futuras verificaciones.
func (s *AdminService) Approve(ctx context.Context, identity string) error {
	visitor, err := s.pendingVisitor(ctx, identity)
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("face record approved", zap.String("identity", visitor.Identity))
	}
	return s.visitors.UpdateFaceStatus(ctx, visitor.Identity, domain.FaceStatusApproved, "")
}

// Reject mueve un registro pending a rejected con un motivo que el
// visitante vera en su proximo intento de login.
func (s *AdminService) Reject(ctx context.Context, identity, reason string) error {
	visitor, err := s.pendingVisitor(ctx, identity)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason provided."
	}
	if s.logger != nil {
		s.logger.Info("face record rejected", zap.String("identity", visitor.Identity), zap.String("reason", reason))
	}
	return s.visitors.UpdateFaceStatus(ctx, visitor.Identity, domain.FaceStatusRejected, reason)
}

func (s *AdminService) pendingVisitor(ctx context.Context, rawIdentity string) (domain.Visitor, error) {
	if s.visitors == nil {
		return domain.Visitor{}, errors.New("admin service not configured")
	}
	identity, kind := domain.NormalizeIdentity(rawIdentity)
	if kind == domain.IdentityUnknown {
		return domain.Visitor{}, ErrInvalidIdentity
	}
	visitor, err := s.visitors.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visitor{}, ErrVisitorNotFound
		}
		return domain.Visitor{}, err
	}
	if visitor.FaceStatus != domain.FaceStatusPending {
		return domain.Visitor{}, ErrNotPending
	}
	return visitor, nil
}
